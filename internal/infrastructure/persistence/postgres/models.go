package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel mirrors one orders row.
type OrderModel struct {
	ID                   string
	OrderNumber          string
	UserID               string
	OrderType            string
	Amount               decimal.Decimal
	TotalAmount          decimal.Decimal
	Currency             string
	MembershipLevel      *int
	DurationDays         *int
	ProviderOrderID      *string
	ProviderCaptureID    *string
	PayerID              *string
	PayerEmail           *string
	Status               string
	ErrorMessage         *string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ExpiredAt            time.Time
	CompletedAt          *time.Time
	SideEffectsAppliedAt *time.Time
}

type TransactionModel struct {
	ID                    string
	OrderID               string
	TransactionType       string
	Amount                decimal.Decimal
	Currency              string
	Status                string
	PaymentMethod         string
	ProviderTransactionID *string
	ProviderCaptureID     *string
	ErrorCode             *string
	ErrorMessage          *string
	RawResponse           *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type MembershipModel struct {
	ID          string
	UserID      string
	Level       int
	StartDate   time.Time
	ExpiresAt   *time.Time
	AutoRenew   bool
	DepositPaid decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WebhookEventModel keeps the raw payload exactly as it was delivered.
type WebhookEventModel struct {
	EventID         string
	EventType       string
	ResourceID      *string
	ProviderOrderID *string
	Payload         []byte
	SignatureValid  bool
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
	ProcessingError *string
}
