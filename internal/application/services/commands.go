package services

import (
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrderCommand struct {
	UserID          string           `validate:"required"`
	OrderType       string           `validate:"required"`
	MembershipLevel *int             `validate:"omitempty,min=0"`
	DurationDays    *int             `validate:"omitempty,min=1,max=3650"`
	DepositAmount   *decimal.Decimal `validate:"-"`
}

type CreateOrderResult struct {
	Order       *domain.Order
	ApprovalURL string
}

type CaptureCommand struct {
	ProviderOrderID string `validate:"required"`
	// OrderID, when set, must be the order the provider order belongs to.
	OrderID string
	// UserID is empty for triggers that act on behalf of the provider.
	UserID string
	Source application.CaptureSource `validate:"required"`
}

// CaptureOutcome is the result of a capture that reached a verdict. Declines are
// outcomes, not errors.
type CaptureOutcome struct {
	Order            *domain.Order
	Success          bool
	AlreadyCompleted bool
	ErrorCode        string
	Message          string
}

type OrderPage struct {
	Orders   []*domain.Order
	Page     int
	PageSize int
	Total    int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
