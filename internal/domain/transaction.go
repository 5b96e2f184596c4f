package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

const (
	TransactionTypePayment = "payment"
	PaymentMethodPayPal    = "paypal"
)

// Error codes recorded on failed transactions that did not come from the gateway.
const (
	TxnErrorUnknown            = "UNKNOWN"
	TxnErrorGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	TxnErrorSuperseded         = "SUPERSEDED"
)

// PaymentTransaction is the audit record of one capture attempt.
type PaymentTransaction struct {
	ID              string
	OrderID         string
	TransactionType string
	Amount          decimal.Decimal
	Currency        string
	Status          TransactionStatus
	PaymentMethod   string

	ProviderTransactionID *string
	ProviderCaptureID     *string
	ErrorCode             *string
	ErrorMessage          *string
	RawResponse           *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPaymentTransaction(id string, order *Order, now time.Time) (*PaymentTransaction, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("transaction id")
	}
	if order == nil {
		return nil, errors.New("transaction requires an order")
	}
	now = now.UTC()
	return &PaymentTransaction{
		ID:              id,
		OrderID:         order.ID,
		TransactionType: TransactionTypePayment,
		Amount:          order.TotalAmount,
		Currency:        order.Currency,
		Status:          TransactionPending,
		PaymentMethod:   PaymentMethodPayPal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (t *PaymentTransaction) Complete(details CaptureDetails, now time.Time) error {
	if t.Status != TransactionPending {
		return ErrInvalidTransition
	}
	t.Status = TransactionCompleted
	t.ProviderCaptureID = strPtr(details.CaptureID)
	t.ProviderTransactionID = strPtr(details.TransactionID)
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *PaymentTransaction) Fail(code, message, rawResponse string, now time.Time) error {
	if t.Status != TransactionPending {
		return ErrInvalidTransition
	}
	if code == "" {
		code = TxnErrorUnknown
	}
	t.Status = TransactionFailed
	t.ErrorCode = &code
	t.ErrorMessage = strPtr(message)
	t.RawResponse = strPtr(rawResponse)
	t.UpdatedAt = now.UTC()
	return nil
}
