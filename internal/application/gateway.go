package application

import (
	"time"

	"github.com/gonomads/payment-service/internal/domain"
)

// Remote order statuses reported by the provider.
const (
	RemoteStatusCreated   = "CREATED"
	RemoteStatusApproved  = "APPROVED"
	RemoteStatusCompleted = "COMPLETED"
	RemoteStatusVoided    = "VOIDED"
)

type CreateRemoteOrderRequest struct {
	Amount      domain.Money
	Description string
	ReferenceID string
}

type RemoteOrder struct {
	ID          string
	Status      string
	ApprovalURL string
	CaptureID   string
	PayerID     string
	PayerEmail  string
}

// CaptureResult is the gateway's verdict on one capture call.
type CaptureResult struct {
	Success      bool
	Status       string
	Details      domain.CaptureDetails
	ErrorCode    string
	ErrorMessage string
	RawResponse  string
}

// CaptureSource tells which trigger drove a capture.
type CaptureSource string

const (
	CaptureSourceClient     CaptureSource = "client"
	CaptureSourceWebhook    CaptureSource = "webhook"
	CaptureSourceReconciler CaptureSource = "reconciler"
)

type OrderEventType string

const (
	OrderEventCompleted OrderEventType = "order.completed"
	OrderEventFailed    OrderEventType = "order.failed"
	OrderEventCancelled OrderEventType = "order.cancelled"
)

type OrderEvent struct {
	Type        OrderEventType `json:"event_type"`
	OrderID     string         `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	UserID      string         `json:"user_id"`
	OrderType   string         `json:"order_type"`
	Status      string         `json:"status"`
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func NewOrderEvent(eventType OrderEventType, order *domain.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		OrderType:   string(order.Type),
		Status:      string(order.Status),
		Amount:      order.TotalAmount.StringFixed(2),
		Currency:    order.Currency,
		OccurredAt:  at.UTC(),
	}
}
