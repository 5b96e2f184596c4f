package application

import (
	"context"
	"net/http"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/shopspring/decimal"
)

// GatewayClient is the port for the external payment provider.
type GatewayClient interface {
	CreateRemoteOrder(ctx context.Context, req CreateRemoteOrderRequest) (*RemoteOrder, error)
	// CapturePayment returns an error only when the outcome is unknown; declines come back as a failed result.
	CapturePayment(ctx context.Context, remoteOrderID string) (*CaptureResult, error)
	GetRemoteOrder(ctx context.Context, remoteOrderID string) (*RemoteOrder, error)
	// VerifyWebhookSignature never errors; anything but a confirmed signature is false.
	VerifyWebhookSignature(ctx context.Context, headers http.Header, rawBody []byte) bool
}

// OrderStore is the port for order persistence.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	// CompareAndSwap persists order only if the stored version still equals order.Version,
	// then bumps order.Version. A lost race returns domain.ErrStaleOrder.
	CompareAndSwap(ctx context.Context, order *domain.Order) error
	MarkSideEffectsApplied(ctx context.Context, orderID string, at time.Time) error
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error)
	FindStuckProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Order, error)
	FindUnappliedCompleted(ctx context.Context, completedBefore time.Time, limit int) ([]*domain.Order, error)
}

type TransactionStore interface {
	Create(ctx context.Context, txn *domain.PaymentTransaction) error
	Update(ctx context.Context, txn *domain.PaymentTransaction) error
	FindByOrderID(ctx context.Context, orderID string) ([]*domain.PaymentTransaction, error)
}

type PlanStore interface {
	FindByLevel(ctx context.Context, level domain.MembershipLevel) (*domain.MembershipPlan, error)
	List(ctx context.Context) ([]*domain.MembershipPlan, error)
}

// WebhookEventStore keeps every authenticated provider event so redeliveries are recognised.
type WebhookEventStore interface {
	// Record stores event unless its id is known; it reports the stored row and whether it was new.
	Record(ctx context.Context, event *domain.WebhookEvent) (*domain.WebhookEvent, bool, error)
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID string, reason string) error
}

// MembershipService applies paid orders to memberships. Every call is keyed by the
// order that paid for it and is a no-op when that order was already applied.
type MembershipService interface {
	ApplyPlan(ctx context.Context, orderID, userID string, renew bool, level domain.MembershipLevel, days int) (*domain.Membership, error)
	PayDeposit(ctx context.Context, orderID, userID string, amount decimal.Decimal) (*domain.Membership, error)
}

// OrderSerializer runs fn for one key at a time. Different keys run concurrently.
type OrderSerializer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// EventPublisher announces order status changes to the rest of the platform.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Metrics is the instrumentation the services report to.
type Metrics interface {
	OrderCreated(orderType domain.OrderType)
	CaptureFinished(source CaptureSource, outcome string)
	SideEffectApplied(orderType domain.OrderType, err error)
	WebhookReceived(eventType string, outcome string)
}
