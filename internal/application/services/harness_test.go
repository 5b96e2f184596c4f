package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/application/services/testhelpers"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/memory"
	"github.com/gonomads/payment-service/internal/membership"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// harness wires the services over the in-memory stores.
type harness struct {
	orders      *memory.OrderStore
	txns        *memory.TransactionStore
	memberships *memory.MembershipStore
	events      *memory.WebhookEventStore
	gateway     *testhelpers.MockGatewayClient
	publisher   *recordingPublisher

	orderService   *services.OrderService
	captureService *services.CaptureService
	webhookService *services.WebhookService
}

type harnessOption func(*harnessOptions)

type harnessOptions struct {
	settings    config.OrdersConfig
	serializer  application.OrderSerializer
	webhookID   string
	memberships application.MembershipService
}

func withSettings(fn func(*config.OrdersConfig)) harnessOption {
	return func(o *harnessOptions) { fn(&o.settings) }
}

func withSerializer(s application.OrderSerializer) harnessOption {
	return func(o *harnessOptions) { o.serializer = s }
}

func withWebhookID(id string) harnessOption {
	return func(o *harnessOptions) { o.webhookID = id }
}

func withMembershipService(m application.MembershipService) harnessOption {
	return func(o *harnessOptions) { o.memberships = m }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	logger := testhelpers.DiscardLogger()

	h := &harness{
		orders:      memory.NewOrderStore(),
		txns:        memory.NewTransactionStore(),
		memberships: memory.NewMembershipStore(),
		events:      memory.NewWebhookEventStore(),
		gateway:     testhelpers.NewMockGatewayClient(),
		publisher:   &recordingPublisher{},
	}

	o := harnessOptions{
		settings:   testhelpers.DefaultOrdersConfig(),
		serializer: services.NewKeyedSerializer(),
		webhookID:  "WH-TEST",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.memberships == nil {
		o.memberships = membership.NewService(h.memberships, logger)
	}

	metrics := application.NopMetrics{}

	var err error
	h.orderService, err = services.NewOrderService(
		h.orders, h.txns, memory.NewPlanStore(), h.gateway, h.publisher, metrics, o.settings, logger,
	)
	require.NoError(t, err)

	applier := services.NewSideEffectApplier(o.memberships, h.orders, metrics, logger)
	h.captureService = services.NewCaptureService(
		h.orders, h.txns, h.gateway, applier, o.serializer, h.publisher, metrics, o.settings, logger,
	)
	h.webhookService = services.NewWebhookService(h.gateway, h.events, h.captureService, metrics, o.webhookID, logger)

	t.Cleanup(func() { h.gateway.AssertExpectations(t) })
	return h
}

// createOrder places an order through OrderService with the gateway answering providerOrderID.
func (h *harness) createOrder(t *testing.T, cmd services.CreateOrderCommand, providerOrderID string) *domain.Order {
	t.Helper()
	h.gateway.ExpectCreate(providerOrderID).Once()

	result, err := h.orderService.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	require.NotNil(t, result.Order.ProviderOrderID)
	return result.Order
}

// seedOrder stores an order directly, bypassing creation, so tests can control its clock.
func (h *harness) seedOrder(t *testing.T, userID, providerOrderID string, status domain.OrderStatus, at time.Time) *domain.Order {
	t.Helper()

	price, err := domain.NewMoney(decimal.RequireFromString("9.99"), "USD")
	require.NoError(t, err)
	level, days := domain.LevelPro, 30

	order, err := domain.NewOrder(uuid.New().String(), "ORD"+uuid.New().String()[:8], userID,
		domain.OrderTypeMembershipUpgrade, price, &level, &days, at, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, order.AttachProviderOrder(providerOrderID, at))
	if status != domain.OrderPending {
		require.NoError(t, order.TransitionTo(status, at))
	}

	require.NoError(t, h.orders.Create(context.Background(), order))
	return order
}

func (h *harness) order(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := h.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func (h *harness) transactions(t *testing.T, orderID string) []*domain.PaymentTransaction {
	t.Helper()
	txns, err := h.txns.FindByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	return txns
}

func countByStatus(txns []*domain.PaymentTransaction, status domain.TransactionStatus) int {
	n := 0
	for _, txn := range txns {
		if txn.Status == status {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []application.OrderEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event application.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType application.OrderEventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// passthroughSerializer runs transitions without per-key ordering, leaving only the
// store's compare-and-swap between racing triggers.
type passthroughSerializer struct{}

func (passthroughSerializer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
