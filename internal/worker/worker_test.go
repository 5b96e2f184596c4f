package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/application/services/testhelpers"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/memory"
	"github.com/gonomads/payment-service/internal/membership"
	"github.com/gonomads/payment-service/internal/worker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu     sync.Mutex
	runs   map[string]int
	orders map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{runs: map[string]int{}, orders: map[string]int{}}
}

func (m *recordingMetrics) WorkerRun(worker string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[worker]++
}

func (m *recordingMetrics) WorkerOrders(worker, result string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[worker+"/"+result] += n
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[key]
}

type fixture struct {
	orders      *memory.OrderStore
	memberships *memory.MembershipStore
	gateway     *testhelpers.MockGatewayClient
	capture     *services.CaptureService
	applier     *services.SideEffectApplier
	metrics     *recordingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testhelpers.DiscardLogger()

	f := &fixture{
		orders:      memory.NewOrderStore(),
		memberships: memory.NewMembershipStore(),
		gateway:     testhelpers.NewMockGatewayClient(),
		metrics:     newRecordingMetrics(),
	}
	nop := application.NopMetrics{}
	f.applier = services.NewSideEffectApplier(membership.NewService(f.memberships, logger), f.orders, nop, logger)
	f.capture = services.NewCaptureService(
		f.orders, memory.NewTransactionStore(), f.gateway, f.applier, services.NewKeyedSerializer(),
		application.NopPublisher{}, nop, testhelpers.DefaultOrdersConfig(), logger,
	)

	t.Cleanup(func() { f.gateway.AssertExpectations(t) })
	return f
}

// seed stores an order created at `at` and walked through statuses at the same instant.
func (f *fixture) seed(t *testing.T, providerOrderID string, at time.Time, statuses ...domain.OrderStatus) *domain.Order {
	t.Helper()

	price, err := domain.NewMoney(decimal.RequireFromString("99.99"), "USD")
	require.NoError(t, err)
	level, days := domain.LevelPro, 365

	order, err := domain.NewOrder(uuid.New().String(), "ORD"+uuid.New().String()[:8], "user-1",
		domain.OrderTypeMembershipUpgrade, price, &level, &days, at, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, order.AttachProviderOrder(providerOrderID, at))
	for _, s := range statuses {
		require.NoError(t, order.TransitionTo(s, at))
	}
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order
}

func (f *fixture) order(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := f.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func TestExpirationWorker_CancelsExpiredPending(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	stale := f.seed(t, "PAYPAL-OLD", now.Add(-time.Hour))
	fresh := f.seed(t, "PAYPAL-NEW", now.Add(-time.Minute))
	processing := f.seed(t, "PAYPAL-BUSY", now.Add(-time.Hour), domain.OrderProcessing)

	w := worker.NewExpirationWorker(f.orders, application.NopPublisher{}, f.metrics, time.Minute, 10, testhelpers.DiscardLogger())

	assert.Equal(t, 1, w.RunOnce(context.Background()))
	assert.Equal(t, domain.OrderCancelled, f.order(t, stale.ID).Status)
	assert.Equal(t, domain.OrderPending, f.order(t, fresh.ID).Status)
	assert.Equal(t, domain.OrderProcessing, f.order(t, processing.ID).Status)
	assert.Equal(t, 1, f.metrics.count("expiration/cancelled"))

	assert.Zero(t, w.RunOnce(context.Background()), "cancelled orders are not swept again")
}

func TestReconciler_FinishesStuckCapture(t *testing.T) {
	f := newFixture(t)
	stuck := f.seed(t, "PAYPAL-STUCK", time.Now().Add(-10*time.Minute), domain.OrderProcessing)

	f.gateway.On("GetRemoteOrder", mock.Anything, "PAYPAL-STUCK").
		Return(&application.RemoteOrder{ID: "PAYPAL-STUCK", Status: application.RemoteStatusApproved}, nil).Once()
	f.gateway.ExpectCaptureSuccess("PAYPAL-STUCK").Once()

	r := worker.NewReconciler(f.orders, f.capture, f.applier, f.metrics, time.Minute, 10, 5*time.Minute, testhelpers.DiscardLogger())
	r.RunOnce(context.Background())

	order := f.order(t, stuck.ID)
	assert.Equal(t, domain.OrderCompleted, order.Status)
	assert.NotNil(t, order.SideEffectsAppliedAt)
	assert.Equal(t, 1, f.metrics.count("reconciler/capture_completed"))

	m, err := f.memberships.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPro, m.Level)
}

func TestReconciler_LeavesUnapprovedOrders(t *testing.T) {
	f := newFixture(t)
	stuck := f.seed(t, "PAYPAL-WAIT", time.Now().Add(-10*time.Minute), domain.OrderProcessing)
	f.seed(t, "PAYPAL-RECENT", time.Now(), domain.OrderProcessing)

	f.gateway.On("GetRemoteOrder", mock.Anything, "PAYPAL-WAIT").
		Return(&application.RemoteOrder{ID: "PAYPAL-WAIT", Status: application.RemoteStatusCreated}, nil).Once()

	r := worker.NewReconciler(f.orders, f.capture, f.applier, f.metrics, time.Minute, 10, 5*time.Minute, testhelpers.DiscardLogger())
	r.RunOnce(context.Background())

	assert.Equal(t, domain.OrderProcessing, f.order(t, stuck.ID).Status)
	assert.Equal(t, 1, f.metrics.count("reconciler/capture_waiting"))
	assert.Zero(t, f.gateway.Captures())
}

func TestReconciler_ReappliesMissingSideEffectsOnce(t *testing.T) {
	f := newFixture(t)
	completed := f.seed(t, "PAYPAL-DONE", time.Now().Add(-10*time.Minute), domain.OrderProcessing, domain.OrderCompleted)

	r := worker.NewReconciler(f.orders, f.capture, f.applier, f.metrics, time.Minute, 10, 5*time.Minute, testhelpers.DiscardLogger())
	r.RunOnce(context.Background())

	order := f.order(t, completed.ID)
	require.NotNil(t, order.SideEffectsAppliedAt)
	assert.Equal(t, 1, f.metrics.count("reconciler/side_effect_applied"))

	first, err := f.memberships.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)

	// a second apply of the same order must not extend the membership again
	require.NoError(t, f.applier.Apply(context.Background(), order))
	r.RunOnce(context.Background())

	second, err := f.memberships.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Equal(t, 1, f.metrics.count("reconciler/side_effect_applied"))
}
