package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/application/services/testhelpers"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/gonomads/payment-service/internal/infrastructure/gateway"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/postgres"
	"github.com/gonomads/payment-service/internal/interfaces/rest/handlers"
	"github.com/gonomads/payment-service/internal/interfaces/rest/server"
	"github.com/gonomads/payment-service/internal/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the HTTP API against PostgreSQL and a fake PayPal.
type E2ETestSuite struct {
	suite.Suite
	db          *testhelpers.TestDatabase
	provider    *fakePayPal
	api         *httptest.Server
	client      *TestClient
	memberships *postgres.MembershipRepository
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

func (s *E2ETestSuite) SetupSuite() {
	t := s.T()
	logger := testhelpers.DiscardLogger()

	s.db = testhelpers.SetupTestDatabase(t)
	s.provider = newFakePayPal()

	settings := testhelpers.DefaultOrdersConfig()
	metrics := application.NopMetrics{}
	publisher := application.NopPublisher{}

	gatewayCfg := config.GatewayConfig{
		BaseURL:      s.provider.server.URL,
		ClientID:     "e2e-client",
		ClientSecret: "e2e-secret",
		Timeout:      5 * time.Second,
		ReturnURL:    "https://pay.example.com/api/v1/payments/return",
		CancelURL:    "https://pay.example.com/api/v1/payments/cancel",
		WebhookID:    "WH-E2E",
		VerifyMode:   "remote",
		Retry:        config.RetryConfig{BaseDelay: 10 * time.Millisecond, MaxRetries: 1},
	}
	client := gateway.NewRetryGatewayClient(gateway.NewPayPalClient(gatewayCfg, logger), gatewayCfg.Retry)

	orders := postgres.NewOrderRepository(s.db.DB)
	txns := postgres.NewTransactionRepository(s.db.DB)
	s.memberships = postgres.NewMembershipRepository(s.db.DB)

	orderService, err := services.NewOrderService(
		orders, txns, postgres.NewPlanRepository(s.db.DB), client, publisher, metrics, settings, logger,
	)
	require.NoError(t, err)

	applier := services.NewSideEffectApplier(membership.NewService(s.memberships, logger), orders, metrics, logger)
	captureService := services.NewCaptureService(
		orders, txns, client, applier, services.NewKeyedSerializer(), publisher, metrics, settings, logger,
	)
	webhookService := services.NewWebhookService(
		client, postgres.NewWebhookEventRepository(s.db.DB), captureService, metrics, gatewayCfg.WebhookID, logger,
	)

	doc, err := api.LoadDocument(context.Background())
	require.NoError(t, err)

	s.api = httptest.NewServer(server.NewRouter(server.Options{
		Handlers:       handlers.NewHandlers(orderService, captureService, webhookService, doc, "gonomads", logger),
		Document:       doc,
		Metrics:        http.NotFoundHandler(),
		Health:         s.db.DB.Ping,
		RequestTimeout: 10 * time.Second,
		Logger:         logger,
	}))
	s.client = NewTestClient(s.api.URL)
}

func (s *E2ETestSuite) TearDownSuite() {
	if s.api != nil {
		s.api.Close()
	}
	if s.provider != nil {
		s.provider.Close()
	}
	if s.db != nil {
		s.db.Cleanup(s.T())
	}
}

func (s *E2ETestSuite) SetupTest() {
	s.db.CleanTables(s.T())
	s.provider.captures.Store(0)
}

func (s *E2ETestSuite) grants(orderID string) int {
	var n int
	err := s.db.DB.Pool.QueryRow(context.Background(),
		"SELECT count(*) FROM membership_grants WHERE order_id = $1", orderID).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *E2ETestSuite) TestCheckoutFlow() {
	t := s.T()

	created := s.client.CreateUpgrade(t, "user-e2e-1", 2, 365)
	require.NotNil(t, created.Order.ProviderOrderId)
	providerOrderID := *created.Order.ProviderOrderId
	assert.Equal(t, api.Pending, created.Order.Status)
	assert.Contains(t, *created.ApprovalUrl, providerOrderID)
	assert.Equal(t, "99.99", created.Order.TotalAmount)

	s.provider.approve(providerOrderID)

	status, env := s.client.Capture(t, "user-e2e-1", created.Order.Id, providerOrderID)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "payment completed", env.Message)

	order := s.client.GetOrder(t, "user-e2e-1", created.Order.Id)
	assert.Equal(t, api.Completed, order.Status)
	require.NotNil(t, order.ProviderCaptureId)
	assert.Equal(t, "CAP-"+providerOrderID, *order.ProviderCaptureId)

	txns := s.client.Transactions(t, "user-e2e-1", created.Order.Id)
	require.Len(t, txns, 1)
	require.NotNil(t, txns[0].Status)
	assert.Equal(t, "completed", *txns[0].Status)

	m, err := s.memberships.FindByUserID(context.Background(), "user-e2e-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPro, m.Level)
	assert.Equal(t, 1, s.grants(created.Order.Id))

	status, env = s.client.Capture(t, "user-e2e-1", created.Order.Id, providerOrderID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment already completed", env.Message)
	assert.Equal(t, int32(1), s.provider.captures.Load())
}

func (s *E2ETestSuite) TestCaptureRacesWebhook() {
	t := s.T()

	created := s.client.CreateUpgrade(t, "user-e2e-2", 2, 365)
	providerOrderID := *created.Order.ProviderOrderId
	s.provider.approve(providerOrderID)

	var (
		wg            sync.WaitGroup
		captureStatus int
		webhookStatus int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		captureStatus, _ = s.client.Capture(t, "user-e2e-2", created.Order.Id, providerOrderID)
	}()
	go func() {
		defer wg.Done()
		webhookStatus, _ = s.client.DeliverCaptureCompleted(t, "WH-EVT-RACE", providerOrderID)
	}()
	wg.Wait()

	assert.Equal(t, http.StatusOK, captureStatus)
	assert.Equal(t, http.StatusOK, webhookStatus)

	order := s.client.GetOrder(t, "user-e2e-2", created.Order.Id)
	assert.Equal(t, api.Completed, order.Status)

	completed := 0
	for _, txn := range s.client.Transactions(t, "user-e2e-2", created.Order.Id) {
		if txn.Status != nil && *txn.Status == "completed" {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, s.grants(created.Order.Id))
}

func (s *E2ETestSuite) TestWebhookRedelivery() {
	t := s.T()

	created := s.client.CreateUpgrade(t, "user-e2e-3", 1, 30)
	providerOrderID := *created.Order.ProviderOrderId
	s.provider.approve(providerOrderID)

	status, env := s.client.DeliverCaptureCompleted(t, "WH-EVT-REDELIVER", providerOrderID)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.client.DeliverCaptureCompleted(t, "WH-EVT-REDELIVER", providerOrderID)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"duplicate":true`)

	order := s.client.GetOrder(t, "user-e2e-3", created.Order.Id)
	assert.Equal(t, api.Completed, order.Status)
	assert.Equal(t, 1, s.grants(created.Order.Id))
	assert.Equal(t, int32(1), s.provider.captures.Load())
}
