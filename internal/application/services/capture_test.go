package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/application/services/testhelpers"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func clientCapture(order *domain.Order) services.CaptureCommand {
	return services.CaptureCommand{
		ProviderOrderID: *order.ProviderOrderID,
		OrderID:         order.ID,
		UserID:          order.UserID,
		Source:          application.CaptureSourceClient,
	}
}

func TestCapture_UpgradeScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", 2, 365), "PAYPAL-1")
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, "99.99", order.TotalAmount.StringFixed(2))

	h.gateway.ExpectCaptureSuccess("PAYPAL-1").Once()

	outcome, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.AlreadyCompleted)
	assert.Equal(t, domain.OrderCompleted, outcome.Order.Status)
	require.NotNil(t, outcome.Order.ProviderCaptureID)
	assert.Equal(t, "CAP-PAYPAL-1", *outcome.Order.ProviderCaptureID)

	stored := h.order(t, order.ID)
	assert.Equal(t, domain.OrderCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.NotNil(t, stored.SideEffectsAppliedAt)

	m, err := h.memberships.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPro, m.Level)
	require.NotNil(t, m.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), *m.ExpiresAt, time.Minute)
	firstExpiry := *m.ExpiresAt

	again, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.True(t, again.AlreadyCompleted)

	m, err = h.memberships.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, firstExpiry, *m.ExpiresAt)

	txns := h.transactions(t, order.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.TransactionCompleted, txns[0].Status)
	assert.Equal(t, 1, h.gateway.Captures())
	assert.Equal(t, 1, h.publisher.count(application.OrderEventCompleted))
}

func TestCapture_ConcurrentTriggers(t *testing.T) {
	serializers := map[string]application.OrderSerializer{
		"keyed serializer":      services.NewKeyedSerializer(),
		"compare-and-swap only": passthroughSerializer{},
	}

	for name, serializer := range serializers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, withSerializer(serializer))
			h.gateway.CaptureDelay = 100 * time.Millisecond

			order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", 1, 30), "PAYPAL-RACE")
			h.gateway.ExpectCaptureSuccess("PAYPAL-RACE").Once()

			const triggers = 8
			var wg sync.WaitGroup
			errs := make(chan error, triggers)
			outcomes := make(chan *services.CaptureOutcome, triggers)

			for i := 0; i < triggers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					cmd := clientCapture(order)
					if i%2 == 1 {
						cmd = services.CaptureCommand{ProviderOrderID: "PAYPAL-RACE", Source: application.CaptureSourceWebhook}
					}
					outcome, err := h.captureService.Capture(ctx, cmd)
					if err != nil {
						errs <- err
						return
					}
					outcomes <- outcome
				}(i)
			}
			wg.Wait()
			close(errs)
			close(outcomes)

			for err := range errs {
				t.Errorf("unexpected capture error: %v", err)
			}
			fresh := 0
			for outcome := range outcomes {
				assert.True(t, outcome.Success)
				if !outcome.AlreadyCompleted {
					fresh++
				}
			}
			assert.Equal(t, 1, fresh)

			assert.Equal(t, domain.OrderCompleted, h.order(t, order.ID).Status)
			assert.Equal(t, 1, countByStatus(h.transactions(t, order.ID), domain.TransactionCompleted))
			assert.Equal(t, 1, h.gateway.Captures())

			m, err := h.memberships.FindByUserID(ctx, "user-1")
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *m.ExpiresAt, time.Minute)
		})
	}
}

func TestCapture_ExpiredOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order := h.seedOrder(t, "user-1", "PAYPAL-OLD", domain.OrderPending, time.Now().Add(-time.Hour))

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.Error(t, err)
	assert.True(t, application.IsErrorCode(err, application.ErrCodeOrderExpired))

	assert.Equal(t, domain.OrderCancelled, h.order(t, order.ID).Status)
	assert.Empty(t, h.transactions(t, order.ID))
	assert.Equal(t, 0, h.gateway.Captures())
	assert.Equal(t, 1, h.publisher.count(application.OrderEventCancelled))

	_, err = h.captureService.Capture(ctx, clientCapture(order))
	assert.True(t, application.IsErrorCode(err, application.ErrCodeOrderExpired))
}

func TestCapture_Declined(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", 2, 365), "PAYPAL-DECLINE")
	h.gateway.On("CapturePayment", mock.Anything, "PAYPAL-DECLINE").
		Return(testhelpers.CaptureDeclined(), nil).
		Once()

	outcome, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "INSTRUMENT_DECLINED", outcome.ErrorCode)

	stored := h.order(t, order.ID)
	assert.Equal(t, domain.OrderFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)

	txns := h.transactions(t, order.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.TransactionFailed, txns[0].Status)
	require.NotNil(t, txns[0].ErrorCode)
	assert.Equal(t, "INSTRUMENT_DECLINED", *txns[0].ErrorCode)

	m, err := h.memberships.FindByUserID(ctx, "user-1")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	again, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Equal(t, application.ErrCodeCaptureFailed, again.ErrorCode)
	assert.Equal(t, 1, h.gateway.Captures())
}

func TestCapture_GatewayUnavailableThenRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order := h.createOrder(t, testhelpers.DepositCommand("user-1"), "PAYPAL-FLAKY")
	h.gateway.On("CapturePayment", mock.Anything, "PAYPAL-FLAKY").
		Return(nil, &application.GatewayError{Operation: "capture", Err: errors.New("connection reset")}).
		Once()

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.Error(t, err)
	assert.True(t, application.IsErrorCode(err, application.ErrCodeGatewayUnavailable))
	assert.True(t, application.IsRetryable(err))

	stored := h.order(t, order.ID)
	assert.Equal(t, domain.OrderProcessing, stored.Status)
	require.NotNil(t, stored.ErrorMessage)

	txns := h.transactions(t, order.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.TransactionFailed, txns[0].Status)
	assert.Equal(t, domain.TxnErrorGatewayUnavailable, *txns[0].ErrorCode)

	h.gateway.ExpectCaptureSuccess("PAYPAL-FLAKY").Once()

	outcome, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Nil(t, outcome.Order.ErrorMessage)

	txns = h.transactions(t, order.ID)
	assert.Len(t, txns, 2)
	assert.Equal(t, 1, countByStatus(txns, domain.TransactionCompleted))

	m, err := h.memberships.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelFree, m.Level)
	assert.True(t, m.DepositPaid.Equal(decimal.RequireFromString("50.00")))
}

func TestCapture_Ownership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", 1, 30), "PAYPAL-OWN")

	t.Run("other user", func(t *testing.T) {
		cmd := clientCapture(order)
		cmd.UserID = "user-2"
		_, err := h.captureService.Capture(ctx, cmd)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeUnauthorized))
	})

	t.Run("unknown provider order", func(t *testing.T) {
		cmd := clientCapture(order)
		cmd.ProviderOrderID = "PAYPAL-NOPE"
		_, err := h.captureService.Capture(ctx, cmd)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeOrderNotFound))
	})

	t.Run("provider order of another order", func(t *testing.T) {
		cmd := clientCapture(order)
		cmd.OrderID = "some-other-order"
		_, err := h.captureService.Capture(ctx, cmd)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeOrderNotFound))
	})

	t.Run("missing provider order id", func(t *testing.T) {
		_, err := h.captureService.Capture(ctx, services.CaptureCommand{Source: application.CaptureSourceClient})
		assert.True(t, application.IsErrorCode(err, application.ErrCodeInvalidOrderRequest))
	})

	assert.Equal(t, domain.OrderPending, h.order(t, order.ID).Status)
	assert.Equal(t, 0, h.gateway.Captures())
}

func TestCapture_InFlightElsewhere(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSettings(func(c *config.OrdersConfig) {
		c.CaptureWaitTimeout = 500 * time.Millisecond
	}))

	order := h.seedOrder(t, "user-1", "PAYPAL-BUSY", domain.OrderProcessing, time.Now())

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.Error(t, err)
	assert.True(t, application.IsErrorCode(err, application.ErrCodeCaptureInProgress))
	assert.Equal(t, 0, h.gateway.Captures())
}

func TestCapture_CallerDeadlineReportsInProgress(t *testing.T) {
	h := newHarness(t)

	order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", 2, 365), "PAYPAL-SLOW")
	h.gateway.ExpectCaptureSuccess("PAYPAL-SLOW").After(300 * time.Millisecond).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.Error(t, err)
	assert.True(t, application.IsErrorCode(err, application.ErrCodeCaptureInProgress))
	assert.True(t, application.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Eventually(t, func() bool {
		return h.order(t, order.ID).Status == domain.OrderCompleted
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCapture_SideEffectFailureKeepsOrderCompleted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withMembershipService(failingMemberships{}))

	order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", 3, 365), "PAYPAL-SE")
	h.gateway.ExpectCaptureSuccess("PAYPAL-SE").Once()

	outcome, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)
	assert.True(t, outcome.Success)

	stored := h.order(t, order.ID)
	assert.Equal(t, domain.OrderCompleted, stored.Status)
	assert.Nil(t, stored.SideEffectsAppliedAt)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("captures approved order stuck in processing", func(t *testing.T) {
		h := newHarness(t)
		order := h.seedOrder(t, "user-1", "PAYPAL-STUCK", domain.OrderProcessing, time.Now().Add(-10*time.Minute))

		h.gateway.On("GetRemoteOrder", mock.Anything, "PAYPAL-STUCK").
			Return(&application.RemoteOrder{ID: "PAYPAL-STUCK", Status: application.RemoteStatusApproved}, nil).
			Once()
		h.gateway.ExpectCaptureSuccess("PAYPAL-STUCK").Once()

		outcome, err := h.captureService.Reconcile(ctx, order)
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.OrderCompleted, h.order(t, order.ID).Status)

		m, err := h.memberships.FindByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, domain.LevelPro, m.Level)
	})

	t.Run("leaves unapproved order alone", func(t *testing.T) {
		h := newHarness(t)
		order := h.seedOrder(t, "user-1", "PAYPAL-WAIT", domain.OrderProcessing, time.Now().Add(-10*time.Minute))

		h.gateway.On("GetRemoteOrder", mock.Anything, "PAYPAL-WAIT").
			Return(&application.RemoteOrder{ID: "PAYPAL-WAIT", Status: application.RemoteStatusCreated}, nil).
			Once()

		_, err := h.captureService.Reconcile(ctx, order)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeCaptureInProgress))
		assert.Equal(t, domain.OrderProcessing, h.order(t, order.ID).Status)
		assert.Equal(t, 0, h.gateway.Captures())
	})
}

type failingMemberships struct{}

var errMembershipsDown = errors.New("membership store unavailable")

func (failingMemberships) ApplyPlan(ctx context.Context, orderID, userID string, renew bool, level domain.MembershipLevel, days int) (*domain.Membership, error) {
	return nil, errMembershipsDown
}

func (failingMemberships) PayDeposit(ctx context.Context, orderID, userID string, amount decimal.Decimal) (*domain.Membership, error) {
	return nil, errMembershipsDown
}
