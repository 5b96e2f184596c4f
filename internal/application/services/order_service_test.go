package services_test

import (
	"context"
	"testing"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/application/services/testhelpers"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_Pricing(t *testing.T) {
	tests := []struct {
		name  string
		level int
		days  int
		want  string
	}{
		{name: "basic yearly", level: 1, days: 365, want: "49.99"},
		{name: "pro yearly", level: 2, days: 365, want: "99.99"},
		{name: "pro monthly", level: 2, days: 30, want: "9.99"},
		{name: "premium quarter", level: 3, days: 90, want: "59.97"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			order := h.createOrder(t, testhelpers.UpgradeCommand("user-1", tt.level, tt.days), "PAYPAL-PRICE")

			assert.Equal(t, tt.want, order.TotalAmount.StringFixed(2))
			assert.True(t, order.Amount.Equal(order.TotalAmount))
			assert.Equal(t, "USD", order.Currency)
			assert.Equal(t, domain.OrderPending, order.Status)
			assert.Equal(t, tt.days, *order.DurationDays)
			assert.Regexp(t, `^ORD\d{18}$`, order.OrderNumber)
		})
	}
}

func TestCreateOrder_Defaults(t *testing.T) {
	ctx := context.Background()

	t.Run("membership duration defaults to a year", func(t *testing.T) {
		h := newHarness(t)
		level := 2
		order := h.createOrder(t, services.CreateOrderCommand{
			UserID:          "user-1",
			OrderType:       string(domain.OrderTypeMembershipUpgrade),
			MembershipLevel: &level,
		}, "PAYPAL-DEFAULT")

		assert.Equal(t, domain.DefaultDurationDays, *order.DurationDays)
		assert.Equal(t, "99.99", order.TotalAmount.StringFixed(2))
	})

	t.Run("deposit uses configured amount", func(t *testing.T) {
		h := newHarness(t)
		order := h.createOrder(t, testhelpers.DepositCommand("user-1"), "PAYPAL-DEP")

		assert.Equal(t, "50.00", order.TotalAmount.StringFixed(2))
		assert.Nil(t, order.MembershipLevel)
	})

	t.Run("deposit honours requested amount", func(t *testing.T) {
		h := newHarness(t)
		cmd := testhelpers.DepositCommand("user-1")
		amount := decimal.RequireFromString("75.5")
		cmd.DepositAmount = &amount

		order := h.createOrder(t, cmd, "PAYPAL-DEP2")
		assert.Equal(t, "75.50", order.TotalAmount.StringFixed(2))
	})

	t.Run("remote order carries amount and reference", func(t *testing.T) {
		h := newHarness(t)
		h.gateway.On("CreateRemoteOrder", mock.Anything, mock.MatchedBy(func(req application.CreateRemoteOrderRequest) bool {
			return req.Amount.Value() == "99.99" && req.Amount.Currency == "USD" && req.ReferenceID != ""
		})).Return(&application.RemoteOrder{ID: "PAYPAL-REF", ApprovalURL: "https://paypal.test/approve"}, nil).Once()

		result, err := h.orderService.CreateOrder(ctx, testhelpers.UpgradeCommand("user-1", 2, 365))
		require.NoError(t, err)
		assert.Equal(t, "https://paypal.test/approve", result.ApprovalURL)
		assert.Equal(t, "PAYPAL-REF", *result.Order.ProviderOrderID)

		stored := h.order(t, result.Order.ID)
		assert.Equal(t, "PAYPAL-REF", *stored.ProviderOrderID)
	})
}

func TestCreateOrder_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	level, badLevel, shortDays := 2, 0, 29
	negative := decimal.RequireFromString("-5")

	tests := []struct {
		name string
		cmd  services.CreateOrderCommand
	}{
		{name: "missing user", cmd: services.CreateOrderCommand{OrderType: "moderator_deposit"}},
		{name: "unknown type", cmd: services.CreateOrderCommand{UserID: "user-1", OrderType: "gift_card"}},
		{name: "membership without level", cmd: services.CreateOrderCommand{UserID: "user-1", OrderType: "membership_upgrade"}},
		{name: "free level", cmd: services.CreateOrderCommand{UserID: "user-1", OrderType: "membership_upgrade", MembershipLevel: &badLevel}},
		{name: "too short", cmd: services.CreateOrderCommand{UserID: "user-1", OrderType: "membership_renew", MembershipLevel: &level, DurationDays: &shortDays}},
		{name: "negative deposit", cmd: services.CreateOrderCommand{UserID: "user-1", OrderType: "moderator_deposit", DepositAmount: &negative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.orderService.CreateOrder(ctx, tt.cmd)
			require.Error(t, err)
			assert.True(t, application.IsErrorCode(err, application.ErrCodeInvalidOrderRequest), "got %v", err)

			total, err := h.orders.CountByUserID(ctx, "user-1")
			require.NoError(t, err)
			assert.Zero(t, total)
		})
	}
}

func TestCreateOrder_GatewayDown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.gateway.On("CreateRemoteOrder", mock.Anything, mock.Anything).
		Return(nil, &application.GatewayError{Operation: "create order", StatusCode: 503, Message: "unavailable"}).
		Once()

	_, err := h.orderService.CreateOrder(ctx, testhelpers.DepositCommand("user-1"))
	require.Error(t, err)
	assert.True(t, application.IsErrorCode(err, application.ErrCodeGatewayUnavailable))

	page, err := h.orderService.ListOrders(ctx, "user-1", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, domain.OrderPending, page.Orders[0].Status)
	assert.Nil(t, page.Orders[0].ProviderOrderID)
}

func TestOrderQueries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := h.createOrder(t, testhelpers.DepositCommand("user-1"), "PAYPAL-Q1")
	h.createOrder(t, testhelpers.UpgradeCommand("user-1", 1, 30), "PAYPAL-Q2")
	h.createOrder(t, testhelpers.DepositCommand("user-2"), "PAYPAL-Q3")

	t.Run("get own order", func(t *testing.T) {
		order, err := h.orderService.GetOrder(ctx, "user-1", first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.OrderNumber, order.OrderNumber)
	})

	t.Run("get foreign order", func(t *testing.T) {
		_, err := h.orderService.GetOrder(ctx, "user-2", first.ID)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeUnauthorized))
	})

	t.Run("get missing order", func(t *testing.T) {
		_, err := h.orderService.GetOrder(ctx, "user-1", "missing")
		assert.True(t, application.IsErrorCode(err, application.ErrCodeOrderNotFound))
	})

	t.Run("list pages", func(t *testing.T) {
		page, err := h.orderService.ListOrders(ctx, "user-1", 1, 1)
		require.NoError(t, err)
		assert.Len(t, page.Orders, 1)
		assert.Equal(t, 2, page.Total)

		page, err = h.orderService.ListOrders(ctx, "user-1", 0, 500)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, services.MaxPageSize, page.PageSize)
		assert.Len(t, page.Orders, 2)
	})

	t.Run("transactions of a fresh order", func(t *testing.T) {
		txns, err := h.orderService.ListTransactions(ctx, "user-1", first.ID)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order", func(t *testing.T) {
		h := newHarness(t)
		order := h.createOrder(t, testhelpers.DepositCommand("user-1"), "PAYPAL-C1")

		cancelled, err := h.orderService.CancelOrder(ctx, "user-1", order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderCancelled, cancelled.Status)
		assert.Equal(t, 1, h.publisher.count(application.OrderEventCancelled))

		_, err = h.captureService.Capture(ctx, clientCapture(order))
		assert.True(t, application.IsErrorCode(err, application.ErrCodeOrderExpired))
	})

	t.Run("completed order", func(t *testing.T) {
		h := newHarness(t)
		order := h.createOrder(t, testhelpers.DepositCommand("user-1"), "PAYPAL-C2")
		h.gateway.ExpectCaptureSuccess("PAYPAL-C2").Once()
		_, err := h.captureService.Capture(ctx, clientCapture(order))
		require.NoError(t, err)

		_, err = h.orderService.CancelOrder(ctx, "user-1", order.ID)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeInvalidState))
		assert.Equal(t, domain.OrderCompleted, h.order(t, order.ID).Status)
	})

	t.Run("foreign order", func(t *testing.T) {
		h := newHarness(t)
		order := h.createOrder(t, testhelpers.DepositCommand("user-1"), "PAYPAL-C3")

		_, err := h.orderService.CancelOrder(ctx, "user-2", order.ID)
		assert.True(t, application.IsErrorCode(err, application.ErrCodeUnauthorized))
	})
}

func TestCreateOrder_RetriesOrderNumberCollision(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	collisions := 0
	store := &collidingOrderStore{OrderStore: h.orders, collide: func() bool {
		collisions++
		return collisions == 1
	}}
	svc, err := services.NewOrderService(store, h.txns, nil, h.gateway, h.publisher,
		application.NopMetrics{}, testhelpers.DefaultOrdersConfig(), testhelpers.DiscardLogger())
	require.NoError(t, err)

	h.gateway.ExpectCreate("PAYPAL-COLLIDE").Once()
	result, err := svc.CreateOrder(ctx, testhelpers.DepositCommand("user-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, collisions)
	assert.NotEmpty(t, result.Order.OrderNumber)
}

type collidingOrderStore struct {
	application.OrderStore
	collide func() bool
}

func (s *collidingOrderStore) Create(ctx context.Context, order *domain.Order) error {
	if s.collide() {
		return domain.ErrDuplicateOrderNumber
	}
	return s.OrderStore.Create(ctx, order)
}
