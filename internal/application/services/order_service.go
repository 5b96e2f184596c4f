package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const orderNumberAttempts = 3

// OrderService creates orders and serves the owner scoped reads and cancellation.
type OrderService struct {
	orders         application.OrderStore
	txns           application.TransactionStore
	plans          application.PlanStore
	gateway        application.GatewayClient
	publisher      application.EventPublisher
	metrics        application.Metrics
	numbers        *domain.OrderNumberGenerator
	settings       config.OrdersConfig
	defaultDeposit decimal.Decimal
	validate       *validator.Validate
	now            func() time.Time
	logger         *slog.Logger
}

func NewOrderService(
	orders application.OrderStore,
	txns application.TransactionStore,
	plans application.PlanStore,
	gateway application.GatewayClient,
	publisher application.EventPublisher,
	metrics application.Metrics,
	settings config.OrdersConfig,
	logger *slog.Logger,
) (*OrderService, error) {
	numbers, err := domain.NewOrderNumberGenerator()
	if err != nil {
		return nil, err
	}
	deposit, err := settings.DepositAmount()
	if err != nil {
		return nil, err
	}
	return &OrderService{
		orders:         orders,
		txns:           txns,
		plans:          plans,
		gateway:        gateway,
		publisher:      publisher,
		metrics:        metrics,
		numbers:        numbers,
		settings:       settings,
		defaultDeposit: deposit,
		validate:       validator.New(),
		now:            time.Now,
		logger:         logger,
	}, nil
}

// CreateOrder prices the request, stores a Pending order and opens the matching remote order.
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, application.NewInvalidOrderRequestError(err)
	}

	q, err := s.quote(ctx, cmd)
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, application.NewInvalidOrderRequestError(err)
		}
		return nil, application.NewInternalError(err)
	}

	order, err := s.persistNewOrder(ctx, cmd.UserID, q)
	if err != nil {
		return nil, err
	}

	remote, err := s.gateway.CreateRemoteOrder(ctx, application.CreateRemoteOrderRequest{
		Amount:      q.price,
		Description: q.description,
		ReferenceID: order.OrderNumber,
	})
	if err != nil {
		s.logger.Error("failed to create remote order",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"error", err,
		)
		return nil, application.NewGatewayUnavailableError(err)
	}

	linked := order.Clone()
	if err := linked.AttachProviderOrder(remote.ID, s.now()); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := s.orders.CompareAndSwap(ctx, linked); err != nil {
		if errors.Is(err, domain.ErrStaleOrder) {
			return nil, application.NewInvalidStateError(err)
		}
		return nil, application.NewInternalError(fmt.Errorf("link provider order: %w", err))
	}

	s.metrics.OrderCreated(linked.Type)
	s.logger.Info("order created",
		"order_id", linked.ID,
		"order_number", linked.OrderNumber,
		"order_type", linked.Type,
		"amount", linked.TotalAmount.StringFixed(2),
		"provider_order_id", remote.ID,
	)

	return &CreateOrderResult{Order: linked, ApprovalURL: remote.ApprovalURL}, nil
}

func (s *OrderService) persistNewOrder(ctx context.Context, userID string, q *priceQuote) (*domain.Order, error) {
	for attempt := 1; ; attempt++ {
		now := s.now()
		order, err := domain.NewOrder(
			uuid.New().String(),
			s.numbers.Next(now),
			userID,
			q.orderType,
			q.price,
			q.level,
			q.durationDays,
			now,
			s.settings.TTL,
		)
		if err != nil {
			return nil, application.NewInvalidOrderRequestError(err)
		}

		err = s.orders.Create(ctx, order)
		if err == nil {
			return order, nil
		}
		if errors.Is(err, domain.ErrDuplicateOrderNumber) && attempt < orderNumberAttempts {
			continue
		}
		return nil, application.NewInternalError(fmt.Errorf("create order: %w", err))
	}
}

// GetOrder returns an order to its owner.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, application.NewOrderNotFoundError(orderID)
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if !order.OwnedBy(userID) {
		return nil, application.NewUnauthorizedError()
	}
	return order, nil
}

// ListOrders pages through a user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page, pageSize int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	orders, err := s.orders.FindByUserID(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	total, err := s.orders.CountByUserID(ctx, userID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	return &OrderPage{Orders: orders, Page: page, PageSize: pageSize, Total: total}, nil
}

// ListTransactions returns the capture attempts recorded for an order.
func (s *OrderService) ListTransactions(ctx context.Context, userID, orderID string) ([]*domain.PaymentTransaction, error) {
	if _, err := s.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	txns, err := s.txns.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return txns, nil
}

// CancelOrder cancels a Pending order on behalf of its owner.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderPending {
		return nil, application.NewInvalidStateError(domain.NewInvalidStateError(order.Status, domain.OrderPending))
	}

	now := s.now()
	cancelled, err := TryTransition(ctx, s.orders, order, domain.OrderCancelled, now, nil)
	if err != nil {
		if errors.Is(err, domain.ErrStaleOrder) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, application.NewInvalidStateError(err)
		}
		return nil, application.NewInternalError(err)
	}

	publish(ctx, s.publisher, s.logger, application.NewOrderEvent(application.OrderEventCancelled, cancelled, now))
	s.logger.Info("order cancelled", "order_id", cancelled.ID, "user_id", userID)
	return cancelled, nil
}

// publish is best effort: a broker outage never fails a payment.
func publish(ctx context.Context, publisher application.EventPublisher, logger *slog.Logger, event application.OrderEvent) {
	if err := publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("failed to publish order event",
			"event_type", event.Type,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}
