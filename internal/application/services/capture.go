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
)

const (
	capturePollInterval = 200 * time.Millisecond
	maxStaleRetries     = 3
)

// Capture outcomes reported to metrics.
const (
	outcomeCompleted        = "completed"
	outcomeAlreadyCompleted = "already_completed"
	outcomeDeclined         = "declined"
	outcomeExpired          = "expired"
	outcomeUnavailable      = "gateway_unavailable"
	outcomeInProgress       = "in_progress"
	outcomeError            = "error"
)

// CaptureService drives an order from Pending to a terminal state. Client calls,
// webhooks and the reconciler all enter through Capture.
type CaptureService struct {
	orders     application.OrderStore
	txns       application.TransactionStore
	gateway    application.GatewayClient
	applier    *SideEffectApplier
	serializer application.OrderSerializer
	publisher  application.EventPublisher
	metrics    application.Metrics
	staleAfter time.Duration
	waitFor    time.Duration
	validate   *validator.Validate
	now        func() time.Time
	logger     *slog.Logger
}

func NewCaptureService(
	orders application.OrderStore,
	txns application.TransactionStore,
	gateway application.GatewayClient,
	applier *SideEffectApplier,
	serializer application.OrderSerializer,
	publisher application.EventPublisher,
	metrics application.Metrics,
	settings config.OrdersConfig,
	logger *slog.Logger,
) *CaptureService {
	return &CaptureService{
		orders:     orders,
		txns:       txns,
		gateway:    gateway,
		applier:    applier,
		serializer: serializer,
		publisher:  publisher,
		metrics:    metrics,
		staleAfter: settings.ProcessingStaleAfter,
		waitFor:    settings.CaptureWaitTimeout,
		validate:   validator.New(),
		now:        time.Now,
		logger:     logger,
	}
}

// Capture finalizes the payment for cmd.ProviderOrderID. Transitions for one provider
// order run one at a time, and the side effect runs only on the write that completes it.
func (s *CaptureService) Capture(ctx context.Context, cmd CaptureCommand) (*CaptureOutcome, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, application.NewInvalidOrderRequestError(err)
	}

	var outcome *CaptureOutcome
	err := s.serializer.Do(ctx, cmd.ProviderOrderID, func(ctx context.Context) error {
		var err error
		outcome, err = s.capture(ctx, cmd)
		return err
	})

	s.metrics.CaptureFinished(cmd.Source, outcomeLabel(outcome, err))
	if err != nil {
		// the caller gave up; the lane may still finish the capture, so a resubmit is safe
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			inProgress := application.NewCaptureInProgressError()
			inProgress.Err = err
			return nil, inProgress
		}
		if _, ok := application.IsServiceError(err); !ok {
			err = application.NewInternalError(err)
		}
		return nil, err
	}
	return outcome, nil
}

func (s *CaptureService) capture(ctx context.Context, cmd CaptureCommand) (*CaptureOutcome, error) {
	order, err := s.orders.FindByProviderOrderID(ctx, cmd.ProviderOrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, application.NewOrderNotFoundError(cmd.ProviderOrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("load order by provider id: %w", err)
	}
	if cmd.OrderID != "" && order.ID != cmd.OrderID {
		return nil, application.NewOrderNotFoundError(cmd.OrderID)
	}
	if cmd.UserID != "" && !order.OwnedBy(cmd.UserID) {
		return nil, application.NewUnauthorizedError()
	}

	return s.advance(ctx, order, cmd.Source)
}

// advance decides what the current state of order allows and acts on it, re-reading
// after every lost compare-and-swap.
func (s *CaptureService) advance(ctx context.Context, order *domain.Order, source application.CaptureSource) (*CaptureOutcome, error) {
	for attempt := 1; ; attempt++ {
		now := s.now()

		switch {
		case order.Status == domain.OrderCompleted:
			return &CaptureOutcome{Order: order, Success: true, AlreadyCompleted: true, Message: "payment already completed"}, nil

		case order.Status == domain.OrderFailed:
			return failedOutcome(order, application.ErrCodeCaptureFailed), nil

		case order.Status == domain.OrderCancelled:
			return nil, application.NewOrderExpiredError(order.ID)

		case order.IsExpired(now):
			cancelled, err := TryTransition(ctx, s.orders, order, domain.OrderCancelled, now, nil)
			if errors.Is(err, domain.ErrStaleOrder) {
				if order, err = s.reload(ctx, order.ID, attempt); err != nil {
					return nil, err
				}
				continue
			}
			if err != nil {
				return nil, err
			}
			s.logger.Info("order expired before capture", "order_id", order.ID, "source", source)
			publish(ctx, s.publisher, s.logger, application.NewOrderEvent(application.OrderEventCancelled, cancelled, now))
			return nil, application.NewOrderExpiredError(order.ID)

		case order.Status == domain.OrderProcessing && !s.abandoned(order, now):
			return s.awaitOutcome(ctx, order, source)
		}

		if order.ProviderOrderID == nil {
			return nil, application.NewInvalidStateError(domain.NewMissingRequiredFieldError("provider order id"))
		}

		processing, err := TryTransition(ctx, s.orders, order, domain.OrderProcessing, now, nil)
		if errors.Is(err, domain.ErrStaleOrder) {
			if order, err = s.reload(ctx, order.ID, attempt); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		return s.captureRemote(ctx, processing, source)
	}
}

// abandoned is true for a Processing order no trigger is working on anymore: its last
// attempt ended with an unknown outcome, or it has not been touched for staleAfter.
func (s *CaptureService) abandoned(order *domain.Order, now time.Time) bool {
	return order.ErrorMessage != nil || now.Sub(order.UpdatedAt) > s.staleAfter
}

func (s *CaptureService) reload(ctx context.Context, orderID string, attempt int) (*domain.Order, error) {
	if attempt >= maxStaleRetries {
		return nil, application.NewCaptureInProgressError()
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", orderID, err)
	}
	return order, nil
}

// awaitOutcome waits for the trigger that owns a Processing order to finish with it.
func (s *CaptureService) awaitOutcome(ctx context.Context, order *domain.Order, source application.CaptureSource) (*CaptureOutcome, error) {
	s.logger.Debug("capture already in flight, waiting", "order_id", order.ID, "source", source)

	waitCtx, cancel := context.WithTimeout(ctx, s.waitFor)
	defer cancel()

	ticker := time.NewTicker(capturePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return nil, application.NewCaptureInProgressError()
		case <-ticker.C:
			current, err := s.orders.FindByID(waitCtx, order.ID)
			if err != nil {
				if waitCtx.Err() != nil {
					return nil, application.NewCaptureInProgressError()
				}
				return nil, fmt.Errorf("poll order %s: %w", order.ID, err)
			}
			if current.Status != domain.OrderProcessing || s.abandoned(current, s.now()) {
				return s.advance(ctx, current, source)
			}
		}
	}
}

// captureRemote asks the gateway to capture a Processing order and records the verdict.
// Bookkeeping after the gateway call runs detached from the caller's cancellation so a
// dropped client connection cannot strand a captured payment.
func (s *CaptureService) captureRemote(ctx context.Context, order *domain.Order, source application.CaptureSource) (*CaptureOutcome, error) {
	txn, err := domain.NewPaymentTransaction(uuid.New().String(), order, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.txns.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}

	result, gwErr := s.gateway.CapturePayment(ctx, *order.ProviderOrderID)

	persistCtx := context.WithoutCancel(ctx)
	if gwErr != nil {
		return s.recordUnknownOutcome(persistCtx, order, txn, gwErr)
	}
	if !result.Success {
		return s.recordDecline(persistCtx, order, txn, result, source)
	}
	return s.recordSuccess(persistCtx, order, txn, result, source)
}

func (s *CaptureService) recordSuccess(
	ctx context.Context,
	order *domain.Order,
	txn *domain.PaymentTransaction,
	result *application.CaptureResult,
	source application.CaptureSource,
) (*CaptureOutcome, error) {
	now := s.now()
	completed, err := TryTransition(ctx, s.orders, order, domain.OrderCompleted, now, func(o *domain.Order) {
		o.RecordCapture(result.Details)
	})
	if errors.Is(err, domain.ErrStaleOrder) {
		s.failTransaction(ctx, txn, domain.TxnErrorSuperseded, "capture finalized by another trigger", result.RawResponse)
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("reload order %s: %w", order.ID, err)
		}
		return s.advance(ctx, current, source)
	}
	if err != nil {
		s.logger.Error("captured payment could not be recorded",
			"order_id", order.ID,
			"provider_order_id", *order.ProviderOrderID,
			"capture_id", result.Details.CaptureID,
			"error", err,
		)
		return nil, err
	}

	if err := txn.Complete(result.Details, now); err == nil {
		if err := s.txns.Update(ctx, txn); err != nil {
			s.logger.Error("failed to complete payment transaction", "transaction_id", txn.ID, "error", err)
		}
	}

	if err := s.applier.Apply(ctx, completed); err != nil {
		// the reconciler retries orders whose side effects were never stamped
		s.logger.Error("side effect failed for completed order",
			"order_id", completed.ID,
			"order_type", completed.Type,
			"error", err,
		)
	}

	publish(ctx, s.publisher, s.logger, application.NewOrderEvent(application.OrderEventCompleted, completed, now))
	s.logger.Info("payment captured",
		"order_id", completed.ID,
		"provider_order_id", *completed.ProviderOrderID,
		"capture_id", result.Details.CaptureID,
		"source", source,
	)

	return &CaptureOutcome{Order: completed, Success: true, Message: "payment completed"}, nil
}

func (s *CaptureService) recordDecline(
	ctx context.Context,
	order *domain.Order,
	txn *domain.PaymentTransaction,
	result *application.CaptureResult,
	source application.CaptureSource,
) (*CaptureOutcome, error) {
	now := s.now()
	message := result.ErrorMessage
	if message == "" {
		message = fmt.Sprintf("payment capture returned status %s", result.Status)
	}

	s.failTransaction(ctx, txn, result.ErrorCode, message, result.RawResponse)

	failed, err := TryTransition(ctx, s.orders, order, domain.OrderFailed, now, func(o *domain.Order) {
		o.RecordError(message, now)
	})
	if errors.Is(err, domain.ErrStaleOrder) {
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("reload order %s: %w", order.ID, err)
		}
		return s.advance(ctx, current, source)
	}
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, application.NewOrderEvent(application.OrderEventFailed, failed, now))
	s.logger.Warn("payment capture declined",
		"order_id", failed.ID,
		"provider_order_id", *failed.ProviderOrderID,
		"error_code", result.ErrorCode,
		"message", message,
		"source", source,
	)

	code := result.ErrorCode
	if code == "" {
		code = application.ErrCodeCaptureFailed
	}
	return failedOutcome(failed, code), nil
}

// recordUnknownOutcome keeps the order Processing: the capture may or may not have
// happened remotely, so the next trigger repeats the provider-idempotent capture.
func (s *CaptureService) recordUnknownOutcome(
	ctx context.Context,
	order *domain.Order,
	txn *domain.PaymentTransaction,
	gwErr error,
) (*CaptureOutcome, error) {
	now := s.now()
	s.failTransaction(ctx, txn, domain.TxnErrorGatewayUnavailable, gwErr.Error(), "")

	marked := order.Clone()
	marked.RecordError(gwErr.Error(), now)
	if err := s.orders.CompareAndSwap(ctx, marked); err != nil && !errors.Is(err, domain.ErrStaleOrder) {
		s.logger.Error("failed to record gateway error on order", "order_id", order.ID, "error", err)
	}

	s.logger.Warn("payment capture outcome unknown",
		"order_id", order.ID,
		"provider_order_id", *order.ProviderOrderID,
		"error", gwErr,
	)
	return nil, application.NewGatewayUnavailableError(gwErr)
}

func (s *CaptureService) failTransaction(ctx context.Context, txn *domain.PaymentTransaction, code, message, raw string) {
	if err := txn.Fail(code, message, raw, s.now()); err != nil {
		return
	}
	if err := s.txns.Update(ctx, txn); err != nil {
		s.logger.Error("failed to record failed payment transaction", "transaction_id", txn.ID, "error", err)
	}
}

func failedOutcome(order *domain.Order, code string) *CaptureOutcome {
	message := "payment capture failed"
	if order.ErrorMessage != nil {
		message = *order.ErrorMessage
	}
	return &CaptureOutcome{Order: order, Success: false, ErrorCode: code, Message: message}
}

func outcomeLabel(outcome *CaptureOutcome, err error) string {
	switch {
	case err != nil:
		switch {
		case application.IsErrorCode(err, application.ErrCodeOrderExpired):
			return outcomeExpired
		case application.IsErrorCode(err, application.ErrCodeGatewayUnavailable):
			return outcomeUnavailable
		case application.IsErrorCode(err, application.ErrCodeCaptureInProgress):
			return outcomeInProgress
		}
		return outcomeError
	case outcome.AlreadyCompleted:
		return outcomeAlreadyCompleted
	case outcome.Success:
		return outcomeCompleted
	}
	return outcomeDeclined
}

// Reconcile re-drives an order left in Processing. The gateway is asked first so orders
// the buyer never approved are not captured again.
func (s *CaptureService) Reconcile(ctx context.Context, order *domain.Order) (*CaptureOutcome, error) {
	if order.ProviderOrderID == nil {
		return nil, application.NewInvalidStateError(domain.NewMissingRequiredFieldError("provider order id"))
	}

	remote, err := s.gateway.GetRemoteOrder(ctx, *order.ProviderOrderID)
	if err != nil {
		return nil, application.NewGatewayUnavailableError(err)
	}
	switch remote.Status {
	case application.RemoteStatusCompleted, application.RemoteStatusApproved:
	default:
		s.logger.Info("remote order not capturable yet",
			"order_id", order.ID,
			"provider_order_id", *order.ProviderOrderID,
			"remote_status", remote.Status,
		)
		return nil, application.NewCaptureInProgressError()
	}

	return s.Capture(ctx, CaptureCommand{
		ProviderOrderID: *order.ProviderOrderID,
		OrderID:         order.ID,
		Source:          application.CaptureSourceReconciler,
	})
}
