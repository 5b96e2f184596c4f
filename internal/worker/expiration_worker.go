package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/domain"
)

const expirationWorkerName = "expiration"

// ExpirationWorker cancels Pending orders whose approval window has closed.
type ExpirationWorker struct {
	orders    application.OrderStore
	publisher application.EventPublisher
	metrics   Metrics
	interval  time.Duration
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

func NewExpirationWorker(
	orders application.OrderStore,
	publisher application.EventPublisher,
	metrics Metrics,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *ExpirationWorker {
	return &ExpirationWorker{
		orders:    orders,
		publisher: publisher,
		metrics:   orNop(metrics),
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

func (w *ExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("expiration worker started", "interval", w.interval, "batch_size", w.batchSize)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiration worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps one batch and returns how many orders it cancelled.
func (w *ExpirationWorker) RunOnce(ctx context.Context) int {
	cancelled, err := w.processExpirations(ctx)
	w.metrics.WorkerRun(expirationWorkerName, err)
	if err != nil {
		w.logger.Error("expiration processing failed", "error", err)
	}
	return cancelled
}

func (w *ExpirationWorker) processExpirations(ctx context.Context) (int, error) {
	now := w.now()
	expired, err := w.orders.FindExpiredPending(ctx, now, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	var cancelled, skipped, failed int
	for _, order := range expired {
		next, err := services.TryTransition(ctx, w.orders, order, domain.OrderCancelled, now, nil)
		switch {
		case err == nil:
			cancelled++
			w.publish(ctx, application.NewOrderEvent(application.OrderEventCancelled, next, now))
		case errors.Is(err, domain.ErrStaleOrder), errors.Is(err, domain.ErrInvalidTransition):
			// a capture moved the order on since the query ran
			skipped++
		default:
			failed++
			w.logger.Error("failed to cancel expired order", "order_id", order.ID, "error", err)
		}
	}

	w.metrics.WorkerOrders(expirationWorkerName, "cancelled", cancelled)
	w.metrics.WorkerOrders(expirationWorkerName, "skipped", skipped)
	w.metrics.WorkerOrders(expirationWorkerName, "error", failed)
	w.logger.Info("processed expired orders",
		"found", len(expired),
		"cancelled", cancelled,
		"skipped", skipped,
		"failed", failed,
	)
	return cancelled, nil
}

func (w *ExpirationWorker) publish(ctx context.Context, event application.OrderEvent) {
	if err := w.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		w.logger.Warn("failed to publish order event", "event_type", event.Type, "order_id", event.OrderID, "error", err)
	}
}
