package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/domain"
)

const reconcilerWorkerName = "reconciler"

type CaptureReconciler interface {
	Reconcile(ctx context.Context, order *domain.Order) (*services.CaptureOutcome, error)
}

type SideEffectApplier interface {
	Apply(ctx context.Context, order *domain.Order) error
}

// Reconciler finishes work a crash or an unknown gateway outcome left behind: captures
// stuck in Processing and Completed orders whose side effect never got stamped.
type Reconciler struct {
	orders         application.OrderStore
	capture        CaptureReconciler
	applier        SideEffectApplier
	metrics        Metrics
	interval       time.Duration
	batchSize      int
	reconcileAfter time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

func NewReconciler(
	orders application.OrderStore,
	capture CaptureReconciler,
	applier SideEffectApplier,
	metrics Metrics,
	interval time.Duration,
	batchSize int,
	reconcileAfter time.Duration,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		orders:         orders,
		capture:        capture,
		applier:        applier,
		metrics:        orNop(metrics),
		interval:       interval,
		batchSize:      batchSize,
		reconcileAfter: reconcileAfter,
		now:            time.Now,
		logger:         logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler",
		"interval", r.interval,
		"batch_size", r.batchSize,
		"reconcile_after", r.reconcileAfter,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	cutoff := r.now().Add(-r.reconcileAfter)

	err := r.reconcileStuckCaptures(ctx, cutoff)
	if err == nil {
		err = r.reapplySideEffects(ctx, cutoff)
	}
	r.metrics.WorkerRun(reconcilerWorkerName, err)
	if err != nil {
		r.logger.Error("reconciliation cycle failed", "error", err)
	}
}

func (r *Reconciler) reconcileStuckCaptures(ctx context.Context, cutoff time.Time) error {
	stuck, err := r.orders.FindStuckProcessing(ctx, cutoff, r.batchSize)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	r.logger.Info("reconciling stuck captures", "count", len(stuck))

	results := map[string]int{}
	for _, order := range stuck {
		outcome, err := r.capture.Reconcile(ctx, order)
		switch {
		case err == nil && outcome.Success:
			results["completed"]++
			r.logger.Info("reconciled stuck capture", "order_id", order.ID, "status", outcome.Order.Status)
		case err == nil:
			results["failed"]++
			r.logger.Warn("stuck capture ended declined", "order_id", order.ID, "message", outcome.Message)
		case application.IsErrorCode(err, application.ErrCodeCaptureInProgress):
			results["waiting"]++
		case application.IsErrorCode(err, application.ErrCodeOrderExpired):
			results["expired"]++
		default:
			results["error"]++
			r.logger.Error("reconciliation failed for order", "order_id", order.ID, "error", err)
		}
	}

	for result, n := range results {
		r.metrics.WorkerOrders(reconcilerWorkerName, "capture_"+result, n)
	}
	return nil
}

func (r *Reconciler) reapplySideEffects(ctx context.Context, cutoff time.Time) error {
	orders, err := r.orders.FindUnappliedCompleted(ctx, cutoff, r.batchSize)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	var applied, failed int
	for _, order := range orders {
		if err := r.applier.Apply(ctx, order); err != nil {
			failed++
			r.logger.Error("failed to re-apply side effect", "order_id", order.ID, "order_type", order.Type, "error", err)
			continue
		}
		applied++
		r.logger.Info("re-applied side effect", "order_id", order.ID, "order_type", order.Type)
	}

	r.metrics.WorkerOrders(reconcilerWorkerName, "side_effect_applied", applied)
	r.metrics.WorkerOrders(reconcilerWorkerName, "side_effect_error", failed)
	return nil
}
