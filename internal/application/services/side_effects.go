package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/domain"
)

// SideEffectApplier turns a Completed order into the membership change it paid for.
type SideEffectApplier struct {
	memberships application.MembershipService
	orders      application.OrderStore
	metrics     application.Metrics
	now         func() time.Time
	logger      *slog.Logger
}

func NewSideEffectApplier(
	memberships application.MembershipService,
	orders application.OrderStore,
	metrics application.Metrics,
	logger *slog.Logger,
) *SideEffectApplier {
	return &SideEffectApplier{
		memberships: memberships,
		orders:      orders,
		metrics:     metrics,
		now:         time.Now,
		logger:      logger,
	}
}

// Apply runs the order's side effect and stamps the order once it succeeded.
// Running it again for the same order is a no-op at the membership level.
func (a *SideEffectApplier) Apply(ctx context.Context, order *domain.Order) error {
	if order.Status != domain.OrderCompleted {
		return domain.NewInvalidStateError(order.Status, domain.OrderCompleted)
	}

	err := a.dispatch(ctx, order)
	a.metrics.SideEffectApplied(order.Type, err)
	if err != nil {
		return fmt.Errorf("apply %s for order %s: %w", order.Type, order.ID, err)
	}

	if err := a.orders.MarkSideEffectsApplied(ctx, order.ID, a.now()); err != nil {
		return fmt.Errorf("mark side effects applied for order %s: %w", order.ID, err)
	}
	return nil
}

func (a *SideEffectApplier) dispatch(ctx context.Context, order *domain.Order) error {
	switch order.Type {
	case domain.OrderTypeMembershipUpgrade, domain.OrderTypeMembershipRenew:
		if order.MembershipLevel == nil || order.DurationDays == nil {
			return domain.NewMissingRequiredFieldError("membership level")
		}
		renew := order.Type == domain.OrderTypeMembershipRenew
		_, err := a.memberships.ApplyPlan(ctx, order.ID, order.UserID, renew, *order.MembershipLevel, *order.DurationDays)
		return err

	case domain.OrderTypeModeratorDeposit:
		_, err := a.memberships.PayDeposit(ctx, order.ID, order.UserID, order.TotalAmount)
		return err
	}

	a.logger.Warn("no side effect for order type", "order_id", order.ID, "order_type", order.Type)
	return domain.NewUnsupportedOrderTypeError(order.Type)
}
