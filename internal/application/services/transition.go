package services

import (
	"context"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/domain"
)

// TryTransition moves a copy of current to target, lets mutate fill in the target state's
// fields and persists it with a compare-and-swap on the version current was read at.
// current is left untouched; a lost race surfaces as domain.ErrStaleOrder.
func TryTransition(
	ctx context.Context,
	orders application.OrderStore,
	current *domain.Order,
	target domain.OrderStatus,
	now time.Time,
	mutate func(o *domain.Order),
) (*domain.Order, error) {
	next := current.Clone()
	if err := next.TransitionTo(target, now); err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(next)
	}
	if err := orders.CompareAndSwap(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
