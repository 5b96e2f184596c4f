package lock

import (
	"context"

	"github.com/gonomads/payment-service/internal/application"
)

type inflightGauge interface {
	SerializerEnter()
	SerializerLeave()
}

// Observed reports how many captures are waiting on or holding a lock.
type Observed struct {
	inner application.OrderSerializer
	gauge inflightGauge
}

func NewObserved(inner application.OrderSerializer, gauge inflightGauge) *Observed {
	return &Observed{inner: inner, gauge: gauge}
}

func (o *Observed) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	o.gauge.SerializerEnter()
	defer o.gauge.SerializerLeave()
	return o.inner.Do(ctx, key, fn)
}
