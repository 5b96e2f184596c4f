package application

import (
	"context"

	"github.com/gonomads/payment-service/internal/domain"
)

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

type NopMetrics struct{}

func (NopMetrics) OrderCreated(domain.OrderType) {}
func (NopMetrics) CaptureFinished(CaptureSource, string) {}
func (NopMetrics) SideEffectApplied(domain.OrderType, error) {}
func (NopMetrics) WebhookReceived(string, string) {}
