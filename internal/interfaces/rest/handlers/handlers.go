package handlers

import (
	"log/slog"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application/services"
)

// Handlers implements api.ServerInterface over the payment services.
type Handlers struct {
	orderService   *services.OrderService
	captureService *services.CaptureService
	webhookService *services.WebhookService
	doc            *api.Document
	deepLinkScheme string
	logger         *slog.Logger
}

func NewHandlers(
	orderService *services.OrderService,
	captureService *services.CaptureService,
	webhookService *services.WebhookService,
	doc *api.Document,
	deepLinkScheme string,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		orderService:   orderService,
		captureService: captureService,
		webhookService: webhookService,
		doc:            doc,
		deepLinkScheme: deepLinkScheme,
		logger:         logger,
	}
}

var _ api.ServerInterface = (*Handlers)(nil)
