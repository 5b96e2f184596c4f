package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/domain"
)

// Webhook outcomes reported to metrics.
const (
	webhookProcessed = "processed"
	webhookDuplicate = "duplicate"
	webhookIgnored   = "ignored"
	webhookRejected  = "rejected"
	webhookFailed    = "failed"
)

type webhookEnvelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  webhookResource `json:"resource"`
}

type webhookResource struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// providerOrderID prefers the checkout order a capture belongs to over the capture id itself.
func (r webhookResource) providerOrderID() string {
	if r.SupplementaryData.RelatedIDs.OrderID != "" {
		return r.SupplementaryData.RelatedIDs.OrderID
	}
	return r.ID
}

// WebhookAck is what the provider gets back for an accepted event.
type WebhookAck struct {
	EventID   string
	EventType string
	Duplicate bool
	Message   string
}

// WebhookService authenticates provider events and feeds capture notifications into the
// same capture path the client uses.
type WebhookService struct {
	gateway   application.GatewayClient
	events    application.WebhookEventStore
	capture   *CaptureService
	metrics   application.Metrics
	webhookID string
	now       func() time.Time
	logger    *slog.Logger
}

func NewWebhookService(
	gateway application.GatewayClient,
	events application.WebhookEventStore,
	capture *CaptureService,
	metrics application.Metrics,
	webhookID string,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		gateway:   gateway,
		events:    events,
		capture:   capture,
		metrics:   metrics,
		webhookID: webhookID,
		now:       time.Now,
		logger:    logger,
	}
}

// Handle processes one delivery. An error means the provider should see a non-2xx answer:
// a bad signature or body is final, anything else asks for redelivery.
func (s *WebhookService) Handle(ctx context.Context, headers http.Header, body []byte) (*WebhookAck, error) {
	verified := s.webhookID == ""
	if !verified {
		if !s.gateway.VerifyWebhookSignature(ctx, headers, body) {
			s.logger.Warn("webhook signature rejected",
				"transmission_id", headers.Get("PAYPAL-TRANSMISSION-ID"),
				"cert_url", headers.Get("PAYPAL-CERT-URL"),
			)
			s.metrics.WebhookReceived("", webhookRejected)
			return nil, application.NewWebhookSignatureInvalidError()
		}
		verified = true
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.metrics.WebhookReceived("", webhookRejected)
		return nil, application.NewInvalidWebhookPayloadError(err)
	}
	if envelope.EventType == "" {
		s.metrics.WebhookReceived("", webhookRejected)
		return nil, application.NewInvalidWebhookPayloadError(domain.NewMissingRequiredFieldError("event_type"))
	}

	eventID := envelope.ID
	if eventID == "" {
		sum := sha256.Sum256(body)
		eventID = "sha256:" + hex.EncodeToString(sum[:])
	}

	stored, created, err := s.events.Record(ctx, &domain.WebhookEvent{
		EventID:         eventID,
		EventType:       envelope.EventType,
		ResourceID:      envelope.Resource.ID,
		ProviderOrderID: envelope.Resource.providerOrderID(),
		Payload:         body,
		SignatureValid:  verified,
		ReceivedAt:      s.now().UTC(),
	})
	if err != nil {
		s.metrics.WebhookReceived(envelope.EventType, webhookFailed)
		return nil, application.NewInternalError(fmt.Errorf("record webhook event: %w", err))
	}
	if !created && stored.Processed() {
		s.logger.Info("duplicate webhook acknowledged", "event_id", eventID, "event_type", envelope.EventType)
		s.metrics.WebhookReceived(envelope.EventType, webhookDuplicate)
		return &WebhookAck{EventID: eventID, EventType: envelope.EventType, Duplicate: true, Message: "already processed"}, nil
	}

	message, outcome, err := s.dispatch(ctx, eventID, envelope)
	if err != nil {
		if markErr := s.events.MarkFailed(context.WithoutCancel(ctx), eventID, err.Error()); markErr != nil {
			s.logger.Error("failed to mark webhook event failed", "event_id", eventID, "error", markErr)
		}
		s.metrics.WebhookReceived(envelope.EventType, webhookFailed)
		return nil, err
	}

	if err := s.events.MarkProcessed(context.WithoutCancel(ctx), eventID, s.now()); err != nil {
		s.logger.Error("failed to mark webhook event processed", "event_id", eventID, "error", err)
	}
	s.metrics.WebhookReceived(envelope.EventType, outcome)
	return &WebhookAck{EventID: eventID, EventType: envelope.EventType, Message: message}, nil
}

func (s *WebhookService) dispatch(ctx context.Context, eventID string, envelope webhookEnvelope) (string, string, error) {
	switch envelope.EventType {
	case domain.EventPaymentCaptureCompleted:
		return s.captureCompleted(ctx, eventID, envelope.Resource)

	case domain.EventCheckoutOrderApproved:
		s.logger.Info("checkout order approved", "event_id", eventID, "provider_order_id", envelope.Resource.ID)
		return "acknowledged", webhookIgnored, nil

	case domain.EventPaymentCaptureDenied, domain.EventPaymentCaptureRefunded:
		s.logger.Warn("capture notification needs attention",
			"event_id", eventID,
			"event_type", envelope.EventType,
			"resource_id", envelope.Resource.ID,
			"provider_order_id", envelope.Resource.providerOrderID(),
		)
		return "acknowledged", webhookIgnored, nil
	}

	s.logger.Debug("unhandled webhook event type", "event_id", eventID, "event_type", envelope.EventType)
	return "acknowledged", webhookIgnored, nil
}

func (s *WebhookService) captureCompleted(ctx context.Context, eventID string, resource webhookResource) (string, string, error) {
	providerOrderID := resource.providerOrderID()
	if providerOrderID == "" {
		s.logger.Warn("capture webhook without order reference", "event_id", eventID)
		return "missing order reference", webhookIgnored, nil
	}

	outcome, err := s.capture.Capture(ctx, CaptureCommand{
		ProviderOrderID: providerOrderID,
		Source:          application.CaptureSourceWebhook,
	})
	if err != nil {
		switch {
		case application.IsErrorCode(err, application.ErrCodeOrderNotFound),
			application.IsErrorCode(err, application.ErrCodeOrderExpired),
			application.IsErrorCode(err, application.ErrCodeInvalidState):
			s.logger.Warn("capture webhook not applicable",
				"event_id", eventID,
				"provider_order_id", providerOrderID,
				"error", err,
			)
			return err.Error(), webhookIgnored, nil
		}
		return "", "", err
	}

	if !outcome.Success {
		s.logger.Warn("capture webhook for failed order",
			"event_id", eventID,
			"order_id", outcome.Order.ID,
			"message", outcome.Message,
		)
		return outcome.Message, webhookProcessed, nil
	}
	if outcome.AlreadyCompleted {
		s.logger.Info("capture webhook for completed order", "event_id", eventID, "order_id", outcome.Order.ID)
	}
	return outcome.Message, webhookProcessed, nil
}
