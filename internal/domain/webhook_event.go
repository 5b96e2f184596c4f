package domain

import "time"

// Provider event types the service reacts to.
const (
	EventCheckoutOrderApproved   = "CHECKOUT.ORDER.APPROVED"
	EventPaymentCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventPaymentCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventPaymentCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
)

// WebhookEvent is a provider notification as it was received, kept for dedupe and audit.
type WebhookEvent struct {
	EventID         string
	EventType       string
	ResourceID      string
	ProviderOrderID string
	Payload         []byte
	SignatureValid  bool
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
	ProcessingError *string
}

func (e *WebhookEvent) Processed() bool {
	return e.ProcessedAt != nil
}
