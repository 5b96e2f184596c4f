package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/interfaces/rest"
)

const maxWebhookBody = 1 << 20

// ReceiveProviderWebhook hands the raw body to the webhook service untouched, since the
// signature covers the exact bytes.
func (h *Handlers) ReceiveProviderWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		rest.WriteError(w, application.NewInvalidWebhookPayloadError(fmt.Errorf("read body: %w", err)), h.logger)
		return
	}

	ack, err := h.webhookService.Handle(r.Context(), r.Header, body)
	if err != nil {
		h.writeWebhookError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, api.WebhookAckResponse{
		Success: true,
		Message: rest.OptionalString(ack.Message),
		Data: &api.WebhookAck{
			EventId:   rest.OptionalString(ack.EventID),
			EventType: rest.OptionalString(ack.EventType),
			Duplicate: rest.Ptr(ack.Duplicate),
		},
	})
}

// writeWebhookError keeps rejections as 4xx and turns everything else into a 500 so the
// provider redelivers.
func (h *Handlers) writeWebhookError(w http.ResponseWriter, err error) {
	status := application.ToHTTPStatus(err)
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		rest.WriteError(w, err, h.logger)
		return
	}

	h.logger.Error("webhook processing failed", "code", application.ToErrorCode(err), "error", err)
	resp := rest.NewErrorResponse(application.ToErrorCode(err), "webhook processing failed, retry later")
	resp.Message = rest.Ptr("webhook processing failed")
	rest.WriteJSON(w, http.StatusInternalServerError, resp)
}
