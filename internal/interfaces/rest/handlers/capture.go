package handlers

import (
	"net/http"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/interfaces/rest"
)

func (h *Handlers) CaptureOrder(w http.ResponseWriter, r *http.Request, orderID api.OrderID, params api.CaptureOrderParams) {
	userID, ok := h.caller(w, params.XUserId)
	if !ok {
		return
	}

	var req api.CaptureOrderRequest
	if !h.decodeBody(w, r, "CaptureOrderRequest", &req) {
		return
	}

	outcome, err := h.captureService.Capture(r.Context(), services.CaptureCommand{
		ProviderOrderID: req.ProviderOrderId,
		OrderID:         string(orderID),
		UserID:          userID,
		Source:          application.CaptureSourceClient,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	if !outcome.Success {
		// a declined payment still carries the order so the app can show its state
		resp := rest.NewErrorResponse(application.ErrCodeCaptureFailed, outcome.Message)
		order := rest.ToAPIOrder(outcome.Order)
		resp.Data = &order
		rest.WriteJSON(w, http.StatusPaymentRequired, resp)
		return
	}

	message := "payment completed"
	if outcome.AlreadyCompleted {
		message = "payment already completed"
	}
	h.writeOrder(w, http.StatusOK, message, outcome.Order)
}
