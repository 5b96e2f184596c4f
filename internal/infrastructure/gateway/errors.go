package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/gonomads/payment-service/internal/application"
)

// Provider issue codes with special handling.
const (
	issueOrderAlreadyCaptured = "ORDER_ALREADY_CAPTURED"
	issueOrderNotApproved     = "ORDER_NOT_APPROVED"
)

func newGatewayError(operation string, status int, body []byte) *application.GatewayError {
	gwErr := &application.GatewayError{
		Operation:  operation,
		StatusCode: status,
		Code:       http.StatusText(status),
		Message:    string(body),
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if code := errResp.code(); code != "" {
			gwErr.Code = code
		}
		if msg := errResp.message(); msg != "" {
			gwErr.Message = msg
		}
	}
	return gwErr
}

// isDefinitiveDecline tells a capture the provider refused for good from one whose
// outcome is unknown. Credentials and rate limits are ours to fix, not the buyer's.
func isDefinitiveDecline(gwErr *application.GatewayError) bool {
	switch gwErr.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
