package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
)

// UserIDHeader carries the caller identity injected by the upstream API gateway.
const UserIDHeader = "X-User-Id"

// WriteError maps application errors to the error envelope. Internal failures keep their
// detail in the log only.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	message := err.Error()
	if svcErr, ok := application.IsServiceError(err); ok {
		message = svcErr.Message
	}
	if statusCode >= http.StatusInternalServerError && statusCode != http.StatusServiceUnavailable {
		logger.Error("request failed", "code", errorCode, "error", err)
		message = "internal server error"
	}

	WriteJSON(w, statusCode, NewErrorResponse(errorCode, message))
}

// WriteBadRequest answers malformed input that never reached a service.
func WriteBadRequest(w http.ResponseWriter, err error) {
	WriteJSON(w, http.StatusBadRequest, NewErrorResponse(application.ErrCodeInvalidOrderRequest, err.Error()))
}

// ParamErrorHandler answers parameter binding failures of the generated router. A missing
// or empty caller header is an authentication failure, not a bad request.
func ParamErrorHandler(logger *slog.Logger) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var missing *api.RequiredHeaderError
		if errors.As(err, &missing) && missing.ParamName == UserIDHeader {
			WriteError(w, application.NewUnauthenticatedError(), logger)
			return
		}
		var invalid *api.InvalidParamFormatError
		if errors.As(err, &invalid) && invalid.ParamName == UserIDHeader {
			WriteError(w, application.NewUnauthenticatedError(), logger)
			return
		}
		WriteBadRequest(w, err)
	}
}

func NewErrorResponse(code, message string) api.ErrorResponse {
	resp := api.ErrorResponse{Success: false, Message: &message}
	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
