package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidOrderRequest     = "INVALID_ORDER_REQUEST"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeUnauthenticated         = "UNAUTHENTICATED"
	ErrCodeOrderExpired            = "ORDER_EXPIRED"
	ErrCodeGatewayUnavailable      = "GATEWAY_UNAVAILABLE"
	ErrCodeCaptureFailed           = "CAPTURE_FAILED"
	ErrCodeCaptureInProgress       = "CAPTURE_IN_PROGRESS"
	ErrCodeWebhookSignatureInvalid = "WEBHOOK_SIGNATURE_INVALID"
	ErrCodeInvalidWebhookPayload   = "INVALID_WEBHOOK_PAYLOAD"
	ErrCodeInvalidState            = "INVALID_STATE"
	ErrCodeInternal                = "INTERNAL_ERROR"
	ErrCodeTimeout                 = "TIMEOUT"
)

func NewInvalidOrderRequestError(err error) *ServiceError {
	msg := "Invalid order request"
	if err != nil {
		msg = err.Error()
	}
	return &ServiceError{
		Code:       ErrCodeInvalidOrderRequest,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewOrderNotFoundError(ref string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderNotFound,
		Message:    fmt.Sprintf("order %s not found", ref),
		HTTPStatus: http.StatusNotFound,
	}
}

func NewUnauthorizedError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnauthorized,
		Message:    "order does not belong to the caller",
		HTTPStatus: http.StatusForbidden,
	}
}

func NewUnauthenticatedError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnauthenticated,
		Message:    "missing user identity",
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewOrderExpiredError(orderID string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderExpired,
		Message:    fmt.Sprintf("order %s expired", orderID),
		HTTPStatus: http.StatusConflict,
	}
}

func NewGatewayUnavailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGatewayUnavailable,
		Message:    "payment gateway unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewCaptureFailedError(message string) *ServiceError {
	if message == "" {
		message = "payment capture failed"
	}
	return &ServiceError{
		Code:       ErrCodeCaptureFailed,
		Message:    message,
		HTTPStatus: http.StatusPaymentRequired,
	}
}

func NewCaptureInProgressError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeCaptureInProgress,
		Message:    "capture is being processed. Please retry in a moment.",
		HTTPStatus: http.StatusAccepted,
	}
}

func NewWebhookSignatureInvalidError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeWebhookSignatureInvalid,
		Message:    "webhook signature verification failed",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewInvalidWebhookPayloadError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidWebhookPayload,
		Message:    "webhook payload could not be parsed",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    "Invalid state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// IsErrorCode checks if an error is a ServiceError with a specific code
func IsErrorCode(err error, code string) bool {
	svcErr, ok := IsServiceError(err)
	return ok && svcErr.Code == code
}

// GatewayError is a failed exchange with the payment provider.
// StatusCode is zero when no HTTP response was received.
type GatewayError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway %s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("gateway error [%s] during %s: %s (status: %d)", e.Code, e.Operation, e.Message, e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
