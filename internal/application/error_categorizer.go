package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/gonomads/payment-service/internal/domain"
)

// ErrorCategory represents the nature of an error for retry and logging decisions
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidOrderRequest, ErrCodeOrderNotFound, ErrCodeUnauthorized,
			ErrCodeUnauthenticated, ErrCodeWebhookSignatureInvalid, ErrCodeInvalidWebhookPayload:
			return CategoryClientError
		case ErrCodeOrderExpired, ErrCodeInvalidState:
			return CategoryBusinessRule
		case ErrCodeCaptureFailed:
			return CategoryPermanent
		case ErrCodeGatewayUnavailable, ErrCodeCaptureInProgress, ErrCodeTimeout:
			return CategoryTransient
		case ErrCodeInternal:
			return CategoryInfrastructure
		}
	}

	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrStaleOrder) {
		return CategoryBusinessRule
	}
	if domain.IsValidationError(err) {
		return CategoryClientError
	}
	if errors.Is(err, domain.ErrOrderNotFound) {
		return CategoryClientError
	}

	if gwErr, ok := IsGatewayError(err); ok {
		if gwErr.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	return CategoryInfrastructure
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStaleOrder):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if _, ok := IsGatewayError(err); ok {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		if domain.IsValidationError(err) {
			return ErrCodeInvalidOrderRequest
		}
		return domainErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrStaleOrder), errors.Is(err, domain.ErrInvalidTransition):
		return ErrCodeInvalidState
	case errors.Is(err, domain.ErrOrderNotFound):
		return ErrCodeOrderNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}

	if _, ok := IsGatewayError(err); ok {
		return ErrCodeGatewayUnavailable
	}

	return ErrCodeInternal
}
