package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrStaleOrder           = errors.New("order was modified concurrently")
	ErrOrderNotFound        = errors.New("order not found")
	ErrTransactionNotFound  = errors.New("payment transaction not found")
	ErrPlanNotFound         = errors.New("membership plan not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrEventNotFound        = errors.New("webhook event not found")
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeInvalidDuration      = "INVALID_DURATION"
	ErrCodeInvalidLevel         = "INVALID_MEMBERSHIP_LEVEL"
	ErrCodeUnsupportedOrderType = "UNSUPPORTED_ORDER_TYPE"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodePlanUnavailable      = "PLAN_UNAVAILABLE"
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidStateError(current, expected OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("invalid state: order is %s, expected %s", current, expected),
	}
}

func NewInvalidAmountError(amount string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %s", amount),
	}
}

func NewInvalidDurationError(days int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidDuration,
		Message: fmt.Sprintf("duration of %d days is below the %d day minimum", days, MinDurationDays),
	}
}

func NewInvalidLevelError(level int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidLevel,
		Message: fmt.Sprintf("membership level %d is not purchasable", level),
	}
}

func NewPlanUnavailableError(level MembershipLevel) *DomainError {
	return &DomainError{
		Code:    ErrCodePlanUnavailable,
		Message: fmt.Sprintf("no active plan for membership level %s", level),
		Err:     ErrPlanNotFound,
	}
}

func NewUnsupportedOrderTypeError(orderType OrderType) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedOrderType,
		Message: fmt.Sprintf("unsupported order type %q", orderType),
	}
}

func NewInvalidTransitionError(from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsValidationError reports whether err is a DomainError raised while validating caller input.
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	switch domainErr.Code {
	case ErrCodeInvalidAmount, ErrCodeInvalidDuration, ErrCodeInvalidLevel,
		ErrCodeUnsupportedOrderType, ErrCodeMissingRequiredField, ErrCodePlanUnavailable:
		return true
	}
	return false
}
