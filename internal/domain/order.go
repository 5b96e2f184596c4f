// Package domain holds the payment order aggregate, its state machine and the membership model it pays for.
package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the current state of an order in its lifecycle
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderFailed     OrderStatus = "failed"
	OrderCancelled  OrderStatus = "cancelled"
)

// CanTransitionTo reports whether the machine allows moving from s to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) error {
	switch s {
	case OrderPending:
		return allow(s, target, OrderProcessing, OrderCancelled)
	case OrderProcessing:
		// processing -> processing lets a second trigger take over an abandoned capture
		return allow(s, target, OrderProcessing, OrderCompleted, OrderFailed)
	}
	return NewInvalidTransitionError(s, target)
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderCompleted, OrderFailed, OrderCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

func allow(from, target OrderStatus, allowed ...OrderStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(from, target)
}

type OrderType string

const (
	OrderTypeMembershipUpgrade OrderType = "membership_upgrade"
	OrderTypeMembershipRenew   OrderType = "membership_renew"
	OrderTypeModeratorDeposit  OrderType = "moderator_deposit"
)

func (t OrderType) IsMembership() bool {
	return t == OrderTypeMembershipUpgrade || t == OrderTypeMembershipRenew
}

func ParseOrderType(s string) (OrderType, error) {
	t := OrderType(s)
	switch t {
	case OrderTypeMembershipUpgrade, OrderTypeMembershipRenew, OrderTypeModeratorDeposit:
		return t, nil
	}
	return "", NewUnsupportedOrderTypeError(t)
}

type Order struct {
	ID          string
	OrderNumber string
	UserID      string
	Type        OrderType
	Amount      decimal.Decimal
	TotalAmount decimal.Decimal
	Currency    string

	MembershipLevel *MembershipLevel
	DurationDays    *int

	ProviderOrderID   *string
	ProviderCaptureID *string
	PayerID           *string
	PayerEmail        *string

	Status       OrderStatus
	ErrorMessage *string
	Version      int

	CreatedAt            time.Time
	UpdatedAt            time.Time
	ExpiredAt            time.Time
	CompletedAt          *time.Time
	SideEffectsAppliedAt *time.Time
}

// NewOrder builds a Pending order priced at price that stops being capturable after ttl.
func NewOrder(
	id string,
	orderNumber string,
	userID string,
	orderType OrderType,
	price Money,
	level *MembershipLevel,
	durationDays *int,
	now time.Time,
	ttl time.Duration,
) (*Order, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("order id")
	}
	if orderNumber == "" {
		return nil, NewMissingRequiredFieldError("order number")
	}
	if userID == "" {
		return nil, NewMissingRequiredFieldError("user id")
	}
	if orderType.IsMembership() && (level == nil || durationDays == nil) {
		return nil, NewMissingRequiredFieldError("membership level")
	}
	if ttl <= 0 {
		return nil, errors.New("order ttl must be positive")
	}

	now = now.UTC()
	return &Order{
		ID:              id,
		OrderNumber:     orderNumber,
		UserID:          userID,
		Type:            orderType,
		Amount:          price.Amount,
		TotalAmount:     price.Amount,
		Currency:        price.Currency,
		MembershipLevel: level,
		DurationDays:    durationDays,
		Status:          OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiredAt:       now.Add(ttl),
	}, nil
}

// IsExpired is true only for Pending orders whose capture window has closed.
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == OrderPending && now.After(o.ExpiredAt)
}

func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// TransitionTo moves the order along the state machine and stamps the bookkeeping fields of the target state.
func (o *Order) TransitionTo(target OrderStatus, now time.Time) error {
	if err := o.Status.CanTransitionTo(target); err != nil {
		return err
	}
	now = now.UTC()
	o.Status = target
	o.UpdatedAt = now
	switch target {
	case OrderProcessing:
		o.ErrorMessage = nil
	case OrderCompleted:
		o.ErrorMessage = nil
		o.CompletedAt = &now
	}
	return nil
}

// AttachProviderOrder links the remote order created for a Pending order.
func (o *Order) AttachProviderOrder(providerOrderID string, now time.Time) error {
	if o.Status != OrderPending {
		return NewInvalidStateError(o.Status, OrderPending)
	}
	if providerOrderID == "" {
		return NewMissingRequiredFieldError("provider order id")
	}
	if o.ProviderOrderID != nil && *o.ProviderOrderID != providerOrderID {
		return fmt.Errorf("order %s is already linked to provider order %s", o.ID, *o.ProviderOrderID)
	}
	o.ProviderOrderID = &providerOrderID
	o.UpdatedAt = now.UTC()
	return nil
}

func (o *Order) RecordCapture(details CaptureDetails) {
	o.ProviderCaptureID = strPtr(details.CaptureID)
	o.PayerID = strPtr(details.PayerID)
	o.PayerEmail = strPtr(details.PayerEmail)
}

func (o *Order) RecordError(message string, now time.Time) {
	o.ErrorMessage = strPtr(message)
	o.UpdatedAt = now.UTC()
}

// Clone returns a deep copy, so a rejected compare-and-swap leaves the caller's order untouched.
func (o *Order) Clone() *Order {
	c := *o
	c.MembershipLevel = clonePtr(o.MembershipLevel)
	c.DurationDays = clonePtr(o.DurationDays)
	c.ProviderOrderID = clonePtr(o.ProviderOrderID)
	c.ProviderCaptureID = clonePtr(o.ProviderCaptureID)
	c.PayerID = clonePtr(o.PayerID)
	c.PayerEmail = clonePtr(o.PayerEmail)
	c.ErrorMessage = clonePtr(o.ErrorMessage)
	c.CompletedAt = clonePtr(o.CompletedAt)
	c.SideEffectsAppliedAt = clonePtr(o.SideEffectsAppliedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
