package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gonomads/payment-service/internal/domain"
)

type priceQuote struct {
	orderType    domain.OrderType
	price        domain.Money
	level        *domain.MembershipLevel
	durationDays *int
	description  string
}

// quote prices a create request. Only validation problems come back as domain errors.
func (s *OrderService) quote(ctx context.Context, cmd CreateOrderCommand) (*priceQuote, error) {
	orderType, err := domain.ParseOrderType(cmd.OrderType)
	if err != nil {
		return nil, err
	}

	if orderType == domain.OrderTypeModeratorDeposit {
		amount := s.defaultDeposit
		if cmd.DepositAmount != nil {
			amount = *cmd.DepositAmount
		}
		price, err := domain.NewMoney(amount, s.settings.Currency)
		if err != nil {
			return nil, err
		}
		return &priceQuote{
			orderType:   orderType,
			price:       price,
			description: "Go Nomads moderator deposit",
		}, nil
	}

	if cmd.MembershipLevel == nil {
		return nil, domain.NewMissingRequiredFieldError("membership_level")
	}
	level := domain.MembershipLevel(*cmd.MembershipLevel)
	if !level.Purchasable() {
		return nil, domain.NewInvalidLevelError(*cmd.MembershipLevel)
	}

	days := domain.DefaultDurationDays
	if cmd.DurationDays != nil {
		days = *cmd.DurationDays
	}

	plan, err := s.plans.FindByLevel(ctx, level)
	if errors.Is(err, domain.ErrPlanNotFound) {
		return nil, domain.NewPlanUnavailableError(level)
	}
	if err != nil {
		return nil, fmt.Errorf("load plan for level %d: %w", level, err)
	}
	if !plan.IsActive {
		return nil, domain.NewPlanUnavailableError(level)
	}

	amount, err := plan.PriceFor(days)
	if err != nil {
		return nil, err
	}
	price, err := domain.NewMoney(amount, s.settings.Currency)
	if err != nil {
		return nil, err
	}

	return &priceQuote{
		orderType:    orderType,
		price:        price,
		level:        &level,
		durationDays: &days,
		description:  fmt.Sprintf("Go Nomads %s membership, %d days", plan.Name, days),
	}, nil
}
