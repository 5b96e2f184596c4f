package domain

import (
	"github.com/shopspring/decimal"
)

const (
	DefaultDurationDays = 365
	MinDurationDays     = 30
	yearlyDurationDays  = 365
	monthDays           = 30
)

// MembershipPlan is the catalog entry a membership order is priced against.
type MembershipPlan struct {
	Level        MembershipLevel
	Name         string
	PriceMonthly decimal.Decimal
	PriceYearly  decimal.Decimal
	Currency     string
	IsActive     bool
}

// PriceFor prices a membership period. A year or more costs the yearly price,
// otherwise every complete 30 day month is billed at the monthly price.
func (p *MembershipPlan) PriceFor(days int) (decimal.Decimal, error) {
	switch {
	case days >= yearlyDurationDays:
		return p.PriceYearly, nil
	case days >= MinDurationDays:
		months := decimal.NewFromInt(int64(days / monthDays))
		return p.PriceMonthly.Mul(months).Round(2), nil
	}
	return decimal.Zero, NewInvalidDurationError(days)
}

// DefaultPlans is the catalog seeded into fresh stores.
func DefaultPlans() []*MembershipPlan {
	return []*MembershipPlan{
		{Level: LevelBasic, Name: "Basic", PriceMonthly: decimal.RequireFromString("4.99"), PriceYearly: decimal.RequireFromString("49.99"), Currency: "USD", IsActive: true},
		{Level: LevelPro, Name: "Pro", PriceMonthly: decimal.RequireFromString("9.99"), PriceYearly: decimal.RequireFromString("99.99"), Currency: "USD", IsActive: true},
		{Level: LevelPremium, Name: "Premium", PriceMonthly: decimal.RequireFromString("19.99"), PriceYearly: decimal.RequireFromString("199.99"), Currency: "USD", IsActive: true},
	}
}
