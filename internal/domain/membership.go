package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MembershipLevel int

const (
	LevelFree MembershipLevel = iota
	LevelBasic
	LevelPro
	LevelPremium
)

func (l MembershipLevel) String() string {
	switch l {
	case LevelFree:
		return "free"
	case LevelBasic:
		return "basic"
	case LevelPro:
		return "pro"
	case LevelPremium:
		return "premium"
	}
	return "unknown"
}

// Purchasable levels are the paid tiers; free is never sold.
func (l MembershipLevel) Purchasable() bool {
	return l >= LevelBasic && l <= LevelPremium
}

type Membership struct {
	ID          string
	UserID      string
	Level       MembershipLevel
	StartDate   time.Time
	ExpiresAt   *time.Time
	AutoRenew   bool
	DepositPaid decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMembership starts a membership at level running for days; zero days gives an open ended free membership.
func NewMembership(id, userID string, level MembershipLevel, days int, now time.Time) *Membership {
	now = now.UTC()
	m := &Membership{
		ID:          id,
		UserID:      userID,
		Level:       level,
		StartDate:   now,
		DepositPaid: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if days > 0 {
		expires := now.AddDate(0, 0, days)
		m.ExpiresAt = &expires
		m.AutoRenew = true
	}
	return m
}

func (m *Membership) IsActive(now time.Time) bool {
	if m.Level == LevelFree {
		return true
	}
	return m.ExpiresAt != nil && m.ExpiresAt.After(now)
}

// Upgrade switches level and restarts the membership period from now.
func (m *Membership) Upgrade(level MembershipLevel, days int, now time.Time) {
	now = now.UTC()
	expires := now.AddDate(0, 0, days)
	m.Level = level
	m.StartDate = now
	m.ExpiresAt = &expires
	m.AutoRenew = true
	m.UpdatedAt = now
}

// Renew extends from the current expiry while it is still in the future, otherwise from now.
func (m *Membership) Renew(days int, now time.Time) {
	now = now.UTC()
	base := now
	if m.ExpiresAt != nil && m.ExpiresAt.After(now) {
		base = *m.ExpiresAt
	}
	expires := base.AddDate(0, 0, days)
	m.ExpiresAt = &expires
	m.UpdatedAt = now
}

func (m *Membership) PayDeposit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return NewInvalidAmountError(amount.String())
	}
	m.DepositPaid = m.DepositPaid.Add(amount)
	m.UpdatedAt = now.UTC()
	return nil
}
