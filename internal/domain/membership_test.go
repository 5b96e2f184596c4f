package domain_test

import (
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembership(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("new paid membership expires after duration", func(t *testing.T) {
		m := domain.NewMembership("m-1", "user-1", domain.LevelPro, 365, now)

		require.NotNil(t, m.ExpiresAt)
		assert.Equal(t, now.AddDate(0, 0, 365), *m.ExpiresAt)
		assert.True(t, m.AutoRenew)
		assert.True(t, m.IsActive(now))
	})

	t.Run("renew extends from future expiry", func(t *testing.T) {
		m := domain.NewMembership("m-1", "user-1", domain.LevelBasic, 30, now)

		m.Renew(30, now.AddDate(0, 0, 10))

		assert.Equal(t, now.AddDate(0, 0, 60), *m.ExpiresAt)
	})

	t.Run("renew after lapse restarts from now", func(t *testing.T) {
		m := domain.NewMembership("m-1", "user-1", domain.LevelBasic, 30, now)
		later := now.AddDate(0, 0, 45)

		m.Renew(30, later)

		assert.Equal(t, later.AddDate(0, 0, 30), *m.ExpiresAt)
	})

	t.Run("upgrade restarts period at new level", func(t *testing.T) {
		m := domain.NewMembership("m-1", "user-1", domain.LevelBasic, 30, now)
		later := now.AddDate(0, 0, 5)

		m.Upgrade(domain.LevelPremium, 365, later)

		assert.Equal(t, domain.LevelPremium, m.Level)
		assert.Equal(t, later, m.StartDate)
		assert.Equal(t, later.AddDate(0, 0, 365), *m.ExpiresAt)
	})

	t.Run("deposits accumulate", func(t *testing.T) {
		m := domain.NewMembership("m-1", "user-1", domain.LevelFree, 0, now)

		require.NoError(t, m.PayDeposit(decimal.NewFromInt(50), now))
		require.NoError(t, m.PayDeposit(decimal.RequireFromString("25.50"), now))

		assert.Equal(t, "75.5", m.DepositPaid.String())
		assert.Nil(t, m.ExpiresAt)
		assert.True(t, m.IsActive(now))
	})

	t.Run("rejects non positive deposit", func(t *testing.T) {
		m := domain.NewMembership("m-1", "user-1", domain.LevelFree, 0, now)

		err := m.PayDeposit(decimal.Zero, now)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidAmount))
	})
}

func TestMembershipPlan_PriceFor(t *testing.T) {
	plan := &domain.MembershipPlan{
		Level:        domain.LevelPro,
		PriceMonthly: decimal.RequireFromString("9.99"),
		PriceYearly:  decimal.RequireFromString("99.99"),
	}

	tests := []struct {
		name    string
		days    int
		want    string
		wantErr bool
	}{
		{name: "year uses yearly price", days: 365, want: "99.99"},
		{name: "beyond a year is still yearly", days: 400, want: "99.99"},
		{name: "one month", days: 30, want: "9.99"},
		{name: "partial months round down", days: 89, want: "19.98"},
		{name: "three months", days: 90, want: "29.97"},
		{name: "below minimum", days: 29, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := plan.PriceFor(tt.days)
			if tt.wantErr {
				assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidDuration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, price.StringFixed(2))
		})
	}
}

func TestPaymentTransaction(t *testing.T) {
	now := time.Now()
	order := newPendingOrder(t, now)

	t.Run("completes once", func(t *testing.T) {
		txn, err := domain.NewPaymentTransaction("txn-1", order, now)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionPending, txn.Status)
		assert.True(t, txn.Amount.Equal(order.TotalAmount))

		require.NoError(t, txn.Complete(domain.CaptureDetails{CaptureID: "CAP-1", TransactionID: "CAP-1"}, now))
		assert.Equal(t, "CAP-1", *txn.ProviderCaptureID)

		assert.ErrorIs(t, txn.Fail("X", "late", "", now), domain.ErrInvalidTransition)
	})

	t.Run("failure defaults error code", func(t *testing.T) {
		txn, err := domain.NewPaymentTransaction("txn-2", order, now)
		require.NoError(t, err)

		require.NoError(t, txn.Fail("", "declined", `{"name":"X"}`, now))
		assert.Equal(t, domain.TxnErrorUnknown, *txn.ErrorCode)
		assert.Equal(t, `{"name":"X"}`, *txn.RawResponse)
	})
}
