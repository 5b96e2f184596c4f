package membership_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/memory"
	"github.com/gonomads/payment-service/internal/membership"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *membership.Service {
	return membership.NewService(memory.NewMembershipStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_Upgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("creates membership for new user", func(t *testing.T) {
		svc := newService()

		m, err := svc.Upgrade(ctx, "order-1", "user-1", domain.LevelPro, 365)
		require.NoError(t, err)

		assert.Equal(t, domain.LevelPro, m.Level)
		require.NotNil(t, m.ExpiresAt)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), *m.ExpiresAt, time.Minute)
	})

	t.Run("same order applied twice changes nothing", func(t *testing.T) {
		svc := newService()

		first, err := svc.Upgrade(ctx, "order-1", "user-1", domain.LevelBasic, 30)
		require.NoError(t, err)
		second, err := svc.Upgrade(ctx, "order-1", "user-1", domain.LevelBasic, 30)
		require.NoError(t, err)

		assert.Equal(t, *first.ExpiresAt, *second.ExpiresAt)
	})

	t.Run("rejects free level", func(t *testing.T) {
		svc := newService()

		_, err := svc.Upgrade(ctx, "order-1", "user-1", domain.LevelFree, 30)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidLevel))
	})
}

func TestService_Renew(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Renew(ctx, "order-0", "user-1", 30)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	initial, err := svc.Upgrade(ctx, "order-1", "user-1", domain.LevelBasic, 30)
	require.NoError(t, err)
	expiry := *initial.ExpiresAt

	renewed, err := svc.Renew(ctx, "order-2", "user-1", 30)
	require.NoError(t, err)
	assert.Equal(t, expiry.AddDate(0, 0, 30), *renewed.ExpiresAt)

	again, err := svc.Renew(ctx, "order-2", "user-1", 30)
	require.NoError(t, err)
	assert.Equal(t, *renewed.ExpiresAt, *again.ExpiresAt)
}

func TestService_ApplyPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("renewal of held level extends", func(t *testing.T) {
		svc := newService()
		initial, err := svc.ApplyPlan(ctx, "order-1", "user-1", false, domain.LevelPro, 30)
		require.NoError(t, err)
		expiry := *initial.ExpiresAt

		renewed, err := svc.ApplyPlan(ctx, "order-2", "user-1", true, domain.LevelPro, 30)
		require.NoError(t, err)
		assert.Equal(t, domain.LevelPro, renewed.Level)
		assert.Equal(t, expiry.AddDate(0, 0, 30), *renewed.ExpiresAt)
	})

	t.Run("renewal of another level switches to it", func(t *testing.T) {
		svc := newService()
		_, err := svc.ApplyPlan(ctx, "order-1", "user-1", false, domain.LevelPremium, 365)
		require.NoError(t, err)

		m, err := svc.ApplyPlan(ctx, "order-2", "user-1", true, domain.LevelPro, 30)
		require.NoError(t, err)
		assert.Equal(t, domain.LevelPro, m.Level)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *m.ExpiresAt, time.Minute)
	})

	t.Run("renewal without membership creates one", func(t *testing.T) {
		svc := newService()
		m, err := svc.ApplyPlan(ctx, "order-1", "user-1", true, domain.LevelBasic, 30)
		require.NoError(t, err)
		assert.Equal(t, domain.LevelBasic, m.Level)
	})

	t.Run("free level is not sold", func(t *testing.T) {
		_, err := newService().ApplyPlan(ctx, "order-1", "user-1", false, domain.LevelFree, 30)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidLevel))
	})
}

func TestService_PayDeposit(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	m, err := svc.PayDeposit(ctx, "order-1", "user-1", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, domain.LevelFree, m.Level)
	assert.Equal(t, "50", m.DepositPaid.String())

	m, err = svc.PayDeposit(ctx, "order-2", "user-1", decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, "75", m.DepositPaid.String())

	got, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "75", got.DepositPaid.String())

	none, err := svc.Get(ctx, "user-2")
	require.NoError(t, err)
	assert.Nil(t, none)
}
