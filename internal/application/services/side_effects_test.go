package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/application/services/testhelpers"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/memory"
	"github.com/gonomads/payment-service/internal/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renewCommand(userID string, level, days int) services.CreateOrderCommand {
	cmd := testhelpers.UpgradeCommand(userID, level, days)
	cmd.OrderType = string(domain.OrderTypeMembershipRenew)
	return cmd
}

func seedMembership(t *testing.T, store *memory.MembershipStore, userID string, level domain.MembershipLevel, days int) *domain.Membership {
	t.Helper()
	m, _, err := store.Apply(context.Background(), "seed-"+userID, userID, func(*domain.Membership) (*domain.Membership, error) {
		return domain.NewMembership("m-"+userID, userID, level, days, time.Now()), nil
	})
	require.NoError(t, err)
	return m
}

// upgradeFirstRepo commits another order's upgrade just before the wrapped Apply takes the row.
type upgradeFirstRepo struct {
	*memory.MembershipStore
	level domain.MembershipLevel
	days  int
	done  bool
}

func (r *upgradeFirstRepo) Apply(
	ctx context.Context,
	orderID, userID string,
	fn func(current *domain.Membership) (*domain.Membership, error),
) (*domain.Membership, bool, error) {
	if !r.done {
		r.done = true
		_, _, err := r.MembershipStore.Apply(ctx, "other-order", userID, func(current *domain.Membership) (*domain.Membership, error) {
			current.Upgrade(r.level, r.days, time.Now())
			return current, nil
		})
		if err != nil {
			return nil, false, err
		}
	}
	return r.MembershipStore.Apply(ctx, orderID, userID, fn)
}

func TestSideEffects_RenewSameLevelExtendsExpiry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seeded := seedMembership(t, h.memberships, "user-1", domain.LevelPro, 30)

	order := h.createOrder(t, renewCommand("user-1", 2, 30), "PAYPAL-RENEW")
	h.gateway.ExpectCaptureSuccess("PAYPAL-RENEW").Once()

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)

	m, err := h.memberships.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPro, m.Level)
	assert.Equal(t, seeded.ExpiresAt.AddDate(0, 0, 30), *m.ExpiresAt)
}

func TestSideEffects_RenewOfOtherLevelUpgrades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seedMembership(t, h.memberships, "user-1", domain.LevelBasic, 30)

	order := h.createOrder(t, renewCommand("user-1", 2, 30), "PAYPAL-RENEW-PRO")
	h.gateway.ExpectCaptureSuccess("PAYPAL-RENEW-PRO").Once()

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)

	m, err := h.memberships.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPro, m.Level)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *m.ExpiresAt, time.Minute)
}

func TestSideEffects_RenewDecidedOnCommittedLevel(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMembershipStore()
	seedMembership(t, store, "user-2", domain.LevelPro, 30)

	repo := &upgradeFirstRepo{MembershipStore: store, level: domain.LevelPremium, days: 60}
	h := newHarness(t, withMembershipService(membership.NewService(repo, testhelpers.DiscardLogger())))

	order := h.createOrder(t, renewCommand("user-2", 2, 30), "PAYPAL-RENEW-RACE")
	h.gateway.ExpectCaptureSuccess("PAYPAL-RENEW-RACE").Once()

	_, err := h.captureService.Capture(ctx, clientCapture(order))
	require.NoError(t, err)

	m, err := store.FindByUserID(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPro, m.Level, "a Pro renewal never extends another level")
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *m.ExpiresAt, time.Minute)
}
