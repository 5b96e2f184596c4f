// Package membership applies paid orders to user memberships.
package membership

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists memberships. Apply runs fn against the user's current membership
// (nil when there is none) and stores the result together with a grant for orderID.
// When orderID was granted before, fn is not called and applied is false.
type Repository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Membership, error)
	Apply(ctx context.Context, orderID, userID string, fn func(current *domain.Membership) (*domain.Membership, error)) (m *domain.Membership, applied bool, err error)
}

type Service struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, now: time.Now, logger: logger}
}

// Get returns nil without error when the user has no membership yet.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, nil
	}
	return m, err
}

// Upgrade moves the user to level for days starting now, creating the membership if needed.
func (s *Service) Upgrade(ctx context.Context, orderID, userID string, level domain.MembershipLevel, days int) (*domain.Membership, error) {
	if !level.Purchasable() {
		return nil, domain.NewInvalidLevelError(int(level))
	}
	return s.apply(ctx, orderID, userID, "upgrade", func(current *domain.Membership) (*domain.Membership, error) {
		return s.upgrade(current, userID, level, days), nil
	})
}

// Renew extends the user's membership by days. Without a membership there is nothing to extend.
func (s *Service) Renew(ctx context.Context, orderID, userID string, days int) (*domain.Membership, error) {
	return s.apply(ctx, orderID, userID, "renew", func(current *domain.Membership) (*domain.Membership, error) {
		if current == nil {
			return nil, domain.ErrMembershipNotFound
		}
		current.Renew(days, s.now())
		return current, nil
	})
}

// ApplyPlan applies a paid membership order. A renewal of the level the user holds extends
// the current period; anything else switches to level from now. The branch is taken on the
// membership as the repository holds it for the write, so a concurrent change of level
// turns a renewal into an upgrade instead of extending the other level.
func (s *Service) ApplyPlan(ctx context.Context, orderID, userID string, renew bool, level domain.MembershipLevel, days int) (*domain.Membership, error) {
	if !level.Purchasable() {
		return nil, domain.NewInvalidLevelError(int(level))
	}
	action := "upgrade"
	if renew {
		action = "renew"
	}
	return s.apply(ctx, orderID, userID, action, func(current *domain.Membership) (*domain.Membership, error) {
		if renew && current != nil && current.Level == level {
			current.Renew(days, s.now())
			return current, nil
		}
		return s.upgrade(current, userID, level, days), nil
	})
}

func (s *Service) upgrade(current *domain.Membership, userID string, level domain.MembershipLevel, days int) *domain.Membership {
	now := s.now()
	if current == nil {
		return domain.NewMembership(uuid.New().String(), userID, level, days, now)
	}
	current.Upgrade(level, days, now)
	return current
}

// PayDeposit records a moderator deposit; users without a membership get a free one holding it.
func (s *Service) PayDeposit(ctx context.Context, orderID, userID string, amount decimal.Decimal) (*domain.Membership, error) {
	return s.apply(ctx, orderID, userID, "deposit", func(current *domain.Membership) (*domain.Membership, error) {
		now := s.now()
		if current == nil {
			current = domain.NewMembership(uuid.New().String(), userID, domain.LevelFree, 0, now)
		}
		if err := current.PayDeposit(amount, now); err != nil {
			return nil, err
		}
		return current, nil
	})
}

func (s *Service) apply(
	ctx context.Context,
	orderID, userID, action string,
	fn func(current *domain.Membership) (*domain.Membership, error),
) (*domain.Membership, error) {
	m, applied, err := s.repo.Apply(ctx, orderID, userID, fn)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.logger.Info("membership change already applied",
			"action", action,
			"order_id", orderID,
			"user_id", userID,
		)
		return m, nil
	}
	s.logger.Info("membership updated",
		"action", action,
		"order_id", orderID,
		"user_id", userID,
		"level", m.Level.String(),
	)
	return m, nil
}
