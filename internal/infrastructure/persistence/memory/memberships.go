package memory

import (
	"context"
	"sync"

	"github.com/gonomads/payment-service/internal/domain"
)

// MembershipStore keeps memberships by user and the set of orders already applied to them.
type MembershipStore struct {
	mu          sync.Mutex
	memberships map[string]*domain.Membership
	grants      map[string]struct{}
}

func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		memberships: make(map[string]*domain.Membership),
		grants:      make(map[string]struct{}),
	}
}

func (s *MembershipStore) FindByUserID(ctx context.Context, userID string) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memberships[userID]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	c := *m
	return &c, nil
}

func (s *MembershipStore) Apply(
	ctx context.Context,
	orderID, userID string,
	fn func(current *domain.Membership) (*domain.Membership, error),
) (*domain.Membership, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *domain.Membership
	if m, ok := s.memberships[userID]; ok {
		c := *m
		current = &c
	}
	if _, done := s.grants[orderID]; done {
		return current, false, nil
	}

	next, err := fn(current)
	if err != nil {
		return nil, false, err
	}
	c := *next
	s.memberships[userID] = &c
	s.grants[orderID] = struct{}{}
	return next, true, nil
}
