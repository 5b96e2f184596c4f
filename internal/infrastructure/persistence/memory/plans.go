package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gonomads/payment-service/internal/domain"
)

type PlanStore struct {
	mu    sync.RWMutex
	plans map[domain.MembershipLevel]*domain.MembershipPlan
}

// NewPlanStore seeds the store with plans, or with the default catalog when none are given.
func NewPlanStore(plans ...*domain.MembershipPlan) *PlanStore {
	if len(plans) == 0 {
		plans = domain.DefaultPlans()
	}
	s := &PlanStore{plans: make(map[domain.MembershipLevel]*domain.MembershipPlan, len(plans))}
	for _, p := range plans {
		c := *p
		s.plans[p.Level] = &c
	}
	return s
}

func (s *PlanStore) FindByLevel(ctx context.Context, level domain.MembershipLevel) (*domain.MembershipPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[level]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	c := *p
	return &c, nil
}

func (s *PlanStore) List(ctx context.Context) ([]*domain.MembershipPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.MembershipPlan, 0, len(s.plans))
	for _, p := range s.plans {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}
