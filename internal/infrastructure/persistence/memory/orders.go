// Package memory provides in-process stores with the same guarantees as the postgres ones.
// They back the memory storage driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
)

type OrderStore struct {
	mu           sync.RWMutex
	orders       map[string]*domain.Order
	byProvider   map[string]string
	orderNumbers map[string]struct{}
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:       make(map[string]*domain.Order),
		byProvider:   make(map[string]string),
		orderNumbers: make(map[string]struct{}),
	}
}

func (s *OrderStore) Create(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	if _, taken := s.orderNumbers[order.OrderNumber]; taken {
		return domain.ErrDuplicateOrderNumber
	}
	if order.ProviderOrderID != nil {
		if _, taken := s.byProvider[*order.ProviderOrderID]; taken {
			return fmt.Errorf("provider order %s already linked", *order.ProviderOrderID)
		}
		s.byProvider[*order.ProviderOrderID] = order.ID
	}
	s.orders[order.ID] = order.Clone()
	s.orderNumbers[order.OrderNumber] = struct{}{}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *OrderStore) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byProvider[providerOrderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return s.orders[id].Clone(), nil
}

func (s *OrderStore) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error) {
	matches := s.filter(func(o *domain.Order) bool { return o.UserID == userID })
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset >= len(matches) {
		return []*domain.Order{}, nil
	}
	end := min(offset+limit, len(matches))
	return matches[offset:end], nil
}

func (s *OrderStore) CountByUserID(ctx context.Context, userID string) (int, error) {
	return len(s.filter(func(o *domain.Order) bool { return o.UserID == userID })), nil
}

func (s *OrderStore) CompareAndSwap(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Version != order.Version {
		return domain.ErrStaleOrder
	}
	if order.ProviderOrderID != nil {
		if owner, taken := s.byProvider[*order.ProviderOrderID]; taken && owner != order.ID {
			return fmt.Errorf("provider order %s already linked", *order.ProviderOrderID)
		}
		s.byProvider[*order.ProviderOrderID] = order.ID
	}

	order.Version++
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) MarkSideEffectsApplied(ctx context.Context, orderID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	at = at.UTC()
	stored.SideEffectsAppliedAt = &at
	return nil
}

func (s *OrderStore) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error) {
	return s.oldestFirst(func(o *domain.Order) bool {
		return o.Status == domain.OrderPending && o.ExpiredAt.Before(now)
	}, limit), nil
}

func (s *OrderStore) FindStuckProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Order, error) {
	return s.oldestFirst(func(o *domain.Order) bool {
		return o.Status == domain.OrderProcessing && o.UpdatedAt.Before(updatedBefore)
	}, limit), nil
}

func (s *OrderStore) FindUnappliedCompleted(ctx context.Context, completedBefore time.Time, limit int) ([]*domain.Order, error) {
	return s.oldestFirst(func(o *domain.Order) bool {
		return o.Status == domain.OrderCompleted && o.SideEffectsAppliedAt == nil &&
			o.CompletedAt != nil && o.CompletedAt.Before(completedBefore)
	}, limit), nil
}

func (s *OrderStore) filter(keep func(*domain.Order) bool) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (s *OrderStore) oldestFirst(keep func(*domain.Order) bool, limit int) []*domain.Order {
	matches := s.filter(keep)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.Before(matches[j].UpdatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
