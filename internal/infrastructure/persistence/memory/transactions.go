package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gonomads/payment-service/internal/domain"
)

type TransactionStore struct {
	mu   sync.RWMutex
	txns map[string]*domain.PaymentTransaction
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txns: make(map[string]*domain.PaymentTransaction)}
}

func (s *TransactionStore) Create(ctx context.Context, txn *domain.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txns[txn.ID]; exists {
		return fmt.Errorf("transaction %s already exists", txn.ID)
	}
	c := *txn
	s.txns[txn.ID] = &c
	return nil
}

func (s *TransactionStore) Update(ctx context.Context, txn *domain.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txns[txn.ID]; !exists {
		return domain.ErrTransactionNotFound
	}
	c := *txn
	s.txns[txn.ID] = &c
	return nil
}

func (s *TransactionStore) FindByOrderID(ctx context.Context, orderID string) ([]*domain.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PaymentTransaction
	for _, t := range s.txns {
		if t.OrderID == orderID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
