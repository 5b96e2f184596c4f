package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
)

type WebhookEventStore struct {
	mu     sync.Mutex
	events map[string]*domain.WebhookEvent
}

func NewWebhookEventStore() *WebhookEventStore {
	return &WebhookEventStore{events: make(map[string]*domain.WebhookEvent)}
}

func (s *WebhookEventStore) Record(ctx context.Context, event *domain.WebhookEvent) (*domain.WebhookEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.events[event.EventID]; ok {
		c := *existing
		return &c, false, nil
	}
	c := *event
	s.events[event.EventID] = &c
	return event, true, nil
}

func (s *WebhookEventStore) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	at = at.UTC()
	e.ProcessedAt = &at
	e.ProcessingError = nil
	return nil
}

func (s *WebhookEventStore) MarkFailed(ctx context.Context, eventID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.ProcessingError = &reason
	return nil
}

// Get returns a copy of the stored event.
func (s *WebhookEventStore) Get(eventID string) (*domain.WebhookEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, false
	}
	c := *e
	return &c, true
}
