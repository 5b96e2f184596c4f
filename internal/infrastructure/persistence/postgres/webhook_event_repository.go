package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

type WebhookEventRepository struct {
	q Executor
}

func NewWebhookEventRepository(db *DB) *WebhookEventRepository {
	return &WebhookEventRepository{q: db.Pool}
}

// Record inserts event unless its id is already stored, in which case the stored row
// comes back and the bool is false.
func (r *WebhookEventRepository) Record(ctx context.Context, event *domain.WebhookEvent) (*domain.WebhookEvent, bool, error) {
	query := `
		INSERT INTO webhook_events (
			event_id, event_type, resource_id, provider_order_id, payload, signature_valid, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, query,
		event.EventID, event.EventType, nullable(event.ResourceID), nullable(event.ProviderOrderID),
		string(event.Payload), event.SignatureValid, event.ReceivedAt.UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return event, true, nil
	}

	existing, err := r.find(ctx, event.EventID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE webhook_events SET processed_at = $1, processing_error = NULL WHERE event_id = $2`,
		at.UTC(), eventID,
	)
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *WebhookEventRepository) MarkFailed(ctx context.Context, eventID string, reason string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE webhook_events SET processing_error = $1 WHERE event_id = $2`,
		reason, eventID,
	)
	if err != nil {
		return fmt.Errorf("mark webhook event failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *WebhookEventRepository) find(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	query := `
		SELECT event_id, event_type, resource_id, provider_order_id, payload::text, signature_valid,
		       received_at, processed_at, processing_error
		FROM webhook_events WHERE event_id = $1
	`
	var (
		m       WebhookEventModel
		payload string
	)
	err := r.q.QueryRow(ctx, query, eventID).Scan(
		&m.EventID, &m.EventType, &m.ResourceID, &m.ProviderOrderID, &payload, &m.SignatureValid,
		&m.ReceivedAt, &m.ProcessedAt, &m.ProcessingError,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan webhook event: %w", err)
	}
	m.Payload = []byte(payload)
	return toDomainWebhookEvent(m), nil
}
