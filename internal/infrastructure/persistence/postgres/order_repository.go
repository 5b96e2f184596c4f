package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `
	id, order_number, user_id, order_type, amount, total_amount, currency,
	membership_level, duration_days,
	provider_order_id, provider_capture_id, payer_id, payer_email,
	status, error_message, version,
	created_at, updated_at, expired_at, completed_at, side_effects_applied_at`

type OrderRepository struct {
	q Executor
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	m := toOrderModel(order)
	_, err := r.q.Exec(ctx, query,
		m.ID, m.OrderNumber, m.UserID, m.OrderType, m.Amount, m.TotalAmount, m.Currency,
		m.MembershipLevel, m.DurationDays,
		m.ProviderOrderID, m.ProviderCaptureID, m.PayerID, m.PayerEmail,
		m.Status, m.ErrorMessage, m.Version,
		m.CreatedAt, m.UpdatedAt, m.ExpiredAt, m.CompletedAt, m.SideEffectsAppliedAt,
	)
	if err != nil {
		if uniqueViolationOn(err, "orders_order_number_key") {
			return domain.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.q.QueryRow(ctx, query, id))
}

func (r *OrderRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE provider_order_id = $1`
	return scanOrder(r.q.QueryRow(ctx, query, providerOrderID))
}

// FindByUserID pages through a user's orders, newest first.
func (r *OrderRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryOrders(ctx, "query orders by user_id", query, userID, limit, offset)
}

func (r *OrderRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders by user_id: %w", err)
	}
	return n, nil
}

// CompareAndSwap writes every mutable column, guarded by the version the caller read.
func (r *OrderRepository) CompareAndSwap(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET provider_order_id = $1, provider_capture_id = $2, payer_id = $3, payer_email = $4,
			status = $5, error_message = $6, updated_at = $7, completed_at = $8,
			side_effects_applied_at = $9, version = version + 1
		WHERE id = $10 AND version = $11
	`

	m := toOrderModel(order)
	tag, err := r.q.Exec(ctx, query,
		m.ProviderOrderID, m.ProviderCaptureID, m.PayerID, m.PayerEmail,
		m.Status, m.ErrorMessage, m.UpdatedAt, m.CompletedAt,
		m.SideEffectsAppliedAt,
		m.ID, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check order existence: %w", err)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrStaleOrder
	}

	order.Version++
	return nil
}

// MarkSideEffectsApplied stamps the order without touching its version; it is bookkeeping,
// not a state change.
func (r *OrderRepository) MarkSideEffectsApplied(ctx context.Context, orderID string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE orders SET side_effects_applied_at = $1 WHERE id = $2`,
		at.UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("mark side effects applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'pending'
		  AND expired_at < $1
		ORDER BY expired_at ASC
		LIMIT $2
	`
	return r.queryOrders(ctx, "query expired orders", query, now, limit)
}

func (r *OrderRepository) FindStuckProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'processing'
		  AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`
	return r.queryOrders(ctx, "query stuck processing orders", query, updatedBefore, limit)
}

func (r *OrderRepository) FindUnappliedCompleted(ctx context.Context, completedBefore time.Time, limit int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'completed'
		  AND side_effects_applied_at IS NULL
		  AND completed_at < $1
		ORDER BY completed_at ASC
		LIMIT $2
	`
	return r.queryOrders(ctx, "query unapplied completed orders", query, completedBefore, limit)
}

func (r *OrderRepository) queryOrders(ctx context.Context, op, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: scan rows: %w", op, err)
	}
	return results, nil
}

// scanOrder converts a database row into a domain Order.
// Returns domain.ErrOrderNotFound if the row doesn't exist.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(
		&m.ID, &m.OrderNumber, &m.UserID, &m.OrderType, &m.Amount, &m.TotalAmount, &m.Currency,
		&m.MembershipLevel, &m.DurationDays,
		&m.ProviderOrderID, &m.ProviderCaptureID, &m.PayerID, &m.PayerEmail,
		&m.Status, &m.ErrorMessage, &m.Version,
		&m.CreatedAt, &m.UpdatedAt, &m.ExpiredAt, &m.CompletedAt, &m.SideEffectsAppliedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return toDomainOrder(m), nil
}
