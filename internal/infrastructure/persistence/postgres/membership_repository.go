package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

type MembershipRepository struct {
	db  *DB
	now func() time.Time
}

func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db, now: time.Now}
}

func (r *MembershipRepository) FindByUserID(ctx context.Context, userID string) (*domain.Membership, error) {
	return findMembership(ctx, r.db.Pool, userID, false)
}

// Apply locks the user's membership row, checks the grant for orderID and, when the
// order is new, stores fn's result and the grant in the same transaction.
func (r *MembershipRepository) Apply(
	ctx context.Context,
	orderID, userID string,
	fn func(current *domain.Membership) (*domain.Membership, error),
) (*domain.Membership, bool, error) {
	var (
		result  *domain.Membership
		applied bool
	)

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := findMembership(ctx, tx, userID, true)
		if err != nil && !errors.Is(err, domain.ErrMembershipNotFound) {
			return err
		}

		var granted bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM membership_grants WHERE order_id = $1)`, orderID,
		).Scan(&granted); err != nil {
			return fmt.Errorf("check membership grant: %w", err)
		}
		if granted {
			result = current
			return nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		membershipID, err := upsertMembership(ctx, tx, next)
		if err != nil {
			return err
		}
		next.ID = membershipID

		if _, err := tx.Exec(ctx, `
			INSERT INTO membership_grants (order_id, user_id, membership_id, granted_at)
			VALUES ($1, $2, $3, $4)
		`, orderID, userID, membershipID, r.now().UTC()); err != nil {
			return fmt.Errorf("record membership grant: %w", err)
		}

		result = next
		applied = true
		return nil
	})

	// a concurrent apply of the same order committed first
	if uniqueViolationOn(err, "membership_grants_pkey") {
		current, ferr := r.FindByUserID(ctx, userID)
		if ferr != nil {
			return nil, false, ferr
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return result, applied, nil
}

func upsertMembership(ctx context.Context, tx pgx.Tx, m *domain.Membership) (string, error) {
	query := `
		INSERT INTO memberships (
			id, user_id, level, start_date, expires_at, auto_renew, deposit_paid, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE
		SET level = EXCLUDED.level,
			start_date = EXCLUDED.start_date,
			expires_at = EXCLUDED.expires_at,
			auto_renew = EXCLUDED.auto_renew,
			deposit_paid = EXCLUDED.deposit_paid,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	var id string
	err := tx.QueryRow(ctx, query,
		m.ID, m.UserID, int(m.Level), m.StartDate, m.ExpiresAt, m.AutoRenew, m.DepositPaid, m.CreatedAt, m.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save membership: %w", err)
	}
	return id, nil
}

func findMembership(ctx context.Context, q Executor, userID string, forUpdate bool) (*domain.Membership, error) {
	query := `
		SELECT id, user_id, level, start_date, expires_at, auto_renew, deposit_paid, created_at, updated_at
		FROM memberships WHERE user_id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var m MembershipModel
	err := q.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.Level, &m.StartDate, &m.ExpiresAt, &m.AutoRenew, &m.DepositPaid, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}
	return toDomainMembership(m), nil
}
