package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PlanRepository reads the membership catalog seeded by the migrations.
type PlanRepository struct {
	q Executor
}

func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{q: db.Pool}
}

func (r *PlanRepository) FindByLevel(ctx context.Context, level domain.MembershipLevel) (*domain.MembershipPlan, error) {
	query := `
		SELECT level, name, price_monthly, price_yearly, currency, is_active
		FROM membership_plans WHERE level = $1
	`
	plan, err := scanPlan(r.q.QueryRow(ctx, query, int(level)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	return plan, err
}

func (r *PlanRepository) List(ctx context.Context) ([]*domain.MembershipPlan, error) {
	rows, err := r.q.Query(ctx, `
		SELECT level, name, price_monthly, price_yearly, currency, is_active
		FROM membership_plans ORDER BY level
	`)
	if err != nil {
		return nil, fmt.Errorf("query membership plans: %w", err)
	}
	plans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.MembershipPlan, error) {
		return scanPlan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan membership plans: %w", err)
	}
	return plans, nil
}

func scanPlan(row pgx.Row) (*domain.MembershipPlan, error) {
	var (
		p     domain.MembershipPlan
		level int
	)
	if err := row.Scan(&level, &p.Name, &p.PriceMonthly, &p.PriceYearly, &p.Currency, &p.IsActive); err != nil {
		return nil, err
	}
	p.Level = domain.MembershipLevel(level)
	return &p, nil
}
