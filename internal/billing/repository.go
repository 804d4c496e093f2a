package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchlab/pitchlab/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPlans returns all purchasable plans, cheapest first.
func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, price_per_seat_cents, currency, seat_limit, features
		   FROM plans ORDER BY price_per_seat_cents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.PricePerSeatCents, &p.Currency, &p.SeatLimit, &p.Features); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetPlan fetches one plan by code.
func (r *Repository) GetPlan(ctx context.Context, code string) (*Plan, error) {
	var p Plan
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, price_per_seat_cents, currency, seat_limit, features
		   FROM plans WHERE code = $1`, code).
		Scan(&p.ID, &p.Code, &p.Name, &p.PricePerSeatCents, &p.Currency, &p.SeatLimit, &p.Features)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const subscriptionColumns = `id, tenant_id, plan_code, seats, status, renews_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.TenantID, &s.PlanCode, &s.Seats, &s.Status, &s.RenewsAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetSubscription fetches the tenant's subscription.
func (r *Repository) GetSubscription(ctx context.Context, tenantID string) (*Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1`, tenantID)
	return scanSubscription(row)
}

// UpdateSubscription rewrites plan, seat count and status.
func (r *Repository) UpdateSubscription(ctx context.Context, s Subscription) (*Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE subscriptions SET plan_code = $2, seats = $3, status = $4, updated_at = NOW()
		  WHERE tenant_id = $1 RETURNING `+subscriptionColumns,
		s.TenantID, s.PlanCode, s.Seats, s.Status)
	return scanSubscription(row)
}
