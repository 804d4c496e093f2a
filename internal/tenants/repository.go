package tenants

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

// Panel returns every tenant joined with subscription and headcount.
func (r *Repository) Panel(ctx context.Context) ([]PanelRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.status, t.created_at,
		       COALESCE(s.plan_code, ''), COALESCE(s.seats, 0), COALESCE(s.status, ''),
		       (SELECT COUNT(*) FROM profiles p JOIN users u ON u.id = p.user_id
		         WHERE p.tenant_id = t.id AND u.is_active)
		  FROM tenants t
		  LEFT JOIN subscriptions s ON s.tenant_id = t.id
		 ORDER BY t.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PanelRow
	for rows.Next() {
		var row PanelRow
		if err := rows.Scan(&row.Tenant.ID, &row.Tenant.Name, &row.Tenant.Status, &row.Tenant.CreatedAt,
			&row.PlanCode, &row.Seats, &row.Subscription, &row.ActiveUsers); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Get fetches one tenant.
func (r *Repository) Get(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, status, created_at FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetStatus suspends or reactivates a tenant.
func (r *Repository) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
