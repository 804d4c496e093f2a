package scenarios

import (
	"context"
	"errors"
	"fmt"

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

const scenarioColumns = `id, tenant_id, title, description, difficulty, persona_id, status, created_by, created_at, updated_at`

func scanScenario(row pgx.Row) (*Scenario, error) {
	var s Scenario
	err := row.Scan(&s.ID, &s.TenantID, &s.Title, &s.Description, &s.Difficulty, &s.PersonaID, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns the tenant's scenarios plus the unpaginated total.
func (r *Repository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Scenario, int, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += fmt.Sprintf(` AND title ILIKE $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scenarios `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM scenarios %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		scenarioColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *s)
	}
	return list, total, rows.Err()
}

// Get fetches one scenario scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID string, id int64) (*Scenario, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM scenarios WHERE tenant_id = $1 AND id = $2`, scenarioColumns), tenantID, id)
	return scanScenario(row)
}

// Create inserts a scenario and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, s Scenario) (*Scenario, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO scenarios (tenant_id, title, description, difficulty, persona_id, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING %s`, scenarioColumns),
		s.TenantID, s.Title, s.Description, s.Difficulty, s.PersonaID, s.Status, s.CreatedBy)
	return scanScenario(row)
}

// Update rewrites the mutable fields of a scenario.
func (r *Repository) Update(ctx context.Context, s Scenario) (*Scenario, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE scenarios SET title = $3, description = $4, difficulty = $5, persona_id = $6, status = $7, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2 RETURNING %s`, scenarioColumns),
		s.TenantID, s.ID, s.Title, s.Description, s.Difficulty, s.PersonaID, s.Status)
	return scanScenario(row)
}

// Delete removes a scenario. Missing rows yield shared.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, tenantID string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scenarios WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
