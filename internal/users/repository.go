package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchlab/pitchlab/internal/platform/db"
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

const accountColumns = `u.id, u.email, p.display_name, p.role, p.tenant_id, u.is_active, u.created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.Role, &a.TenantID, &a.Active, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns the tenant's accounts plus the unpaginated total.
func (r *Repository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Account, int, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	where := `WHERE p.tenant_id = $1`
	args := []any{tenantID}
	if filters.Role != "" {
		args = append(args, filters.Role)
		where += fmt.Sprintf(` AND p.role = $%d`, len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += fmt.Sprintf(` AND (u.email ILIKE $%d OR p.display_name ILIKE $%d)`, len(args), len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users u JOIN profiles p ON p.user_id = u.id ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM users u JOIN profiles p ON p.user_id = u.id %s
		ORDER BY u.created_at DESC LIMIT $%d OFFSET $%d`, accountColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *a)
	}
	return list, total, rows.Err()
}

// Get fetches one account scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID string, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM users u JOIN profiles p ON p.user_id = u.id WHERE p.tenant_id = $1 AND u.id = $2`,
		accountColumns), tenantID, id)
	return scanAccount(row)
}

// Create inserts the credential and profile rows atomically.
func (r *Repository) Create(ctx context.Context, a Account, passwordHash string) (*Account, error) {
	var created Account
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, is_active, created_at)
			 VALUES ($1, $2, TRUE, NOW()) RETURNING id, created_at`,
			a.Email, passwordHash).Scan(&created.ID, &created.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO profiles (user_id, display_name, role, tenant_id)
			 VALUES ($1, $2, $3, $4)`,
			created.ID, a.DisplayName, a.Role, a.TenantID)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	created.Email = a.Email
	created.DisplayName = a.DisplayName
	created.Role = a.Role
	created.TenantID = a.TenantID
	created.Active = true
	return &created, nil
}

// SetActive toggles the account's sign-in eligibility.
func (r *Repository) SetActive(ctx context.Context, tenantID string, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users u SET is_active = $3 FROM profiles p
		  WHERE p.user_id = u.id AND p.tenant_id = $1 AND u.id = $2`,
		tenantID, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetRole reassigns the account's role.
func (r *Repository) SetRole(ctx context.Context, tenantID string, id int64, role string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET role = $3 WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
