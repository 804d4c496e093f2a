package personas

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const personaColumns = `id, tenant_id, name, job_title, company, temperament, objections, voice_agent_id, status, created_at, updated_at`

func scanPersona(row pgx.Row) (*Persona, error) {
	var p Persona
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.JobTitle, &p.Company, &p.Temperament, &p.Objections, &p.VoiceAgentID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns the tenant's personas plus the unpaginated total.
func (r *Repository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Persona, int, error) {
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
		where += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM personas `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM personas %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		personaColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

// Get fetches one persona scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID string, id int64) (*Persona, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM personas WHERE tenant_id = $1 AND id = $2`, personaColumns), tenantID, id)
	return scanPersona(row)
}

// Create inserts a persona and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, p Persona) (*Persona, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO personas (tenant_id, name, job_title, company, temperament, objections, voice_agent_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING %s`, personaColumns),
		p.TenantID, p.Name, p.JobTitle, p.Company, p.Temperament, p.Objections, p.VoiceAgentID, p.Status)
	return scanPersona(row)
}

// Update rewrites the mutable fields of a persona.
func (r *Repository) Update(ctx context.Context, p Persona) (*Persona, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE personas SET name = $3, job_title = $4, company = $5, temperament = $6, objections = $7, voice_agent_id = $8, status = $9, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2 RETURNING %s`, personaColumns),
		p.TenantID, p.ID, p.Name, p.JobTitle, p.Company, p.Temperament, p.Objections, p.VoiceAgentID, p.Status)
	return scanPersona(row)
}

// Delete removes a persona. Missing rows yield shared.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, tenantID string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM personas WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const documentColumns = `id, persona_id, tenant_id, filename, mime_type, size_bytes, status, uploaded_by, created_at, ingested_at`

func scanDocument(row pgx.Row) (*KnowledgeDocument, error) {
	var d KnowledgeDocument
	err := row.Scan(&d.ID, &d.PersonaID, &d.TenantID, &d.Filename, &d.MimeType, &d.SizeBytes, &d.Status, &d.UploadedBy, &d.CreatedAt, &d.IngestedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// CreateDocument stores the raw upload alongside its metadata.
func (r *Repository) CreateDocument(ctx context.Context, d KnowledgeDocument, content []byte) (*KnowledgeDocument, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO knowledge_documents (persona_id, tenant_id, filename, mime_type, size_bytes, status, uploaded_by, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING %s`, documentColumns),
		d.PersonaID, d.TenantID, d.Filename, d.MimeType, d.SizeBytes, d.Status, d.UploadedBy, content)
	return scanDocument(row)
}

// GetDocument fetches a document's metadata scoped to the tenant.
func (r *Repository) GetDocument(ctx context.Context, tenantID string, id int64) (*KnowledgeDocument, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM knowledge_documents WHERE tenant_id = $1 AND id = $2`, documentColumns), tenantID, id)
	return scanDocument(row)
}

// DocumentContent loads the stored bytes for ingestion.
func (r *Repository) DocumentContent(ctx context.Context, tenantID string, id int64) ([]byte, error) {
	var content []byte
	err := r.pool.QueryRow(ctx,
		`SELECT content FROM knowledge_documents WHERE tenant_id = $1 AND id = $2`, tenantID, id).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return content, err
}

// ListDocuments returns a persona's documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context, tenantID string, personaID int64) ([]KnowledgeDocument, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM knowledge_documents WHERE tenant_id = $1 AND persona_id = $2 ORDER BY created_at DESC`, documentColumns),
		tenantID, personaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []KnowledgeDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// PendingDocuments returns documents still waiting for ingestion,
// oldest first, across all tenants. Used by the worker sweep.
func (r *Repository) PendingDocuments(ctx context.Context, olderThan time.Duration, limit int) ([]KnowledgeDocument, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM knowledge_documents
		  WHERE status = $1 AND created_at < NOW() - make_interval(secs => $2)
		  ORDER BY created_at LIMIT $3`, documentColumns),
		DocumentPending, olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []KnowledgeDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// SetVoiceAgentID stores the provider-side agent reference.
func (r *Repository) SetVoiceAgentID(ctx context.Context, tenantID string, id int64, agentID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE personas SET voice_agent_id = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, agentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkDocumentStatus transitions a document's ingestion state.
func (r *Repository) MarkDocumentStatus(ctx context.Context, tenantID string, id int64, status string) error {
	ingested := "NULL"
	if status == DocumentIngested {
		ingested = "NOW()"
	}
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE knowledge_documents SET status = $3, ingested_at = %s WHERE tenant_id = $1 AND id = $2`, ingested),
		tenantID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
