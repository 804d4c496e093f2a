package personas

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pitchlab/pitchlab/internal/shared"
)

// ErrValidation wraps input problems the handler maps to 400.
var ErrValidation = errors.New("personas: validation")

// MaxDocumentBytes caps knowledge document uploads at 10 MiB.
const MaxDocumentBytes = 10 << 20

// RepositoryPort defines data access methods for personas.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filters ListFilters) ([]Persona, int, error)
	Get(ctx context.Context, tenantID string, id int64) (*Persona, error)
	Create(ctx context.Context, p Persona) (*Persona, error)
	Update(ctx context.Context, p Persona) (*Persona, error)
	Delete(ctx context.Context, tenantID string, id int64) error
	CreateDocument(ctx context.Context, d KnowledgeDocument, content []byte) (*KnowledgeDocument, error)
	GetDocument(ctx context.Context, tenantID string, id int64) (*KnowledgeDocument, error)
	ListDocuments(ctx context.Context, tenantID string, personaID int64) ([]KnowledgeDocument, error)
	MarkDocumentStatus(ctx context.Context, tenantID string, id int64, status string) error
}

// IngestQueue submits uploaded documents for background ingestion.
type IngestQueue interface {
	EnqueueKnowledgeIngest(ctx context.Context, tenantID string, documentID int64) error
}

// Service handles persona business logic.
type Service struct {
	repo  RepositoryPort
	queue IngestQueue
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, queue IngestQueue, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, queue: queue, audit: audit}
}

// List returns the tenant's personas with pagination metadata.
func (s *Service) List(ctx context.Context, tenantID string, filters ListFilters) ([]Persona, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get fetches one persona.
func (s *Service) Get(ctx context.Context, tenantID string, id int64) (*Persona, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func validate(p *Persona) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if p.Temperament == "" {
		p.Temperament = TemperamentFriendly
	}
	if !validTemperament(p.Temperament) {
		return fmt.Errorf("%w: unknown temperament %q", ErrValidation, p.Temperament)
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if !validStatus(p.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}
	if p.Objections == nil {
		p.Objections = []string{}
	}
	return nil
}

// Create validates and inserts a new persona.
func (s *Service) Create(ctx context.Context, actorID int64, p Persona) (*Persona, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, created.TenantID, "persona.create", created.ID, nil)
	return created, nil
}

// Update validates and rewrites a persona.
func (s *Service) Update(ctx context.Context, actorID int64, p Persona) (*Persona, error) {
	existing, err := s.repo.Get(ctx, p.TenantID, p.ID)
	if err != nil {
		return nil, err
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	if existing.Status == StatusArchived && p.Status != StatusArchived {
		return nil, fmt.Errorf("%w: archived personas cannot be reopened", ErrValidation)
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, updated.TenantID, "persona.update", updated.ID, map[string]any{"status": updated.Status})
	return updated, nil
}

// Delete removes a persona.
func (s *Service) Delete(ctx context.Context, actorID int64, tenantID string, id int64) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, tenantID, "persona.delete", id, nil)
	return nil
}

// Documents lists a persona's knowledge documents.
func (s *Service) Documents(ctx context.Context, tenantID string, personaID int64) ([]KnowledgeDocument, error) {
	if _, err := s.repo.Get(ctx, tenantID, personaID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, tenantID, personaID)
}

// UploadDocument stores the file and queues it for ingestion. The
// document stays pending until the worker processes it.
func (s *Service) UploadDocument(ctx context.Context, actorID int64, doc KnowledgeDocument, content []byte) (*KnowledgeDocument, error) {
	if _, err := s.repo.Get(ctx, doc.TenantID, doc.PersonaID); err != nil {
		return nil, err
	}
	doc.Filename = strings.TrimSpace(doc.Filename)
	if doc.Filename == "" {
		return nil, fmt.Errorf("%w: filename required", ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}
	if len(content) > MaxDocumentBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, MaxDocumentBytes)
	}
	doc.SizeBytes = int64(len(content))
	doc.Status = DocumentPending
	doc.UploadedBy = actorID

	created, err := s.repo.CreateDocument(ctx, doc, content)
	if err != nil {
		return nil, err
	}
	if s.queue != nil {
		if err := s.queue.EnqueueKnowledgeIngest(ctx, created.TenantID, created.ID); err != nil {
			// Upload succeeded. The nightly sweep re-queues pending docs.
			s.recordAudit(ctx, actorID, created.TenantID, "knowledge.enqueue_failed", created.ID, map[string]any{"error": err.Error()})
			return created, nil
		}
	}
	s.recordAudit(ctx, actorID, created.TenantID, "knowledge.upload", created.ID, map[string]any{"filename": created.Filename})
	return created, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, tenantID, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   action,
		Entity:   "persona",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
