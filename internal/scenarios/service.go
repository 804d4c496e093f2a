package scenarios

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pitchlab/pitchlab/internal/shared"
)

// ErrValidation wraps input problems the handler maps to 400.
var ErrValidation = errors.New("scenarios: validation")

// RepositoryPort defines data access methods for scenarios.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filters ListFilters) ([]Scenario, int, error)
	Get(ctx context.Context, tenantID string, id int64) (*Scenario, error)
	Create(ctx context.Context, s Scenario) (*Scenario, error)
	Update(ctx context.Context, s Scenario) (*Scenario, error)
	Delete(ctx context.Context, tenantID string, id int64) error
}

// Service handles scenario business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the tenant's scenarios with pagination metadata.
func (s *Service) List(ctx context.Context, tenantID string, filters ListFilters) ([]Scenario, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get fetches one scenario.
func (s *Service) Get(ctx context.Context, tenantID string, id int64) (*Scenario, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// Create validates and inserts a new scenario.
func (s *Service) Create(ctx context.Context, actorID int64, sc Scenario) (*Scenario, error) {
	sc.Title = strings.TrimSpace(sc.Title)
	if sc.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if sc.Difficulty == "" {
		sc.Difficulty = DifficultyMedium
	}
	if !validDifficulty(sc.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, sc.Difficulty)
	}
	if sc.Status == "" {
		sc.Status = StatusDraft
	}
	if !validStatus(sc.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, sc.Status)
	}
	sc.CreatedBy = actorID

	created, err := s.repo.Create(ctx, sc)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, created.TenantID, "scenario.create", created.ID, nil)
	return created, nil
}

// Update validates and rewrites a scenario.
func (s *Service) Update(ctx context.Context, actorID int64, sc Scenario) (*Scenario, error) {
	existing, err := s.repo.Get(ctx, sc.TenantID, sc.ID)
	if err != nil {
		return nil, err
	}

	sc.Title = strings.TrimSpace(sc.Title)
	if sc.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if !validDifficulty(sc.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, sc.Difficulty)
	}
	if !validStatus(sc.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, sc.Status)
	}
	if existing.Status == StatusArchived && sc.Status != StatusArchived {
		return nil, fmt.Errorf("%w: archived scenarios cannot be reopened", ErrValidation)
	}

	updated, err := s.repo.Update(ctx, sc)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, updated.TenantID, "scenario.update", updated.ID, map[string]any{"status": updated.Status})
	return updated, nil
}

// Delete removes a scenario.
func (s *Service) Delete(ctx context.Context, actorID int64, tenantID string, id int64) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, tenantID, "scenario.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, tenantID, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   action,
		Entity:   "scenario",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
