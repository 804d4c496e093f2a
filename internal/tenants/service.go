package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// ErrValidation wraps input problems the handler maps to 400.
var ErrValidation = errors.New("tenants: validation")

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	Panel(ctx context.Context) ([]PanelRow, error)
	Get(ctx context.Context, id string) (*Tenant, error)
	SetStatus(ctx context.Context, id, status string) error
}

// Service handles platform-level tenant administration.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Panel returns the operator overview of every tenant.
func (s *Service) Panel(ctx context.Context) ([]PanelRow, error) {
	return s.repo.Panel(ctx)
}

// SetStatus suspends or reactivates a tenant.
func (s *Service) SetStatus(ctx context.Context, actor *rbac.Identity, id, status string) (*Tenant, error) {
	if status != StatusActive && status != StatusSuspended {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			TenantID: id,
			Action:   "tenant." + status,
			Entity:   "tenant",
			EntityID: id,
		})
	}
	return s.repo.Get(ctx, id)
}
