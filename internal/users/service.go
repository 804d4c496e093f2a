package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

var (
	// ErrValidation wraps input problems the handler maps to 400.
	ErrValidation = errors.New("users: validation")
	// ErrEmailTaken signals a duplicate email address.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrRoleNotAssignable signals the actor cannot grant the requested role.
	ErrRoleNotAssignable = errors.New("users: role not assignable")
	// ErrSelfTarget blocks actors from deactivating or demoting themselves.
	ErrSelfTarget = errors.New("users: cannot target own account")
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filters ListFilters) ([]Account, int, error)
	Get(ctx context.Context, tenantID string, id int64) (*Account, error)
	Create(ctx context.Context, a Account, passwordHash string) (*Account, error)
	SetActive(ctx context.Context, tenantID string, id int64, active bool) error
	SetRole(ctx context.Context, tenantID string, id int64, role string) error
}

// Service handles account administration.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the tenant's accounts with pagination metadata.
func (s *Service) List(ctx context.Context, tenantID string, filters ListFilters) ([]Account, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range list {
		list[i].Decorate()
	}
	return list, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// assignable reports whether actor may grant role. Roles are granted
// strictly below the actor's own rank; the platform operator may grant
// anything including another super-admin.
func assignable(actor *rbac.Identity, role rbac.Role) bool {
	if !role.Known() {
		return false
	}
	if actor.Role == rbac.RoleSuperAdmin {
		return true
	}
	return actor.Role.Rank() > role.Rank()
}

// Create registers a new account in the actor's tenant.
func (s *Service) Create(ctx context.Context, actor *rbac.Identity, email, displayName, password, role string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name required", ErrValidation)
	}
	if len(password) < 10 {
		return nil, fmt.Errorf("%w: password must be at least 10 characters", ErrValidation)
	}
	parsed, err := rbac.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if !assignable(actor, parsed) {
		return nil, ErrRoleNotAssignable
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, Account{
		Email:       email,
		DisplayName: displayName,
		Role:        string(parsed),
		TenantID:    actor.TenantID,
	}, string(hash))
	if err != nil {
		return nil, err
	}
	created.Decorate()
	s.recordAudit(ctx, actor, "user.create", created.ID, map[string]any{"role": created.Role})
	return created, nil
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, actor *rbac.Identity, id int64, active bool) error {
	if id == actor.ID {
		return ErrSelfTarget
	}
	if err := s.repo.SetActive(ctx, actor.TenantID, id, active); err != nil {
		return err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	s.recordAudit(ctx, actor, action, id, nil)
	return nil
}

// AssignRole moves an account to a new role.
func (s *Service) AssignRole(ctx context.Context, actor *rbac.Identity, id int64, role string) (*Account, error) {
	if id == actor.ID {
		return nil, ErrSelfTarget
	}
	parsed, err := rbac.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if !assignable(actor, parsed) {
		return nil, ErrRoleNotAssignable
	}
	target, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	// The actor must outrank the current role too, or they could
	// demote their own superiors.
	if actor.Role != rbac.RoleSuperAdmin && rbac.Role(target.Role).Known() &&
		rbac.Role(target.Role).Rank() >= actor.Role.Rank() {
		return nil, ErrRoleNotAssignable
	}
	if err := s.repo.SetRole(ctx, actor.TenantID, id, string(parsed)); err != nil {
		return nil, err
	}
	target.Role = string(parsed)
	target.Decorate()
	s.recordAudit(ctx, actor, "user.assign_role", id, map[string]any{"role": target.Role})
	return target, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *rbac.Identity, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		TenantID: actor.TenantID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
