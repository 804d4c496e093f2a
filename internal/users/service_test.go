package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

type mockRepository struct {
	accounts map[int64]*Account
	hashes   map[int64]string
	emails   map[string]bool
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts: make(map[int64]*Account),
		hashes:   make(map[int64]string),
		emails:   make(map[string]bool),
		nextID:   1,
	}
}

func (m *mockRepository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Account, int, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, tenantID string, id int64) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, a Account, passwordHash string) (*Account, error) {
	if m.emails[a.Email] {
		return nil, ErrEmailTaken
	}
	a.ID = m.nextID
	m.nextID++
	a.Active = true
	a.CreatedAt = time.Now()
	m.accounts[a.ID] = &a
	m.hashes[a.ID] = passwordHash
	m.emails[a.Email] = true
	cp := a
	return &cp, nil
}

func (m *mockRepository) SetActive(ctx context.Context, tenantID string, id int64, active bool) error {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return shared.ErrNotFound
	}
	a.Active = active
	return nil
}

func (m *mockRepository) SetRole(ctx context.Context, tenantID string, id int64, role string) error {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return shared.ErrNotFound
	}
	a.Role = role
	return nil
}

func admin() *rbac.Identity {
	return &rbac.Identity{ID: 100, Role: rbac.RoleAdmin, TenantID: "T1"}
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), admin(), "Dana@Example.com", "Dana", "correct-horse-battery", "employee")
	require.NoError(t, err)

	assert.Equal(t, "dana@example.com", created.Email)
	assert.Equal(t, "Employee", created.RoleLabel)
	assert.True(t, created.Active)
	require.NotEmpty(t, repo.hashes[created.ID])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[created.ID]), []byte("correct-horse-battery")))
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), admin(), "not-an-email", "Dana", "correct-horse-battery", "employee")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), admin(), "dana@example.com", "", "correct-horse-battery", "employee")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), admin(), "dana@example.com", "Dana", "short", "employee")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), admin(), "dana@example.com", "Dana", "correct-horse-battery", "wizard")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), admin(), "dana@example.com", "Dana", "correct-horse-battery", "employee")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin(), "dana@example.com", "Dana 2", "correct-horse-battery", "employee")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRoleAssignmentRespectsRank(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	// Admins grant roles below their own rank only.
	_, err := svc.Create(context.Background(), admin(), "gm@example.com", "GM", "correct-horse-battery", "general-manager")
	assert.NoError(t, err)

	_, err = svc.Create(context.Background(), admin(), "peer@example.com", "Peer", "correct-horse-battery", "admin")
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	_, err = svc.Create(context.Background(), admin(), "op@example.com", "Op", "correct-horse-battery", "super-admin")
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	// The platform operator can grant anything.
	operator := &rbac.Identity{ID: 200, Role: rbac.RoleSuperAdmin, TenantID: "T1"}
	_, err = svc.Create(context.Background(), operator, "admin2@example.com", "Admin", "correct-horse-battery", "admin")
	assert.NoError(t, err)
}

func TestAssignRoleCannotDemoteSuperior(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	operator := &rbac.Identity{ID: 200, Role: rbac.RoleSuperAdmin, TenantID: "T1"}
	target, err := svc.Create(context.Background(), operator, "admin@example.com", "Admin", "correct-horse-battery", "admin")
	require.NoError(t, err)

	// A manager cannot touch an admin's role even with the capability.
	manager := &rbac.Identity{ID: 300, Role: rbac.RoleManager, TenantID: "T1"}
	_, err = svc.AssignRole(context.Background(), manager, target.ID, "employee")
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	updated, err := svc.AssignRole(context.Background(), operator, target.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Role)
}

func TestSelfTargetBlocked(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	actor := admin()
	err := svc.SetActive(context.Background(), actor, actor.ID, false)
	assert.ErrorIs(t, err, ErrSelfTarget)

	_, err = svc.AssignRole(context.Background(), actor, actor.ID, "employee")
	assert.ErrorIs(t, err, ErrSelfTarget)
}

func TestDeactivateAndReactivate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), admin(), "dana@example.com", "Dana", "correct-horse-battery", "employee")
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(context.Background(), admin(), created.ID, false))
	assert.False(t, repo.accounts[created.ID].Active)

	require.NoError(t, svc.SetActive(context.Background(), admin(), created.ID, true))
	assert.True(t, repo.accounts[created.ID].Active)
}
