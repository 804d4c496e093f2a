package tenants

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

type stubResolver struct {
	identity *rbac.Identity
}

func (s *stubResolver) Resolve(ctx context.Context, r *http.Request) (*rbac.Identity, error) {
	if s.identity == nil {
		return nil, rbac.ErrUnauthenticated
	}
	return s.identity, nil
}

type stubRepo struct {
	tenants map[string]*Tenant
}

func (s *stubRepo) Panel(ctx context.Context) ([]PanelRow, error) {
	var rows []PanelRow
	for _, t := range s.tenants {
		rows = append(rows, PanelRow{Tenant: *t, PlanCode: "growth", Seats: 10, ActiveUsers: 4, Subscription: "active"})
	}
	return rows, nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (*Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *stubRepo) SetStatus(ctx context.Context, id, status string) error {
	t, ok := s.tenants[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	return nil
}

func newTestRouter(identity *rbac.Identity) (http.Handler, *stubRepo) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := rbac.NewGuard(&stubResolver{identity: identity}, logger, "/signin", "/dashboard")
	repo := &stubRepo{tenants: map[string]*Tenant{
		"T1": {ID: "T1", Name: "Acme Sales", Status: StatusActive, CreatedAt: time.Now()},
	}}
	handler := NewHandler(logger, NewService(repo, nil), rbac.Middleware{Guard: guard})

	r := chi.NewRouter()
	r.Route("/api/admin", handler.MountRoutes)
	return r, repo
}

func TestPanelVisibleToPlatformOperator(t *testing.T) {
	router, _ := newTestRouter(&rbac.Identity{ID: 1, Role: rbac.RoleSuperAdmin, TenantID: "platform"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/tenants", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Sales")
}

// Tenant admins run their own org but never see the platform panel.
func TestPanelHiddenFromTenantAdmin(t *testing.T) {
	router, _ := newTestRouter(&rbac.Identity{ID: 2, Role: rbac.RoleAdmin, TenantID: "T1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/tenants", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSuspendTenant(t *testing.T) {
	router, repo := newTestRouter(&rbac.Identity{ID: 1, Role: rbac.RoleSuperAdmin, TenantID: "platform"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/tenants/T1/status", strings.NewReader(`{"status":"suspended"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusSuspended, repo.tenants["T1"].Status)
}

func TestSuspendUnknownStatus(t *testing.T) {
	router, _ := newTestRouter(&rbac.Identity{ID: 1, Role: rbac.RoleSuperAdmin, TenantID: "platform"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/tenants/T1/status", strings.NewReader(`{"status":"parked"}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
