package billing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/rbac"
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

func newTestRouter(identity *rbac.Identity) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := rbac.NewGuard(&stubResolver{identity: identity}, logger, "/signin", "/dashboard")
	mw := rbac.Middleware{Guard: guard}

	repo := newMockRepository()
	seedSubscription(repo, "T1", "growth", 4, StatusActive)
	handler := NewHandler(logger, NewService(repo, nil), mw)

	r := chi.NewRouter()
	r.Route("/api/billing", handler.MountRoutes)
	return r
}

func TestPricingVisibleToTenantAdmin(t *testing.T) {
	router := newTestRouter(&rbac.Identity{ID: 1, Role: rbac.RoleAdmin, TenantID: "T1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/billing/pricing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "starter")
}

// Platform operators administer tenants but never see customer pricing.
func TestPricingHiddenFromPlatformOperator(t *testing.T) {
	router := newTestRouter(&rbac.Identity{ID: 2, Role: rbac.RoleSuperAdmin, TenantID: "T1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/billing/pricing", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubscriptionChangeHiddenFromPlatformOperator(t *testing.T) {
	router := newTestRouter(&rbac.Identity{ID: 2, Role: rbac.RoleSuperAdmin, TenantID: "T1"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/billing/subscription", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// The summary stays visible to platform operators; only the pricing
// catalogue and subscription changes are excluded.
func TestBillingSummaryVisibleToPlatformOperator(t *testing.T) {
	router := newTestRouter(&rbac.Identity{ID: 3, Role: rbac.RoleSuperAdmin, TenantID: "T1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/billing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "monthly_cents")
}

func TestBillingRequiresAuthentication(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/billing", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
