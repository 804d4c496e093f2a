package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	identity *Identity
	err      error
	// block, when set, delays resolution until the channel closes or the
	// context is cancelled.
	block chan struct{}
}

func (s *stubResolver) Resolve(ctx context.Context, r *http.Request) (*Identity, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, &ResolutionError{Reason: "cancelled", Err: ctx.Err()}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newGuard(resolver Resolver) *Guard {
	return NewGuard(resolver, nil, "/signin", "/dashboard")
}

func TestGuardUnauthenticatedRedirectsToSignin(t *testing.T) {
	guard := newGuard(&stubResolver{err: ErrUnauthenticated})
	req := httptest.NewRequest(http.MethodGet, "/users?page=2", nil)

	decision := guard.Evaluate(req.Context(), req, Requirement{Capability: CapViewUsers})

	assert.Equal(t, StateUnauthenticated, decision.State)
	assert.Equal(t, "/signin?from=%2Fusers%3Fpage%3D2", decision.RedirectTarget)
	assert.Nil(t, decision.Identity)
}

func TestGuardResolutionFailureGatesLikeUnauthenticated(t *testing.T) {
	guard := newGuard(&stubResolver{err: &ResolutionError{Reason: "profile lookup", Err: errors.New("db down")}})
	req := httptest.NewRequest(http.MethodGet, "/users", nil)

	decision := guard.Evaluate(req.Context(), req, Requirement{Capability: CapViewUsers})

	assert.Equal(t, StateUnauthenticated, decision.State)
	assert.Equal(t, "/signin?from=%2Fusers", decision.RedirectTarget)
}

func TestGuardUnauthorizedRedirectsToLanding(t *testing.T) {
	guard := newGuard(&stubResolver{identity: &Identity{ID: 7, Role: RoleManager}})
	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)

	decision := guard.Evaluate(req.Context(), req, Requirement{Capability: CapManageRoles})

	assert.Equal(t, StateUnauthorized, decision.State)
	assert.Equal(t, "/dashboard", decision.RedirectTarget)
}

func TestGuardAuthorized(t *testing.T) {
	identity := &Identity{ID: 7, Role: RoleAdmin, TenantID: "T1"}
	guard := newGuard(&stubResolver{identity: identity})
	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)

	decision := guard.Evaluate(req.Context(), req, Requirement{Capability: CapManageRoles})

	assert.Equal(t, StateAuthorized, decision.State)
	assert.Same(t, identity, decision.Identity)
	assert.Empty(t, decision.RedirectTarget)
}

func TestGuardUnknownRoleDeniesEverything(t *testing.T) {
	guard := newGuard(&stubResolver{identity: &Identity{ID: 9, Role: Role("legacy-role"), RawRole: "legacy-role"}})
	for _, capability := range Capabilities() {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		decision := guard.Evaluate(req.Context(), req, Requirement{Capability: capability})
		assert.Equal(t, StateUnauthorized, decision.State, "capability=%s", capability)
	}
}

func TestGuardLegacyRoleRequirement(t *testing.T) {
	guard := newGuard(&stubResolver{identity: &Identity{ID: 4, Role: RoleSupervisor}})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	decision := guard.Evaluate(req.Context(), req, Requirement{AllowedRoles: []Role{RoleSupervisor, RoleManager}})
	assert.Equal(t, StateAuthorized, decision.State)

	decision = guard.Evaluate(req.Context(), req, Requirement{AllowedRoles: []Role{RoleAdmin}})
	assert.Equal(t, StateUnauthorized, decision.State)
}

func TestGuardUnknownCapabilityDenies(t *testing.T) {
	guard := newGuard(&stubResolver{identity: &Identity{ID: 1, Role: RoleSuperAdmin}})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	decision := guard.Evaluate(req.Context(), req, Requirement{Capability: Capability("made:up")})
	assert.Equal(t, StateUnauthorized, decision.State)
}

func TestMiddlewareNeverInvokesHandlerBeforeAuthorization(t *testing.T) {
	release := make(chan struct{})
	resolver := &stubResolver{identity: &Identity{ID: 1, Role: RoleAdmin}, block: release}
	mw := Middleware{Guard: newGuard(resolver)}

	invoked := make(chan struct{})
	handler := mw.RequireCapability(CapViewUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(invoked)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()

	// While resolution is pending the protected handler must not have run.
	select {
	case <-invoked:
		t.Fatal("handler invoked before authorization settled")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done
	select {
	case <-invoked:
	default:
		t.Fatal("handler not invoked after authorization")
	}
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareCancelledRequestWritesNothing(t *testing.T) {
	resolver := &stubResolver{identity: &Identity{ID: 1, Role: RoleAdmin}, block: make(chan struct{})}
	mw := Middleware{Guard: newGuard(resolver)}

	handlerRan := false
	handler := mw.RequireCapability(CapViewUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/users", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()
	cancel()
	<-done

	require.False(t, handlerRan)
	assert.Zero(t, rec.Body.Len(), "no bytes may be written after cancellation")
	assert.False(t, rec.Flushed)
}

func TestMiddlewareResponses(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		mw := Middleware{Guard: newGuard(&stubResolver{err: ErrUnauthenticated})}
		handler := mw.RequireCapability(CapViewUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "/signin?from=%2Fusers")
	})

	t.Run("unauthorized", func(t *testing.T) {
		mw := Middleware{Guard: newGuard(&stubResolver{identity: &Identity{ID: 2, Role: RoleEmployee}})}
		handler := mw.RequireCapability(CapViewUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "/dashboard")
	})

	t.Run("identity reaches handler context", func(t *testing.T) {
		identity := &Identity{ID: 3, Role: RoleAdmin}
		mw := Middleware{Guard: newGuard(&stubResolver{identity: identity})}
		handler := mw.RequireSignIn()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := IdentityFromContext(r.Context())
			require.Same(t, identity, got)
			w.WriteHeader(http.StatusNoContent)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
