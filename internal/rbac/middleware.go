package rbac

import (
	"context"
	"errors"
	"net/http"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
)

// Middleware wires guard evaluation into chi routes.
type Middleware struct {
	Guard *Guard
}

// RequireSignIn gates a route behind authentication only.
func (m Middleware) RequireSignIn() func(http.Handler) http.Handler {
	return m.require(Requirement{})
}

// RequireCapability gates a route behind a named capability.
func (m Middleware) RequireCapability(capability Capability) func(http.Handler) http.Handler {
	return m.require(Requirement{Capability: capability})
}

// RequireRoles gates a route behind an explicit role set. Kept for coarse
// legacy checks; prefer RequireCapability.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return m.require(Requirement{AllowedRoles: roles})
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			decision := m.Guard.Evaluate(ctx, r, req)

			// The client went away mid-resolution; write nothing.
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}

			switch decision.State {
			case StateAuthorized:
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(ctx, decision.Identity)))
			case StateUnauthenticated:
				httpx.ProblemWithRedirect(w, http.StatusUnauthorized, "Sign In Required", decision.RedirectTarget)
			default:
				httpx.ProblemWithRedirect(w, http.StatusForbidden, "Forbidden", decision.RedirectTarget)
			}
		})
	}
}
