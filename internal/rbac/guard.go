package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// State is the terminal outcome of one guard evaluation.
type State string

const (
	StateAuthorized      State = "authorized"
	StateUnauthorized    State = "unauthorized"
	StateUnauthenticated State = "unauthenticated"
)

// ErrUnauthenticated is the expected outcome when no principal is signed
// in. It is not logged as exceptional.
var ErrUnauthenticated = errors.New("rbac: unauthenticated")

// ResolutionError wraps a collaborator failure while establishing identity.
// Gating treats it like ErrUnauthenticated; the reason is kept for logs.
type ResolutionError struct {
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rbac: resolution failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("rbac: resolution failed (%s)", e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver produces the current identity from the ambient session.
// Implementations must return ErrUnauthenticated for the no-session case
// and *ResolutionError for collaborator failures, and must honour ctx
// cancellation.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) (*Identity, error)
}

// Requirement describes what a protected surface demands. Zero value means
// sign-in only. AllowedRoles is the coarse legacy form; it is evaluated
// with the same fail-closed semantics as the capability table.
type Requirement struct {
	Capability   Capability
	AllowedRoles []Role
}

// Decision is the guard outcome handed to the presentation shell.
type Decision struct {
	State          State     `json:"state"`
	RedirectTarget string    `json:"redirect_target,omitempty"`
	Identity       *Identity `json:"-"`
}

// Guard gates protected surfaces behind authentication and policy.
type Guard struct {
	resolver    Resolver
	logger      *slog.Logger
	signinPath  string
	landingPath string
}

// NewGuard constructs a Guard. signinPath receives unauthenticated
// traffic, landingPath receives authenticated-but-unauthorized traffic.
func NewGuard(resolver Resolver, logger *slog.Logger, signinPath, landingPath string) *Guard {
	if signinPath == "" {
		signinPath = "/signin"
	}
	if landingPath == "" {
		landingPath = "/dashboard"
	}
	return &Guard{resolver: resolver, logger: logger, signinPath: signinPath, landingPath: landingPath}
}

// Evaluate classifies the request into exactly one terminal state. Raw
// resolver errors never escape: collaborator failures are logged and
// grouped with the unauthenticated outcome, policy denials are not errors.
func (g *Guard) Evaluate(ctx context.Context, r *http.Request, req Requirement) Decision {
	identity, err := g.resolver.Resolve(ctx, r)
	if err != nil {
		var resErr *ResolutionError
		switch {
		case errors.Is(err, ErrUnauthenticated):
			// Expected, frequent; not logged.
		case errors.As(err, &resErr):
			if g.logger != nil {
				g.logger.Error("identity resolution failed",
					slog.String("reason", resErr.Reason),
					slog.Any("error", resErr.Err))
			}
		default:
			if g.logger != nil {
				g.logger.Error("identity resolution failed", slog.Any("error", err))
			}
		}
		return Decision{State: StateUnauthenticated, RedirectTarget: g.signinTarget(r)}
	}

	if !g.authorize(identity, req) {
		return Decision{State: StateUnauthorized, RedirectTarget: g.landingPath, Identity: identity}
	}
	return Decision{State: StateAuthorized, Identity: identity}
}

func (g *Guard) authorize(identity *Identity, req Requirement) bool {
	if identity == nil {
		return false
	}
	if req.Capability != "" {
		ok, err := Can(identity.Role, req.Capability)
		if err != nil {
			// Programming error: a route demanded a capability that has
			// no policy entry. Deny and make noise.
			if g.logger != nil {
				g.logger.Error("capability has no policy entry",
					slog.String("capability", string(req.Capability)))
			}
			return false
		}
		return ok
	}
	if len(req.AllowedRoles) > 0 {
		if !identity.Role.Known() {
			return false
		}
		for _, allowed := range req.AllowedRoles {
			if identity.Role == allowed {
				return true
			}
		}
		return false
	}
	// Sign-in only requirement.
	return true
}

func (g *Guard) signinTarget(r *http.Request) string {
	from := r.URL.Path
	if r.URL.RawQuery != "" {
		from += "?" + r.URL.RawQuery
	}
	return g.signinPath + "?from=" + url.QueryEscape(from)
}

// LandingPath returns the default authenticated landing target.
func (g *Guard) LandingPath() string { return g.landingPath }
