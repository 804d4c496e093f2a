package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// ProfileStore is the slice of Repository the resolver needs.
type ProfileStore interface {
	FindProfile(ctx context.Context, userID int64) (*Profile, error)
}

// SessionResolver turns the ambient session into an Identity. It reads
// session and profile state and never mutates either.
type SessionResolver struct {
	store   ProfileStore
	timeout time.Duration
	group   singleflight.Group
}

// NewSessionResolver constructs a resolver. timeout bounds the profile
// lookup so an unreachable backend cannot hold a page in pending forever.
func NewSessionResolver(store ProfileStore, timeout time.Duration) *SessionResolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SessionResolver{store: store, timeout: timeout}
}

// Resolve implements rbac.Resolver. Outcomes:
//   - a memoized identity from an earlier resolution on this request;
//   - rbac.ErrUnauthenticated when no principal is signed in (expected,
//     not an error);
//   - *rbac.ResolutionError when the principal is malformed or the profile
//     lookup fails;
//   - an Identity otherwise. A stored role outside the closed set is NOT a
//     resolution failure: the identity carries it as-is and the policy
//     layer fails closed.
func (r *SessionResolver) Resolve(ctx context.Context, req *http.Request) (*rbac.Identity, error) {
	if identity := rbac.IdentityFromContext(ctx); identity != nil {
		return identity, nil
	}

	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return nil, rbac.ErrUnauthenticated
	}

	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return nil, &rbac.ResolutionError{Reason: "malformed session principal", Err: err}
	}

	// Concurrent resolutions for the same session share one lookup. The
	// lookup runs detached from any single request so one caller's
	// cancellation cannot poison the others, but stays bounded.
	result := r.group.DoChan(sess.ID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.store.FindProfile(lookupCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, &rbac.ResolutionError{Reason: "request cancelled", Err: ctx.Err()}
	case res := <-result:
		if res.Err != nil {
			if errors.Is(res.Err, shared.ErrNotFound) {
				return nil, &rbac.ResolutionError{Reason: "profile missing", Err: res.Err}
			}
			return nil, &rbac.ResolutionError{Reason: "profile lookup", Err: res.Err}
		}
		profile := res.Val.(*Profile)
		return &rbac.Identity{
			ID:          profile.UserID,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			Role:        rbac.Role(profile.Role),
			RawRole:     profile.Role,
			TenantID:    profile.TenantID,
		}, nil
	}
}

var _ rbac.Resolver = (*SessionResolver)(nil)
