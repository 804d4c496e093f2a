package rbac

import "context"

// Identity is the resolved signed-in actor for one request. It is immutable
// for the request lifetime and never cached across requests.
type Identity struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	// Role is the parsed role; empty when RawRole is outside the closed set.
	Role Role `json:"role"`
	// RawRole preserves the stored value for diagnostics when parsing fails.
	RawRole  string `json:"-"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Can is a convenience wrapper over the package policy. Unknown
// capabilities deny; use Can directly when the error matters.
func (id *Identity) Can(capability Capability) bool {
	if id == nil {
		return false
	}
	ok, err := Can(id.Role, capability)
	return err == nil && ok
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context so the guard,
// the navigation composer, and record affordance checks share one
// resolution per request.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the identity, nil when unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*Identity)
	return identity
}
