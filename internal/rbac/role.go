// Package rbac implements the role and capability model gating every
// protected surface: routes, navigation menus, and per-record controls.
package rbac

import "errors"

// Role is a member of the closed role set. Values outside the set are
// treated as having no access.
type Role string

// The closed role set, ordered by privilege.
const (
	RoleEmployee       Role = "employee"
	RoleSupervisor     Role = "supervisor"
	RoleManager        Role = "manager"
	RoleGeneralManager Role = "general-manager"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "super-admin"
)

// ErrUnknownRole indicates a role value outside the closed set, usually
// schema drift on a profile row. Callers must treat it as unauthenticated.
var ErrUnknownRole = errors.New("rbac: unknown role")

var roleRanks = map[Role]int{
	RoleEmployee:       1,
	RoleSupervisor:     2,
	RoleManager:        3,
	RoleGeneralManager: 4,
	RoleAdmin:          5,
	RoleSuperAdmin:     6,
}

// Roles returns the closed set ordered from least to most privileged.
func Roles() []Role {
	return []Role{RoleEmployee, RoleSupervisor, RoleManager, RoleGeneralManager, RoleAdmin, RoleSuperAdmin}
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := roleRanks[role]; !ok {
		return "", ErrUnknownRole
	}
	return role, nil
}

// Known reports whether the role belongs to the closed set.
func (r Role) Known() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the privilege order value, higher meaning more privileged.
func Rank(r Role) (int, error) {
	rank, ok := roleRanks[r]
	if !ok {
		return 0, ErrUnknownRole
	}
	return rank, nil
}

// Rank returns the privilege order value, higher meaning more
// privileged. Roles outside the closed set rank zero, below every
// known role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r is at least as privileged as min.
// Unknown roles never satisfy any minimum.
func AtLeast(r, min Role) bool {
	rank, ok := roleRanks[r]
	if !ok {
		return false
	}
	minRank, ok := roleRanks[min]
	if !ok {
		return false
	}
	return rank >= minRank
}

// IsElevated reports whether the role is one of the two elevated tiers.
func IsElevated(r Role) bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsSuperAdmin reports whether the role is the top tier.
func IsSuperAdmin(r Role) bool {
	return r == RoleSuperAdmin
}
