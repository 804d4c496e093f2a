package rbac

import (
	"errors"
	"fmt"
)

// Capability is a named permission a route, menu item, or record control
// may require.
type Capability string

// The closed capability set. Adding a screen means adding an entry here
// and in the policy table, never an inline role comparison at a call site.
const (
	CapViewScenarios   Capability = "view:scenarios"
	CapManageScenarios Capability = "manage:scenarios"

	CapViewPersonas   Capability = "view:personas"
	CapManagePersonas Capability = "manage:personas"

	CapViewAnalytics     Capability = "view:analytics"
	CapViewTeamAnalytics Capability = "view:team-analytics"

	CapViewUsers   Capability = "view:users"
	CapManageUsers Capability = "manage:users"
	CapManageRoles Capability = "manage:roles"

	CapViewBilling         Capability = "view:billing"
	CapViewPricing         Capability = "view:pricing"
	CapManageSubscriptions Capability = "manage:subscriptions"

	CapViewSuperAdminPanel Capability = "view:super-admin-panel"
	CapViewAuditLog        Capability = "view:audit-log"
)

// ErrUnknownCapability indicates a capability with no policy entry. This is
// a programming error, not a user-facing denial, and must never resolve to
// an allow.
var ErrUnknownCapability = errors.New("rbac: unknown capability")

// grant holds the allow-list for one capability plus optional exclusions.
// Exclusions override the allow-list and exist to express policies such as
// "admin, but not super-admin" as data instead of scattered special cases.
type grant struct {
	allow   []Role
	exclude []Role
}

func allRoles() []Role { return Roles() }

func rolesAtLeast(min Role) []Role {
	var out []Role
	for _, r := range Roles() {
		if AtLeast(r, min) {
			out = append(out, r)
		}
	}
	return out
}

var policyTable = map[Capability]grant{
	CapViewScenarios:   {allow: allRoles()},
	CapManageScenarios: {allow: rolesAtLeast(RoleAdmin)},

	CapViewPersonas:   {allow: allRoles()},
	CapManagePersonas: {allow: rolesAtLeast(RoleAdmin)},

	CapViewAnalytics:     {allow: allRoles()},
	CapViewTeamAnalytics: {allow: rolesAtLeast(RoleManager)},

	CapViewUsers:   {allow: rolesAtLeast(RoleAdmin)},
	CapManageUsers: {allow: rolesAtLeast(RoleAdmin)},
	CapManageRoles: {allow: rolesAtLeast(RoleAdmin)},

	CapViewBilling: {allow: rolesAtLeast(RoleAdmin)},

	// Pricing and subscriptions belong to the tenant's own admin; the
	// platform super-admin is explicitly shut out.
	CapViewPricing:         {allow: rolesAtLeast(RoleAdmin), exclude: []Role{RoleSuperAdmin}},
	CapManageSubscriptions: {allow: rolesAtLeast(RoleAdmin), exclude: []Role{RoleSuperAdmin}},

	CapViewSuperAdminPanel: {allow: []Role{RoleSuperAdmin}},
	CapViewAuditLog:        {allow: rolesAtLeast(RoleAdmin)},
}

// capabilityOrder preserves a stable listing order for admin screens.
var capabilityOrder = []Capability{
	CapViewScenarios, CapManageScenarios,
	CapViewPersonas, CapManagePersonas,
	CapViewAnalytics, CapViewTeamAnalytics,
	CapViewUsers, CapManageUsers, CapManageRoles,
	CapViewBilling, CapViewPricing, CapManageSubscriptions,
	CapViewSuperAdminPanel, CapViewAuditLog,
}

// Capabilities returns the closed capability set in declaration order.
func Capabilities() []Capability {
	out := make([]Capability, len(capabilityOrder))
	copy(out, capabilityOrder)
	return out
}

// Can reports whether the role may exercise the capability. Unknown roles
// deny silently (fail closed); unknown capabilities return
// ErrUnknownCapability alongside a denial.
func Can(role Role, capability Capability) (bool, error) {
	g, ok := policyTable[capability]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownCapability, capability)
	}
	if !role.Known() {
		return false, nil
	}
	for _, excluded := range g.exclude {
		if role == excluded {
			return false, nil
		}
	}
	for _, allowed := range g.allow {
		if role == allowed {
			return true, nil
		}
	}
	return false, nil
}

// CanAny reports whether the role may exercise at least one capability.
func CanAny(role Role, capabilities ...Capability) (bool, error) {
	for _, capability := range capabilities {
		ok, err := Can(role, capability)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Grants returns the capabilities the role may exercise, in declaration order.
func Grants(role Role) []Capability {
	var out []Capability
	for _, capability := range capabilityOrder {
		if ok, err := Can(role, capability); err == nil && ok {
			out = append(out, capability)
		}
	}
	return out
}

// AllowedRoles returns the effective allow-list for a capability after
// exclusions are applied.
func AllowedRoles(capability Capability) ([]Role, error) {
	g, ok := policyTable[capability]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, capability)
	}
	var out []Role
	for _, role := range g.allow {
		excluded := false
		for _, e := range g.exclude {
			if role == e {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, role)
		}
	}
	return out, nil
}

// LintPolicy validates the static table: every declared capability must have
// a policy entry with at least one effective role, and every entry must be
// declared. A failure is a configuration error caught by tests.
func LintPolicy() error {
	declared := make(map[Capability]struct{}, len(capabilityOrder))
	for _, capability := range capabilityOrder {
		declared[capability] = struct{}{}
		roles, err := AllowedRoles(capability)
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			return fmt.Errorf("rbac: capability %s permits nobody", capability)
		}
	}
	for capability := range policyTable {
		if _, ok := declared[capability]; !ok {
			return fmt.Errorf("rbac: capability %s missing from declaration order", capability)
		}
	}
	return nil
}
