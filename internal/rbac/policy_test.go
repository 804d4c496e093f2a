package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyLint(t *testing.T) {
	require.NoError(t, LintPolicy())
}

func TestCanFailsClosedOnUnknownRole(t *testing.T) {
	for _, capability := range Capabilities() {
		for _, raw := range []Role{"", "legacy-role", "owner"} {
			ok, err := Can(raw, capability)
			require.NoError(t, err)
			assert.False(t, ok, "capability=%s role=%q", capability, raw)
		}
	}
}

func TestCanUnknownCapabilityIsAnError(t *testing.T) {
	ok, err := Can(RoleAdmin, Capability("view:nonexistent"))
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrUnknownCapability)
}

func TestSuperAdminSupersetExceptExclusions(t *testing.T) {
	excluded := map[Capability]bool{
		CapViewPricing:         true,
		CapManageSubscriptions: true,
	}
	for _, capability := range Capabilities() {
		adminOK, err := Can(RoleAdmin, capability)
		require.NoError(t, err)
		superOK, err := Can(RoleSuperAdmin, capability)
		require.NoError(t, err)
		if excluded[capability] {
			continue
		}
		if adminOK {
			assert.True(t, superOK, "super-admin must inherit %s from admin", capability)
		}
	}
}

func TestPricingExclusion(t *testing.T) {
	adminOK, err := Can(RoleAdmin, CapViewPricing)
	require.NoError(t, err)
	assert.True(t, adminOK)

	superOK, err := Can(RoleSuperAdmin, CapViewPricing)
	require.NoError(t, err)
	assert.False(t, superOK)

	superSub, err := Can(RoleSuperAdmin, CapManageSubscriptions)
	require.NoError(t, err)
	assert.False(t, superSub)
}

func TestEmployeeCannotViewUsers(t *testing.T) {
	ok, err := Can(RoleEmployee, CapViewUsers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAny(t *testing.T) {
	ok, err := CanAny(RoleManager, CapViewUsers, CapViewTeamAnalytics)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanAny(RoleEmployee, CapViewUsers, CapManageRoles)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CanAny(RoleEmployee, Capability("made:up"))
	require.ErrorIs(t, err, ErrUnknownCapability)
}

func TestGrantsPreserveDeclarationOrder(t *testing.T) {
	grants := Grants(RoleSuperAdmin)
	require.NotEmpty(t, grants)
	index := make(map[Capability]int, len(Capabilities()))
	for i, capability := range Capabilities() {
		index[capability] = i
	}
	prev := -1
	for _, capability := range grants {
		pos, ok := index[capability]
		require.True(t, ok)
		assert.Greater(t, pos, prev)
		prev = pos
	}
}

func TestAllowedRolesAppliesExclusions(t *testing.T) {
	roles, err := AllowedRoles(CapViewPricing)
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleAdmin}, roles)

	_, err = AllowedRoles(Capability("made:up"))
	require.ErrorIs(t, err, ErrUnknownCapability)
}

func TestCanActOnRecord(t *testing.T) {
	admin := &Identity{ID: 1, Role: RoleAdmin}
	employee := &Identity{ID: 2, Role: RoleEmployee}
	legacy := &Identity{ID: 3, Role: Role("legacy-role"), RawRole: "legacy-role"}

	assert.True(t, CanActOnRecord(admin, CapManageScenarios, nil))
	assert.False(t, CanActOnRecord(employee, CapManageScenarios, nil))
	assert.False(t, CanActOnRecord(legacy, CapManageScenarios, nil))
	assert.False(t, CanActOnRecord(nil, CapManageScenarios, nil))
	assert.False(t, CanActOnRecord(admin, Capability("made:up"), nil))
}
