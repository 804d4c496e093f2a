// Package nav builds the role-appropriate navigation menus for each
// dashboard surface. Item order is owned by the static lists here; the
// composer only filters.
package nav

import "github.com/pitchlab/pitchlab/internal/rbac"

// MenuItem is one navigation entry. An empty RequiredCapability means the
// item is visible to every signed-in identity.
type MenuItem struct {
	Path               string          `json:"path"`
	Label              string          `json:"label"`
	RequiredCapability rbac.Capability `json:"-"`
}

// Surface identifies a navigation area of the dashboard shell.
type Surface string

const (
	SurfaceSidebar Surface = "sidebar"
	SurfaceTopbar  Surface = "topbar"
	SurfaceMobile  Surface = "mobile"
)

// sidebarItems is the full desktop navigation.
var sidebarItems = []MenuItem{
	{Path: "/dashboard", Label: "Dashboard"},
	{Path: "/scenarios", Label: "Scenarios", RequiredCapability: rbac.CapViewScenarios},
	{Path: "/personas", Label: "Personas", RequiredCapability: rbac.CapViewPersonas},
	{Path: "/analytics", Label: "Analytics", RequiredCapability: rbac.CapViewAnalytics},
	{Path: "/analytics/team", Label: "Team Analytics", RequiredCapability: rbac.CapViewTeamAnalytics},
	{Path: "/users", Label: "Users", RequiredCapability: rbac.CapViewUsers},
	{Path: "/roles", Label: "Roles", RequiredCapability: rbac.CapManageRoles},
	{Path: "/billing", Label: "Billing", RequiredCapability: rbac.CapViewBilling},
	{Path: "/billing/pricing", Label: "Pricing", RequiredCapability: rbac.CapViewPricing},
	{Path: "/admin", Label: "Admin Panel", RequiredCapability: rbac.CapViewSuperAdminPanel},
	{Path: "/audit", Label: "Audit Log", RequiredCapability: rbac.CapViewAuditLog},
}

// topbarItems is the slim desktop top navigation.
var topbarItems = []MenuItem{
	{Path: "/dashboard", Label: "Dashboard"},
	{Path: "/scenarios", Label: "Scenarios", RequiredCapability: rbac.CapViewScenarios},
	{Path: "/analytics", Label: "Analytics", RequiredCapability: rbac.CapViewAnalytics},
	{Path: "/billing", Label: "Billing", RequiredCapability: rbac.CapViewBilling},
}

// mobileItems is the mobile bottom bar, capped at five entries by the shell.
var mobileItems = []MenuItem{
	{Path: "/dashboard", Label: "Home"},
	{Path: "/scenarios", Label: "Scenarios", RequiredCapability: rbac.CapViewScenarios},
	{Path: "/personas", Label: "Personas", RequiredCapability: rbac.CapViewPersonas},
	{Path: "/analytics", Label: "Analytics", RequiredCapability: rbac.CapViewAnalytics},
	{Path: "/users", Label: "Users", RequiredCapability: rbac.CapViewUsers},
}

// ItemsForSurface returns the curated static list for a surface, nil for
// an unknown surface.
func ItemsForSurface(surface Surface) []MenuItem {
	switch surface {
	case SurfaceSidebar:
		return sidebarItems
	case SurfaceTopbar:
		return topbarItems
	case SurfaceMobile:
		return mobileItems
	default:
		return nil
	}
}
