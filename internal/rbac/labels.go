package rbac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// RoleLabel renders a role for display, e.g. "general-manager" becomes
// "General Manager".
func RoleLabel(r Role) string {
	return titleCaser.String(strings.ReplaceAll(string(r), "-", " "))
}

// CapabilityLabel renders a capability for display, e.g. "manage:roles"
// becomes "Manage Roles".
func CapabilityLabel(c Capability) string {
	s := strings.ReplaceAll(string(c), ":", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return titleCaser.String(s)
}
