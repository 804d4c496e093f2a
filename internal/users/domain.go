package users

import (
	"time"

	"github.com/pitchlab/pitchlab/internal/rbac"
)

// Account joins the credential row with its profile for admin views.
type Account struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	RoleLabel   string    `json:"role_label"`
	TenantID    string    `json:"tenant_id"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Decorate fills display fields derived from the stored role.
func (a *Account) Decorate() {
	a.RoleLabel = rbac.RoleLabel(rbac.Role(a.Role))
}

// ListFilters narrows account listings.
type ListFilters struct {
	Page    int
	PerPage int
	Role    string
	Search  string
}
