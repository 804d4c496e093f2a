package tenants

import "time"

// Tenant is one customer organisation on the platform.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Tenant states.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// PanelRow is one line of the platform operator's tenant overview:
// the tenant plus its subscription and headcount facts.
type PanelRow struct {
	Tenant       Tenant `json:"tenant"`
	PlanCode     string `json:"plan_code"`
	Seats        int    `json:"seats"`
	ActiveUsers  int    `json:"active_users"`
	Subscription string `json:"subscription_status"`
}
