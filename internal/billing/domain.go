package billing

import "time"

// Plan is a purchasable subscription tier.
type Plan struct {
	ID                int64    `json:"id"`
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	PricePerSeatCents int64    `json:"price_per_seat_cents"`
	Currency          string   `json:"currency"`
	SeatLimit         int      `json:"seat_limit"`
	Features          []string `json:"features"`
}

// Subscription is a tenant's active plan commitment.
type Subscription struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenant_id"`
	PlanCode  string    `json:"plan_code"`
	Seats     int       `json:"seats"`
	Status    string    `json:"status"`
	RenewsAt  time.Time `json:"renews_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription states.
const (
	StatusTrialing  = "trialing"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

// Summary is the billing page payload: the subscription joined with
// its plan and the derived seat spend.
type Summary struct {
	Subscription Subscription `json:"subscription"`
	Plan         Plan         `json:"plan"`
	MonthlyCents int64        `json:"monthly_cents"`
}
