// Package scenarios manages the role-play training scenarios a tenant's
// team rehearses against.
package scenarios

import "time"

// Scenario is one role-play training exercise.
type Scenario struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	PersonaID   *int64    `json:"persona_id,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Scenario lifecycle states.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// ListFilters narrows scenario listings.
type ListFilters struct {
	Page    int
	PerPage int
	Status  string
	Search  string
}

// Card is the listing shape handed to the dashboard: the scenario plus the
// per-record affordances for the current identity.
type Card struct {
	Scenario
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func validDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

func validStatus(s string) bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}
