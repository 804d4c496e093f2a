package personas

import "time"

// Persona is an AI buyer profile trainees practice against.
type Persona struct {
	ID           int64     `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	JobTitle     string    `json:"job_title"`
	Company      string    `json:"company"`
	Temperament  string    `json:"temperament"`
	Objections   []string  `json:"objections"`
	VoiceAgentID *string   `json:"voice_agent_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Temperament presets steer the voice agent's conversational style.
const (
	TemperamentFriendly   = "friendly"
	TemperamentSkeptical  = "skeptical"
	TemperamentImpatient  = "impatient"
	TemperamentAnalytical = "analytical"
)

// Persona lifecycle states.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// KnowledgeDocument is an uploaded file backing a persona's product
// knowledge. Content is ingested asynchronously.
type KnowledgeDocument struct {
	ID         int64      `json:"id"`
	PersonaID  int64      `json:"persona_id"`
	TenantID   string     `json:"tenant_id"`
	Filename   string     `json:"filename"`
	MimeType   string     `json:"mime_type"`
	SizeBytes  int64      `json:"size_bytes"`
	Status     string     `json:"status"`
	UploadedBy int64      `json:"uploaded_by"`
	CreatedAt  time.Time  `json:"created_at"`
	IngestedAt *time.Time `json:"ingested_at,omitempty"`
}

// Knowledge document ingestion states.
const (
	DocumentPending  = "pending"
	DocumentIngested = "ingested"
	DocumentFailed   = "failed"
)

// ListFilters narrows persona listings.
type ListFilters struct {
	Page    int
	PerPage int
	Status  string
	Search  string
}

func validTemperament(t string) bool {
	switch t {
	case TemperamentFriendly, TemperamentSkeptical, TemperamentImpatient, TemperamentAnalytical:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}
