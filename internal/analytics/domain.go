package analytics

// OverviewFilter scopes KPI aggregation to a tenant and optionally a
// single trainee.
type OverviewFilter struct {
	TenantID string
	UserID   *int64
	Period   string // YYYY-MM, empty means all time
}

// Overview contains the training indicators surfaced on the dashboard.
type Overview struct {
	SessionsCompleted  int     `json:"sessions_completed"`
	AvgScore           float64 `json:"avg_score"`
	MinutesPracticed   int     `json:"minutes_practiced"`
	ScenariosAttempted int     `json:"scenarios_attempted"`
}

// TrendPoint is one week of practice activity.
type TrendPoint struct {
	Week     string  `json:"week"`
	Sessions int     `json:"sessions"`
	AvgScore float64 `json:"avg_score"`
}

// LeaderboardEntry ranks a trainee within the tenant.
type LeaderboardEntry struct {
	UserID      int64   `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Sessions    int     `json:"sessions"`
	AvgScore    float64 `json:"avg_score"`
}
