package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates training session data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scopeClause(filter OverviewFilter) (string, []any) {
	where := `WHERE tenant_id = $1 AND status = 'completed'`
	args := []any{filter.TenantID}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		where += fmt.Sprintf(` AND to_char(completed_at, 'YYYY-MM') = $%d`, len(args))
	}
	return where, args
}

// Overview aggregates completed session KPIs for the scope.
func (r *Repository) Overview(ctx context.Context, filter OverviewFilter) (*Overview, error) {
	where, args := scopeClause(filter)
	var o Overview
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(AVG(score), 0),
		       COALESCE(SUM(duration_seconds) / 60, 0),
		       COUNT(DISTINCT scenario_id)
		  FROM training_sessions %s`, where), args...).
		Scan(&o.SessionsCompleted, &o.AvgScore, &o.MinutesPracticed, &o.ScenariosAttempted)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Trend returns the last 12 weeks of practice activity, oldest first.
func (r *Repository) Trend(ctx context.Context, filter OverviewFilter) ([]TrendPoint, error) {
	where, args := scopeClause(filter)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT to_char(date_trunc('week', completed_at), 'YYYY-MM-DD'),
		       COUNT(*),
		       COALESCE(AVG(score), 0)
		  FROM training_sessions %s
		   AND completed_at >= NOW() - INTERVAL '12 weeks'
		 GROUP BY 1 ORDER BY 1`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Week, &p.Sessions, &p.AvgScore); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Leaderboard ranks tenant trainees by average score.
func (r *Repository) Leaderboard(ctx context.Context, tenantID, period string, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	where := `WHERE s.tenant_id = $1 AND s.status = 'completed'`
	args := []any{tenantID}
	if period != "" {
		args = append(args, period)
		where += fmt.Sprintf(` AND to_char(s.completed_at, 'YYYY-MM') = $%d`, len(args))
	}
	args = append(args, limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT s.user_id,
		       p.display_name,
		       COUNT(*),
		       COALESCE(AVG(s.score), 0)
		  FROM training_sessions s
		  JOIN profiles p ON p.user_id = s.user_id
		  %s
		 GROUP BY s.user_id, p.display_name
		 ORDER BY 4 DESC, 3 DESC
		 LIMIT $%d`, where, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Sessions, &e.AvgScore); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
