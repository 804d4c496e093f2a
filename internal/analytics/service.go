package analytics

import (
	"context"
	"encoding/json"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort defines the aggregation queries the service depends on.
type RepositoryPort interface {
	Overview(ctx context.Context, filter OverviewFilter) (*Overview, error)
	Trend(ctx context.Context, filter OverviewFilter) ([]TrendPoint, error)
	Leaderboard(ctx context.Context, tenantID, period string, limit int) ([]LeaderboardEntry, error)
}

// Service resolves training analytics through the versioned cache.
// Concurrent misses for the same key collapse into one loader call.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) fetch(ctx context.Context, keyBase string, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}

// GetOverview resolves the KPI cards for the scope.
func (s *Service) GetOverview(ctx context.Context, filter OverviewFilter) (*Overview, error) {
	var overview Overview
	err := s.fetch(ctx, keyOverview(filter), &overview, func(ctx context.Context) (any, error) {
		return s.repo.Overview(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

// GetTrend resolves the weekly practice trend for the scope.
func (s *Service) GetTrend(ctx context.Context, filter OverviewFilter) ([]TrendPoint, error) {
	var points []TrendPoint
	err := s.fetch(ctx, keyTrend(filter), &points, func(ctx context.Context) (any, error) {
		return s.repo.Trend(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// GetLeaderboard resolves the tenant leaderboard.
func (s *Service) GetLeaderboard(ctx context.Context, tenantID, period string, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	keyBase := keyLeaderboard(tenantID, period) + ":" + strconv.Itoa(limit)
	err := s.fetch(ctx, keyBase, &entries, func(ctx context.Context) (any, error) {
		return s.repo.Leaderboard(ctx, tenantID, period, limit)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Invalidate bumps the cache version after new sessions land.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
