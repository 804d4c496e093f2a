package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchlab/pitchlab/internal/analytics"
	jobmetrics "github.com/pitchlab/pitchlab/internal/jobs"
)

// AnalyticsWarmupJob pre-populates the analytics caches for active
// tenants so dashboards load from Redis after the nightly bump.
type AnalyticsWarmupJob struct {
	Analytics *analytics.Service
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analyticsSvc *analytics.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{Analytics: analyticsSvc, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAnalyticsWarmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("analytics warmup: handler not configured")
	}

	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	tenants, err := j.activeTenants(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load warmup tenants", slog.Any("error", err))
		return resultErr
	}
	if len(tenants) == 0 {
		logger.Info("no tenants discovered for warmup")
		return resultErr
	}

	start := time.Now()
	warmed := 0
	for _, tenantID := range tenants {
		if err := j.warmTenant(ctx, tenantID); err != nil {
			resultErr = err
			logger.Error("warm tenant", slog.String("tenant_id", tenantID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}
	logger.Info("completed analytics warmup", slog.Int("tenants", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *AnalyticsWarmupJob) warmTenant(ctx context.Context, tenantID string) error {
	if j.Analytics == nil {
		return nil
	}
	// Bound each tenant so one slow aggregate cannot stall the run.
	tenantCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	period := time.Now().UTC().Format("2006-01")
	filter := analytics.OverviewFilter{TenantID: tenantID, Period: period}
	if _, err := j.Analytics.GetOverview(tenantCtx, filter); err != nil {
		return err
	}
	if _, err := j.Analytics.GetTrend(tenantCtx, analytics.OverviewFilter{TenantID: tenantID}); err != nil {
		return err
	}
	if _, err := j.Analytics.GetLeaderboard(tenantCtx, tenantID, period, 10); err != nil {
		return err
	}
	return nil
}

func (j *AnalyticsWarmupJob) activeTenants(ctx context.Context) ([]string, error) {
	if j.Pool == nil {
		return nil, errors.New("analytics warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM tenants WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tenants = append(tenants, id)
	}
	return tenants, rows.Err()
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
