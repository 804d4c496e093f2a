package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/pitchlab/pitchlab/internal/analytics"
	"github.com/pitchlab/pitchlab/internal/app"
	jobmetrics "github.com/pitchlab/pitchlab/internal/jobs"
	"github.com/pitchlab/pitchlab/internal/personas"
	"github.com/pitchlab/pitchlab/internal/platform/cache"
	"github.com/pitchlab/pitchlab/internal/platform/db"
	"github.com/pitchlab/pitchlab/internal/voiceagent"
	"github.com/pitchlab/pitchlab/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	personaRepo := personas.NewRepository(pool)
	voiceClient := voiceagent.NewClient(cfg.VoiceAgentURL, cfg.VoiceAgentAPIKey)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	analyticsService := analytics.NewService(analyticsRepo, analyticsCache)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	ingestJob := jobs.NewKnowledgeIngestJob(personaRepo, voiceClient, logger, metrics)
	syncJob := jobs.NewVoiceAgentSyncJob(personaRepo, voiceClient, logger, metrics)
	sweepJob := jobs.NewKnowledgeSweepJob(personaRepo, jobsClient, logger, metrics)
	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, pool, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskKnowledgeIngest, Handler: ingestJob.Handle},
			{Type: jobs.TaskVoiceAgentSync, Handler: syncJob.Handle},
			{Type: jobs.TaskKnowledgeSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: jobs.NewKnowledgeSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewAnalyticsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
