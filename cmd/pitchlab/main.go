package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pitchlab/pitchlab/internal/analytics"
	"github.com/pitchlab/pitchlab/internal/app"
	"github.com/pitchlab/pitchlab/internal/audit"
	"github.com/pitchlab/pitchlab/internal/auth"
	"github.com/pitchlab/pitchlab/internal/billing"
	"github.com/pitchlab/pitchlab/internal/nav"
	"github.com/pitchlab/pitchlab/internal/observability"
	"github.com/pitchlab/pitchlab/internal/personas"
	"github.com/pitchlab/pitchlab/internal/platform/cache"
	"github.com/pitchlab/pitchlab/internal/platform/db"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/scenarios"
	"github.com/pitchlab/pitchlab/internal/shared"
	"github.com/pitchlab/pitchlab/internal/tenants"
	"github.com/pitchlab/pitchlab/internal/users"
	"github.com/pitchlab/pitchlab/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "pitchlab_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	resolver := auth.NewSessionResolver(authRepo, cfg.ResolverTimeout)

	guard := rbac.NewGuard(resolver, logger, cfg.SigninPath, cfg.LandingPath)
	rbacMiddleware := rbac.Middleware{Guard: guard}

	authHandler := auth.NewHandler(logger, authService, resolver, sessionManager, csrfManager, rbacMiddleware, cfg.LandingPath)
	navHandler := nav.NewHandler(logger, rbacMiddleware)
	policyHandler := rbac.NewPolicyHandler(logger, rbacMiddleware)

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

	scenarioRepo := scenarios.NewRepository(dbpool)
	scenarioService := scenarios.NewService(scenarioRepo, auditLogger)
	scenarioHandler := scenarios.NewHandler(logger, scenarioService, rbacMiddleware)

	personaRepo := personas.NewRepository(dbpool)
	personaService := personas.NewService(personaRepo, jobsClient, auditLogger)
	personaHandler := personas.NewHandler(logger, personaService, rbacMiddleware)

	analyticsRepo := analytics.NewRepository(dbpool)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	analyticsService := analytics.NewService(analyticsRepo, analyticsCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, rbacMiddleware)
	go func() {
		if err := analyticsCache.ListenForInvalidation(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("analytics invalidation listener", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, auditLogger)
	billingHandler := billing.NewHandler(logger, billingService, rbacMiddleware)

	tenantsRepo := tenants.NewRepository(dbpool)
	tenantsService := tenants.NewService(tenantsRepo, auditLogger)
	tenantsHandler := tenants.NewHandler(logger, tenantsService, rbacMiddleware)

	auditHandler := audit.NewHandler(logger, auditLogger, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,

		AuthHandler:      authHandler,
		NavHandler:       navHandler,
		ScenarioHandler:  scenarioHandler,
		PersonaHandler:   personaHandler,
		AnalyticsHandler: analyticsHandler,
		UsersHandler:     usersHandler,
		BillingHandler:   billingHandler,
		TenantsHandler:   tenantsHandler,
		AuditHandler:     auditHandler,
		PolicyHandler:    policyHandler,
		JobHandler:       jobHandler,

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
