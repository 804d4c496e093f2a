package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pitchlab/pitchlab/internal/analytics"
	"github.com/pitchlab/pitchlab/internal/audit"
	"github.com/pitchlab/pitchlab/internal/auth"
	"github.com/pitchlab/pitchlab/internal/billing"
	"github.com/pitchlab/pitchlab/internal/nav"
	"github.com/pitchlab/pitchlab/internal/observability"
	"github.com/pitchlab/pitchlab/internal/personas"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/scenarios"
	"github.com/pitchlab/pitchlab/internal/shared"
	"github.com/pitchlab/pitchlab/internal/tenants"
	"github.com/pitchlab/pitchlab/internal/users"
	"github.com/pitchlab/pitchlab/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler      *auth.Handler
	NavHandler       *nav.Handler
	ScenarioHandler  *scenarios.Handler
	PersonaHandler   *personas.Handler
	AnalyticsHandler *analytics.Handler
	UsersHandler     *users.Handler
	BillingHandler   *billing.Handler
	TenantsHandler   *tenants.Handler
	AuditHandler     *audit.Handler
	PolicyHandler    *rbac.PolicyHandler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router serving the PitchLab API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.NavHandler != nil {
			r.Route("/nav", params.NavHandler.MountRoutes)
		}
		if params.ScenarioHandler != nil {
			r.Route("/scenarios", params.ScenarioHandler.MountRoutes)
		}
		if params.PersonaHandler != nil {
			r.Route("/personas", params.PersonaHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.BillingHandler != nil {
			r.Route("/billing", params.BillingHandler.MountRoutes)
		}
		if params.TenantsHandler != nil {
			r.Route("/admin", params.TenantsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.PolicyHandler != nil {
			r.Route("/policy", params.PolicyHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
