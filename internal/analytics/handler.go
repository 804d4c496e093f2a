package analytics

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
)

// Handler serves training analytics endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers analytics routes. The overview is always
// scoped to the caller; team views need the elevated capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewAnalytics))
		r.Get("/overview", h.overview)
		r.Get("/trend", h.trend)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewTeamAnalytics))
		r.Get("/team/overview", h.teamOverview)
		r.Get("/team/leaderboard", h.leaderboard)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	filter := OverviewFilter{
		TenantID: identity.TenantID,
		UserID:   &identity.ID,
		Period:   r.URL.Query().Get("period"),
	}
	overview, err := h.service.GetOverview(r.Context(), filter)
	if err != nil {
		h.logger.Error("analytics overview", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	filter := OverviewFilter{TenantID: identity.TenantID, UserID: &identity.ID}
	points, err := h.service.GetTrend(r.Context(), filter)
	if err != nil {
		h.logger.Error("analytics trend", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if points == nil {
		points = []TrendPoint{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"trend": points})
}

func (h *Handler) teamOverview(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	filter := OverviewFilter{
		TenantID: identity.TenantID,
		Period:   r.URL.Query().Get("period"),
	}
	overview, err := h.service.GetOverview(r.Context(), filter)
	if err != nil {
		h.logger.Error("analytics team overview", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.GetLeaderboard(r.Context(), identity.TenantID, r.URL.Query().Get("period"), limit)
	if err != nil {
		h.logger.Error("analytics leaderboard", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
