package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// Handler exposes the tenant's recent audit trail.
type Handler struct {
	logger *slog.Logger
	audit  *shared.AuditLogger
	rbac   rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, audit *shared.AuditLogger, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, audit: audit, rbac: mw}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewAuditLog))
		r.Get("/", h.list)
	})
}

type entryResponse struct {
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.audit.ListRecent(r.Context(), identity.TenantID, limit)
	if err != nil {
		h.logger.Error("list audit log", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	entries := make([]entryResponse, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, entryResponse{
			ActorID:  l.ActorID,
			Action:   l.Action,
			Entity:   l.Entity,
			EntityID: l.EntityID,
			Meta:     l.Meta,
			At:       l.At,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}
