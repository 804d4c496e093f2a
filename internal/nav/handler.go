package nav

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
)

// Handler serves the per-surface navigation lists.
type Handler struct {
	logger *slog.Logger
	rbac   rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, rbac: mw}
}

// MountRoutes registers navigation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireSignIn())
		r.Get("/{surface}", h.surfaceItems)
	})
}

func (h *Handler) surfaceItems(w http.ResponseWriter, r *http.Request) {
	surface := Surface(chi.URLParam(r, "surface"))
	items := ItemsForSurface(surface)
	if items == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown navigation surface")
		return
	}
	identity := rbac.IdentityFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"surface": surface,
		"items":   VisibleItems(identity, items),
	})
}
