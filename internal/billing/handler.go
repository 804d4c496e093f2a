package billing

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// Handler serves billing endpoints. Pricing and subscription
// management stay off-limits to platform operators: the capability
// table grants them to tenant admins only.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewBilling))
		r.Get("/", h.summary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewPricing))
		r.Get("/pricing", h.pricing)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapManageSubscriptions))
		r.Put("/subscription", h.change)
		r.Delete("/subscription", h.cancel)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), identity.TenantID)
	if err != nil {
		h.respondError(w, "billing summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) pricing(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.Plans(r.Context())
	if err != nil {
		h.respondError(w, "list plans", err)
		return
	}
	if plans == nil {
		plans = []Plan{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plans": plans})
}

type changeRequest struct {
	PlanCode string `json:"plan_code"`
	Seats    int    `json:"seats"`
}

func (h *Handler) change(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	var payload changeRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	updated, err := h.service.ChangeSubscription(r.Context(), identity.ID, identity.TenantID, payload.PlanCode, payload.Seats)
	if err != nil {
		h.respondError(w, "change subscription", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	updated, err := h.service.CancelSubscription(r.Context(), identity.ID, identity.TenantID)
	if err != nil {
		h.respondError(w, "cancel subscription", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no subscription on file")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
