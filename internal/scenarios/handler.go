package scenarios

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// Handler manages scenario endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers scenario routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewScenarios))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapManageScenarios))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

// newCard stamps the per-record affordances for the current identity.
// Evaluated per record render so future records can carry differing rules.
func newCard(identity *rbac.Identity, s Scenario) Card {
	return Card{
		Scenario:  s,
		CanEdit:   rbac.CanActOnRecord(identity, rbac.CapManageScenarios, &s),
		CanDelete: rbac.CanActOnRecord(identity, rbac.CapManageScenarios, &s),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	filters := ListFilters{
		Page:    page,
		PerPage: perPage,
		Status:  r.URL.Query().Get("status"),
		Search:  r.URL.Query().Get("search"),
	}

	list, pagination, err := h.service.List(r.Context(), identity.TenantID, filters)
	if err != nil {
		h.logger.Error("list scenarios", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	cards := make([]Card, 0, len(list))
	for _, s := range list {
		cards = append(cards, newCard(identity, s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"scenarios":  cards,
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid scenario id")
		return
	}

	scenario, err := h.service.Get(r.Context(), identity.TenantID, id)
	if err != nil {
		h.respondError(w, "get scenario", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCard(identity, *scenario))
}

type scenarioRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	PersonaID   *int64 `json:"persona_id"`
	Status      string `json:"status"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	var payload scenarioRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	created, err := h.service.Create(r.Context(), identity.ID, Scenario{
		TenantID:    identity.TenantID,
		Title:       payload.Title,
		Description: payload.Description,
		Difficulty:  payload.Difficulty,
		PersonaID:   payload.PersonaID,
		Status:      payload.Status,
	})
	if err != nil {
		h.respondError(w, "create scenario", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newCard(identity, *created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid scenario id")
		return
	}

	var payload scenarioRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	updated, err := h.service.Update(r.Context(), identity.ID, Scenario{
		ID:          id,
		TenantID:    identity.TenantID,
		Title:       payload.Title,
		Description: payload.Description,
		Difficulty:  payload.Difficulty,
		PersonaID:   payload.PersonaID,
		Status:      payload.Status,
	})
	if err != nil {
		h.respondError(w, "update scenario", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCard(identity, *updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid scenario id")
		return
	}

	if err := h.service.Delete(r.Context(), identity.ID, identity.TenantID, id); err != nil {
		h.respondError(w, "delete scenario", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "scenario not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
