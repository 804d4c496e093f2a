package personas

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// Handler manages persona endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers persona routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapViewPersonas))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/documents", h.documents)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapManagePersonas))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/documents", h.upload)
	})
}

func personaID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
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
		h.logger.Error("list personas", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"personas":   list,
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := personaID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid persona id")
		return
	}
	persona, err := h.service.Get(r.Context(), identity.TenantID, id)
	if err != nil {
		h.respondError(w, "get persona", err)
		return
	}
	httpx.JSON(w, http.StatusOK, persona)
}

type personaRequest struct {
	Name         string   `json:"name"`
	JobTitle     string   `json:"job_title"`
	Company      string   `json:"company"`
	Temperament  string   `json:"temperament"`
	Objections   []string `json:"objections"`
	VoiceAgentID *string  `json:"voice_agent_id"`
	Status       string   `json:"status"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	var payload personaRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	created, err := h.service.Create(r.Context(), identity.ID, Persona{
		TenantID:     identity.TenantID,
		Name:         payload.Name,
		JobTitle:     payload.JobTitle,
		Company:      payload.Company,
		Temperament:  payload.Temperament,
		Objections:   payload.Objections,
		VoiceAgentID: payload.VoiceAgentID,
		Status:       payload.Status,
	})
	if err != nil {
		h.respondError(w, "create persona", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := personaID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid persona id")
		return
	}
	var payload personaRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	updated, err := h.service.Update(r.Context(), identity.ID, Persona{
		ID:           id,
		TenantID:     identity.TenantID,
		Name:         payload.Name,
		JobTitle:     payload.JobTitle,
		Company:      payload.Company,
		Temperament:  payload.Temperament,
		Objections:   payload.Objections,
		VoiceAgentID: payload.VoiceAgentID,
		Status:       payload.Status,
	})
	if err != nil {
		h.respondError(w, "update persona", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := personaID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid persona id")
		return
	}
	if err := h.service.Delete(r.Context(), identity.ID, identity.TenantID, id); err != nil {
		h.respondError(w, "delete persona", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) documents(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := personaID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid persona id")
		return
	}
	docs, err := h.service.Documents(r.Context(), identity.TenantID, id)
	if err != nil {
		h.respondError(w, "list documents", err)
		return
	}
	if docs == nil {
		docs = []KnowledgeDocument{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	id, err := personaID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid persona id")
		return
	}

	if err := r.ParseMultipartForm(MaxDocumentBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxDocumentBytes+1))
	if err != nil {
		h.logger.Error("read upload", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	doc, err := h.service.UploadDocument(r.Context(), identity.ID, KnowledgeDocument{
		PersonaID: id,
		TenantID:  identity.TenantID,
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
	}, content)
	if err != nil {
		h.respondError(w, "upload document", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, doc)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "persona not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
