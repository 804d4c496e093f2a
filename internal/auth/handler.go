package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	resolver       *SessionResolver
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	rbac           rbac.Middleware
	validator      *validator.Validate
	landingPath    string
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *SessionResolver, sessions *shared.SessionManager, csrf *shared.CSRFManager, mw rbac.Middleware, landingPath string) *Handler {
	if landingPath == "" {
		landingPath = "/dashboard"
	}
	return &Handler{
		logger:         logger,
		service:        service,
		resolver:       resolver,
		sessionManager: sessions,
		csrfManager:    csrf,
		rbac:           mw,
		validator:      validator.New(),
		landingPath:    landingPath,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Post("/signin", h.handleSignin)
	r.Post("/signout", h.handleSignout)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireSignIn())
		r.Get("/me", h.me)
	})
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type identityResponse struct {
	Identity     *rbac.Identity    `json:"identity"`
	Capabilities []rbac.Capability `json:"capabilities"`
	Redirect     string            `json:"redirect,omitempty"`
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var payload signinRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during signin")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	identity, err := h.resolver.Resolve(r.Context(), r)
	if err != nil {
		var resErr *rbac.ResolutionError
		if errors.As(err, &resErr) {
			h.logger.Error("resolve identity after signin",
				slog.String("reason", resErr.Reason), slog.Any("error", resErr.Err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, identityResponse{
		Identity:     identity,
		Capabilities: rbac.Grants(identity.Role),
		Redirect:     h.postSigninTarget(r.URL.Query().Get("from")),
	})
}

func (h *Handler) handleSignout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"redirect": "/signin"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity := rbac.IdentityFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, identityResponse{
		Identity:     identity,
		Capabilities: rbac.Grants(identity.Role),
	})
}

// postSigninTarget validates the post-login return path. Only local paths
// are honoured; anything else falls back to the landing page.
func (h *Handler) postSigninTarget(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return h.landingPath
	}
	return from
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "invalid fields: " + strings.Join(fields, ", ")
	}
	return "invalid payload"
}
