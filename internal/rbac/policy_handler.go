package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitchlab/pitchlab/internal/platform/httpx"
)

// PolicyHandler exposes the capability matrix for role-administration screens.
type PolicyHandler struct {
	logger *slog.Logger
	rbac   Middleware
}

// NewPolicyHandler builds a PolicyHandler instance.
func NewPolicyHandler(logger *slog.Logger, rbac Middleware) *PolicyHandler {
	return &PolicyHandler{logger: logger, rbac: rbac}
}

// MountRoutes registers policy routes.
func (h *PolicyHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(CapManageRoles))
		r.Get("/", h.listPolicy)
	})
}

type capabilityEntry struct {
	Capability Capability `json:"capability"`
	Label      string     `json:"label"`
	Roles      []Role     `json:"roles"`
}

type roleEntry struct {
	Role  Role   `json:"role"`
	Label string `json:"label"`
	Rank  int    `json:"rank"`
}

func (h *PolicyHandler) listPolicy(w http.ResponseWriter, r *http.Request) {
	roles := make([]roleEntry, 0, len(Roles()))
	for _, role := range Roles() {
		rank, err := Rank(role)
		if err != nil {
			h.logger.Error("rank closed role", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		roles = append(roles, roleEntry{Role: role, Label: RoleLabel(role), Rank: rank})
	}

	capabilities := make([]capabilityEntry, 0, len(Capabilities()))
	for _, capability := range Capabilities() {
		allowed, err := AllowedRoles(capability)
		if err != nil {
			h.logger.Error("list policy", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		capabilities = append(capabilities, capabilityEntry{
			Capability: capability,
			Label:      CapabilityLabel(capability),
			Roles:      allowed,
		})
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"roles":        roles,
		"capabilities": capabilities,
	})
}
