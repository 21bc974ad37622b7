package role

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/authkit/authkit/internal/auth"
	"github.com/authkit/authkit/internal/transport"
	"github.com/authkit/authkit/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

type createRoleDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type grantPermissionDTO struct {
	Permission string `json:"permission"`
}

type assignRoleDTO struct {
	Role string `json:"role"`
}

// CreateRole handles POST /roles
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto createRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.CreateRole(r.Context(), dto.Name, dto.Description)
	if err != nil {
		h.Logger.Error("create role failed", "name", dto.Name, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		h.Logger.Error("list roles failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roles)
}

// GetRole handles GET /roles/{name}
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	role, err := h.Service.GetRole(r.Context(), name)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, role)
}

// GrantPermission handles POST /roles/{name}/permissions
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var dto grantPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Permission == "" {
		h.WriteError(w, http.StatusBadRequest, "permission is required")
		return
	}

	if err := h.Service.GrantPermission(r.Context(), name, dto.Permission); err != nil {
		h.Logger.Error("grant permission failed", "role", name, "permission", dto.Permission, "error", err)
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokePermission handles DELETE /roles/{name}/permissions/{permission}
func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	permission := chi.URLParam(r, "permission")

	if err := h.Service.RevokePermission(r.Context(), name, permission); err != nil {
		h.Logger.Error("revoke permission failed", "role", name, "permission", permission, "error", err)
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignRole handles POST /users/{id}/roles
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var dto assignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Role == "" {
		h.WriteError(w, http.StatusBadRequest, "role is required")
		return
	}

	var grantedBy *string
	if actor, ok := auth.UserFromContext(r.Context()); ok && actor != nil {
		grantedBy = &actor.ID
	}

	if err := h.Service.AssignRole(r.Context(), userID, dto.Role, grantedBy); err != nil {
		h.Logger.Error("assign role failed", "user_id", userID, "role", dto.Role, "error", err)
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokeRole handles DELETE /users/{id}/roles/{role}
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	roleName := chi.URLParam(r, "role")

	if err := h.Service.RevokeRole(r.Context(), userID, roleName); err != nil {
		h.Logger.Error("revoke role failed", "user_id", userID, "role", roleName, "error", err)
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUserRoles handles GET /users/{id}/roles
func (h *Handler) GetUserRoles(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	roles, err := h.Service.GetUserRoles(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roles)
}
