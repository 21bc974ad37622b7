package otp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/authkit/authkit/internal/auth"
	"github.com/authkit/authkit/internal/transport"
	"github.com/authkit/authkit/pkg/logger"
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

type codeDTO struct {
	Code string `json:"code"`
}

// Enroll handles POST /otp/enroll
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	enrollment, err := h.Service.Enroll(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("otp enrollment failed", "user_id", user.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, enrollment)
}

// Activate handles POST /otp/activate
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto codeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Code == "" {
		h.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.Service.Activate(r.Context(), user.ID, dto.Code); err != nil {
		h.Logger.Warn("otp activation failed", "user_id", user.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// Disable handles POST /otp/disable
func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto codeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Code == "" {
		h.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.Service.Disable(r.Context(), user.ID, dto.Code); err != nil {
		h.Logger.Warn("otp disable failed", "user_id", user.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
