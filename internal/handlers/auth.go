package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// AuthHandler handles account and token endpoints
type AuthHandler struct {
	svc    *services.AuthService
	logger *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *services.AuthService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := h.svc.Register(r.Context(), in)
	if err != nil {
		handleError(w, h.logger, err, "register")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := h.svc.Login(r.Context(), in)
	if err != nil {
		handleError(w, h.logger, err, "login")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

type meResponse struct {
	models.User
	EffectiveRole models.Role `json:"effective_role"`
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Me(r.Context(), actor)
	if err != nil {
		handleError(w, h.logger, err, "me")
		return
	}
	respondJSON(w, http.StatusOK, meResponse{User: *u, EffectiveRole: access.EffectiveRole(u.Roles)})
}

// GrantRole handles POST /api/v1/admin/users/{id}/roles
func (h *AuthHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in models.GrantRoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.svc.GrantRole(r.Context(), actor, chi.URLParam(r, "id"), in.Role)
	if err != nil {
		handleError(w, h.logger, err, "grant role")
		return
	}
	respondJSON(w, http.StatusOK, u)
}
