package handlers

import (
	"net/http"

	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// DashboardHandler serves the summary views
type DashboardHandler struct {
	svc    *services.DashboardService
	logger *zap.SugaredLogger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *services.DashboardService, logger *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// Overview handles GET /api/v1/dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Overview(r.Context(), actor)
	if err != nil {
		handleError(w, h.logger, err, "dashboard")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Admin handles GET /api/v1/dashboard/admin
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	d, err := h.svc.AdminOverview(r.Context(), actor)
	if err != nil {
		handleError(w, h.logger, err, "admin dashboard")
		return
	}
	respondJSON(w, http.StatusOK, d)
}
