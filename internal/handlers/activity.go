package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// ActivityHandler handles activity log endpoints
type ActivityHandler struct {
	svc    *services.ActivityLogService
	logger *zap.SugaredLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(svc *services.ActivityLogService, logger *zap.SugaredLogger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logger}
}

// Recent handles GET /api/v1/activity/recent
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.FetchRecent(r.Context(), actor, limitQuery(r))
	if err != nil {
		handleError(w, h.logger, err, "recent activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// ByEntity handles GET /api/v1/activity/{entity}/{id}
func (h *ActivityHandler) ByEntity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.FetchByEntity(r.Context(), actor, chi.URLParam(r, "entity"), chi.URLParam(r, "id"), limitQuery(r))
	if err != nil {
		handleError(w, h.logger, err, "entity activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
