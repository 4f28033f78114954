package handlers

import (
	"net/http"

	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// IncidentHandler handles incident report endpoints
type IncidentHandler struct {
	svc    *services.IncidentService
	logger *zap.SugaredLogger
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(svc *services.IncidentService, logger *zap.SugaredLogger) *IncidentHandler {
	return &IncidentHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/incidents
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limitQuery(r))
	if err != nil {
		handleError(w, h.logger, err, "list incidents")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Report handles POST /api/v1/incidents
func (h *IncidentHandler) Report(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in models.ReportIncidentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	report, err := h.svc.Report(r.Context(), actor, in)
	if err != nil {
		handleError(w, h.logger, err, "report incident")
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// Get handles GET /api/v1/incidents/{id}
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err, "get incident")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Edit handles PUT /api/v1/incidents/{id}
func (h *IncidentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in models.EditIncidentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	report, err := h.svc.Edit(r.Context(), actor, id, in)
	if err != nil {
		handleError(w, h.logger, err, "edit incident")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// SetStatus handles PUT /api/v1/incidents/{id}/status
func (h *IncidentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in models.StatusInput
	if !decodeJSON(w, r, &in) {
		return
	}
	report, err := h.svc.SetStatus(r.Context(), actor, id, in.Status)
	if err != nil {
		handleError(w, h.logger, err, "set incident status")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/v1/incidents/{id}
func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		handleError(w, h.logger, err, "delete incident")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
