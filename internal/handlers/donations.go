package handlers

import (
	"net/http"

	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// DonationHandler handles donation endpoints
type DonationHandler struct {
	svc    *services.DonationService
	logger *zap.SugaredLogger
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(svc *services.DonationService, logger *zap.SugaredLogger) *DonationHandler {
	return &DonationHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/donations
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limitQuery(r))
	if err != nil {
		handleError(w, h.logger, err, "list donations")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Mine handles GET /api/v1/donations/mine
func (h *DonationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Mine(r.Context(), actor)
	if err != nil {
		handleError(w, h.logger, err, "list my donations")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Record handles POST /api/v1/donations
func (h *DonationHandler) Record(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in models.RecordDonationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.svc.Record(r.Context(), actor, in)
	if err != nil {
		handleError(w, h.logger, err, "record donation")
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// Get handles GET /api/v1/donations/{id}
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err, "get donation")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Edit handles PUT /api/v1/donations/{id}
func (h *DonationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in models.EditDonationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.svc.Edit(r.Context(), actor, id, in)
	if err != nil {
		handleError(w, h.logger, err, "edit donation")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// SetStatus handles PUT /api/v1/donations/{id}/status
func (h *DonationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
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
	d, err := h.svc.SetStatus(r.Context(), actor, id, in.Status)
	if err != nil {
		handleError(w, h.logger, err, "set donation status")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Delete handles DELETE /api/v1/donations/{id}
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		handleError(w, h.logger, err, "delete donation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
