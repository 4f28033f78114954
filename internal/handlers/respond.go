// Package handlers contains HTTP request handlers for the relief API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/middleware"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string                `json:"error"`
	Code   string                `json:"code"`
	Fields []services.FieldError `json:"fields,omitempty"`
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// handleError maps service errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a bare 500.
func handleError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, action string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed", Code: "validation_failed", Fields: ve.Fields})
	case errors.Is(err, services.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "Not permitted")
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, services.ErrConflict):
		respondError(w, http.StatusConflict, "conflict", "Record was modified by another request; reload and retry")
	case errors.Is(err, services.ErrTaskUnavailable):
		respondError(w, http.StatusConflict, "task_unavailable", "Unable to sign up for this task")
	case errors.Is(err, services.ErrTaskNotAssignable):
		respondError(w, http.StatusForbidden, "task_not_assignable", "Unable to complete this task")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, services.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", "Email is already registered")
	default:
		logger.Errorw("Request failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authorization required")
	}
	return actor, ok
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func limitQuery(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
