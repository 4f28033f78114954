package handlers

import (
	"net/http"

	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// TaskHandler handles volunteer task endpoints
type TaskHandler struct {
	svc    *services.TaskService
	logger *zap.SugaredLogger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc *services.TaskService, logger *zap.SugaredLogger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limitQuery(r))
	if err != nil {
		handleError(w, h.logger, err, "list tasks")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Available handles GET /api/v1/tasks/available
func (h *TaskHandler) Available(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Available(r.Context(), actor)
	if err != nil {
		handleError(w, h.logger, err, "list available tasks")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Mine handles GET /api/v1/tasks/mine
func (h *TaskHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Mine(r.Context(), actor)
	if err != nil {
		handleError(w, h.logger, err, "list my tasks")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Create handles POST /api/v1/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in models.CreateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		handleError(w, h.logger, err, "create task")
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/v1/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err, "get task")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Edit handles PUT /api/v1/tasks/{id}
func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in models.EditTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.svc.Edit(r.Context(), actor, id, in)
	if err != nil {
		handleError(w, h.logger, err, "edit task")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// SignUp handles POST /api/v1/tasks/{id}/signup
func (h *TaskHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := h.svc.SignUp(r.Context(), actor, id)
	if err != nil {
		handleError(w, h.logger, err, "sign up for task")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Complete handles POST /api/v1/tasks/{id}/complete
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Complete(r.Context(), actor, id)
	if err != nil {
		handleError(w, h.logger, err, "complete task")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		handleError(w, h.logger, err, "delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
