// Package services holds the relief workflow: incident, donation and task
// transitions, the dashboard projection, identity and the integrity log.
// Services are called by handlers and the CLI and talk to a store.Store.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
)

// IncidentService handles incident report business logic
type IncidentService struct {
	store    store.IncidentStore
	activity *ActivityLogService
	logger   *zap.SugaredLogger
	Now      func() time.Time
}

// NewIncidentService creates a new incident service
func NewIncidentService(st store.IncidentStore, activity *ActivityLogService, logger *zap.SugaredLogger) *IncidentService {
	return &IncidentService{store: st, activity: activity, logger: logger, Now: time.Now}
}

// Report files a new incident as Open, attributed to the actor
func (s *IncidentService) Report(ctx context.Context, actor models.Actor, in models.ReportIncidentInput) (*models.IncidentReport, error) {
	if !access.CanReport(actor) {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, invalid("priority", "must be Low, Medium or High")
	}

	r := &models.IncidentReport{
		ID:               uuid.New(),
		Title:            in.Title,
		Description:      in.Description,
		Location:         in.Location,
		DateReported:     s.Now().UTC(),
		ReportedByUserID: actor.ID,
		Status:           models.IncidentOpen,
		Priority:         priority,
		Version:          1,
	}
	if err := s.store.CreateIncident(ctx, r); err != nil {
		return nil, storeErr("create incident", err)
	}

	s.logger.Infow("Incident reported", "incident_id", r.ID, "reporter", actor.ID, "priority", r.Priority)
	s.activity.Log(ctx, actor, models.EntityIncident, r.ID.String(), "reported", r.Title)
	return r, nil
}

// Get returns one incident
func (s *IncidentService) Get(ctx context.Context, id uuid.UUID) (*models.IncidentReport, error) {
	r, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, storeErr("get incident", err)
	}
	return r, nil
}

// List returns incidents newest first, optionally narrowed by status
func (s *IncidentService) List(ctx context.Context, status string, limit int) ([]models.IncidentReport, error) {
	f := store.IncidentFilter{Limit: limit}
	if status != "" {
		st, err := models.ParseIncidentStatus(status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		f.Status = st
	}
	list, err := s.store.ListIncidents(ctx, f)
	return list, storeErr("list incidents", err)
}

// SetStatus moves an incident to any status. Admins may jump between any
// two states; there is no transition guard.
func (s *IncidentService) SetStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status string) (*models.IncidentReport, error) {
	if !access.CanManageIncidents(actor) {
		return nil, ErrForbidden
	}
	next, err := models.ParseIncidentStatus(status)
	if err != nil {
		return nil, invalid("status", "must be Open, InProgress, Resolved or Closed")
	}
	r, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, storeErr("get incident", err)
	}
	prev := r.Status
	r.Status = next
	if err := s.store.UpdateIncident(ctx, r); err != nil {
		return nil, storeErr("update incident", err)
	}

	s.logger.Infow("Incident status changed", "incident_id", id, "from", prev, "to", next, "admin", actor.ID)
	s.activity.Log(ctx, actor, models.EntityIncident, id.String(), "status_changed", string(prev)+" -> "+string(next))
	return r, nil
}

// Edit replaces the editable incident fields. Reporter and report date are kept.
// A non-zero in.Version must match the stored version.
func (s *IncidentService) Edit(ctx context.Context, actor models.Actor, id uuid.UUID, in models.EditIncidentInput) (*models.IncidentReport, error) {
	if !access.CanManageIncidents(actor) {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	status, err := models.ParseIncidentStatus(in.Status)
	if err != nil {
		return nil, invalid("status", "must be Open, InProgress, Resolved or Closed")
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, invalid("priority", "must be Low, Medium or High")
	}

	r, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, storeErr("get incident", err)
	}
	if in.Version != 0 {
		r.Version = in.Version
	}
	r.Title = in.Title
	r.Description = in.Description
	r.Location = in.Location
	r.Status = status
	r.Priority = priority
	if err := s.store.UpdateIncident(ctx, r); err != nil {
		return nil, storeErr("update incident", err)
	}

	s.logger.Infow("Incident edited", "incident_id", id, "admin", actor.ID)
	s.activity.Log(ctx, actor, models.EntityIncident, id.String(), "edited", "")
	return r, nil
}

// Delete removes an incident. Deleting an absent id succeeds.
func (s *IncidentService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !access.CanManageIncidents(actor) {
		return ErrForbidden
	}
	if err := s.store.DeleteIncident(ctx, id); err != nil {
		return storeErr("delete incident", err)
	}
	s.logger.Infow("Incident deleted", "incident_id", id, "admin", actor.ID)
	s.activity.Log(ctx, actor, models.EntityIncident, id.String(), "deleted", "")
	return nil
}
