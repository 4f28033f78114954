package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
)

// defaultTaskLead is how far ahead a task is scheduled when no date is given
const defaultTaskLead = 24 * time.Hour

// TaskService handles the volunteer task lifecycle:
//
//	Open --SignUp--> Assigned --Complete--> Completed
//
// Admins may also rewrite status and assignee directly through Edit.
type TaskService struct {
	store    store.TaskStore
	activity *ActivityLogService
	logger   *zap.SugaredLogger
	Now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(st store.TaskStore, activity *ActivityLogService, logger *zap.SugaredLogger) *TaskService {
	return &TaskService{store: st, activity: activity, logger: logger, Now: time.Now}
}

// Create adds an Open, unassigned task. Admin only.
func (s *TaskService) Create(ctx context.Context, actor models.Actor, in models.CreateTaskInput) (*models.VolunteerTask, error) {
	if !access.CanManageTasks(actor) {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.RequiredSkills = strings.TrimSpace(in.RequiredSkills)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, invalid("priority", "must be Low, Medium or High")
	}

	now := s.Now().UTC()
	taskDate := now.Add(defaultTaskLead)
	if in.TaskDate != nil && !in.TaskDate.IsZero() {
		taskDate = in.TaskDate.UTC()
	}
	t := &models.VolunteerTask{
		ID:             uuid.New(),
		Title:          in.Title,
		Description:    in.Description,
		TaskDate:       taskDate,
		Status:         models.TaskOpen,
		Location:       in.Location,
		RequiredSkills: in.RequiredSkills,
		EstimatedHours: in.EstimatedHours,
		Priority:       priority,
		CreatedDate:    now,
		Notes:          in.Notes,
		Version:        1,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, storeErr("create task", err)
	}

	s.logger.Infow("Task created", "task_id", t.ID, "title", t.Title, "task_date", t.TaskDate)
	s.activity.Log(ctx, actor, models.EntityTask, t.ID.String(), "created", t.Title)
	return t, nil
}

// Get returns one task
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*models.VolunteerTask, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return t, nil
}

// List returns tasks by task date, optionally narrowed by status
func (s *TaskService) List(ctx context.Context, status string, limit int) ([]models.VolunteerTask, error) {
	f := store.TaskFilter{Limit: limit}
	if status != "" {
		st, err := models.ParseTaskStatus(status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		f.Status = st
	}
	list, err := s.store.ListTasks(ctx, f)
	return list, storeErr("list tasks", err)
}

// Available returns Open, unassigned tasks by task date
func (s *TaskService) Available(ctx context.Context, actor models.Actor) ([]models.VolunteerTask, error) {
	if !access.CanVolunteer(actor) {
		return nil, ErrForbidden
	}
	list, err := s.store.ListTasks(ctx, store.TaskFilter{Status: models.TaskOpen, UnassignedOnly: true})
	return list, storeErr("list tasks", err)
}

// Mine returns every task assigned to the actor by task date
func (s *TaskService) Mine(ctx context.Context, actor models.Actor) ([]models.VolunteerTask, error) {
	if !access.CanVolunteer(actor) {
		return nil, ErrForbidden
	}
	list, err := s.store.ListTasks(ctx, store.TaskFilter{AssignedVolunteerID: actor.ID})
	return list, storeErr("list tasks", err)
}

// SignUp assigns an Open, unassigned task to the actor. Any other state
// yields ErrTaskUnavailable and leaves the task untouched, as does losing
// a concurrent sign-up race.
func (s *TaskService) SignUp(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.VolunteerTask, error) {
	if !access.CanVolunteer(actor) {
		return nil, ErrForbidden
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if t.Status != models.TaskOpen || t.AssignedVolunteerID != nil {
		s.logger.Infow("Task sign-up rejected", "task_id", id, "volunteer", actor.ID, "status", t.Status)
		return nil, ErrTaskUnavailable
	}

	volunteer := actor.ID
	t.AssignedVolunteerID = &volunteer
	t.Status = models.TaskAssigned
	if err := s.store.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrTaskUnavailable
		}
		return nil, storeErr("update task", err)
	}

	s.logger.Infow("Task signed up", "task_id", id, "volunteer", actor.ID, "title", t.Title)
	s.activity.Log(ctx, actor, models.EntityTask, id.String(), "signed_up", "")
	return t, nil
}

// Complete marks a task Completed and stamps the completion date. Only the
// assignee or an admin may do so. Any current status is accepted, including
// Open and an already Completed task.
func (s *TaskService) Complete(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.VolunteerTask, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if !access.CanCompleteTask(actor, t) {
		s.logger.Infow("Task completion rejected", "task_id", id, "actor", actor.ID)
		return nil, ErrTaskNotAssignable
	}

	done := s.Now().UTC()
	t.Status = models.TaskCompleted
	t.CompletionDate = &done
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, storeErr("update task", err)
	}

	s.logger.Infow("Task completed", "task_id", id, "actor", actor.ID, "title", t.Title)
	s.activity.Log(ctx, actor, models.EntityTask, id.String(), "completed", "")
	return t, nil
}

// Edit rewrites a task, including status and assignee. Admin only.
// A non-zero in.Version must match the stored version.
func (s *TaskService) Edit(ctx context.Context, actor models.Actor, id uuid.UUID, in models.EditTaskInput) (*models.VolunteerTask, error) {
	if !access.CanManageTasks(actor) {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.RequiredSkills = strings.TrimSpace(in.RequiredSkills)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	status, err := models.ParseTaskStatus(in.Status)
	if err != nil {
		return nil, invalid("status", "must be Open, Assigned or Completed")
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, invalid("priority", "must be Low, Medium or High")
	}

	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if in.Version != 0 {
		t.Version = in.Version
	}
	t.Title = in.Title
	t.Description = in.Description
	t.TaskDate = in.TaskDate.UTC()
	t.AssignedVolunteerID = nil
	if in.AssignedVolunteerID != nil {
		if v := strings.TrimSpace(*in.AssignedVolunteerID); v != "" {
			t.AssignedVolunteerID = &v
		}
	}
	t.Status = status
	t.Location = in.Location
	t.RequiredSkills = in.RequiredSkills
	t.EstimatedHours = in.EstimatedHours
	t.Priority = priority
	t.CompletionDate = nil
	if in.CompletionDate != nil && !in.CompletionDate.IsZero() {
		c := in.CompletionDate.UTC()
		t.CompletionDate = &c
	}
	t.Notes = in.Notes
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, storeErr("update task", err)
	}

	s.logger.Infow("Task edited", "task_id", id, "admin", actor.ID, "status", t.Status)
	s.activity.Log(ctx, actor, models.EntityTask, id.String(), "edited", string(t.Status))
	return t, nil
}

// Delete removes a task. Deleting an absent id succeeds.
func (s *TaskService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !access.CanManageTasks(actor) {
		return ErrForbidden
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return storeErr("delete task", err)
	}
	s.logger.Infow("Task deleted", "task_id", id, "admin", actor.ID)
	s.activity.Log(ctx, actor, models.EntityTask, id.String(), "deleted", "")
	return nil
}
