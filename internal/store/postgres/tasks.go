package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

const taskColumns = `id, title, description, task_date, assigned_volunteer_id, status, location,
	required_skills, estimated_hours, priority, created_date, completion_date, notes, version`

func scanTask(row pgx.Row) (*models.VolunteerTask, error) {
	var t models.VolunteerTask
	var status, priority string
	var location, skills, notes *string
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.TaskDate, &t.AssignedVolunteerID, &status,
		&location, &skills, &t.EstimatedHours, &priority, &t.CreatedDate, &t.CompletionDate, &notes, &t.Version); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.Priority(priority)
	t.Location = deref(location)
	t.RequiredSkills = deref(skills)
	t.Notes = deref(notes)
	return &t, nil
}

// CreateTask inserts a new volunteer task
func (s *Store) CreateTask(ctx context.Context, t *models.VolunteerTask) error {
	if t.Version <= 0 {
		t.Version = 1
	}
	_, err := s.db.Exec(ctx, `INSERT INTO volunteer_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.Title, t.Description, t.TaskDate, t.AssignedVolunteerID, string(t.Status),
		nullable(t.Location), nullable(t.RequiredSkills), t.EstimatedHours, string(t.Priority),
		t.CreatedDate, t.CompletionDate, nullable(t.Notes), t.Version)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask looks up a task by id
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.VolunteerTask, error) {
	t, err := scanTask(s.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM volunteer_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask writes the mutable task fields under a version check
func (s *Store) UpdateTask(ctx context.Context, t *models.VolunteerTask) error {
	tag, err := s.db.Exec(ctx, `UPDATE volunteer_tasks
		SET title = $1, description = $2, task_date = $3, assigned_volunteer_id = $4, status = $5,
			location = $6, required_skills = $7, estimated_hours = $8, priority = $9,
			completion_date = $10, notes = $11, version = version + 1
		WHERE id = $12 AND version = $13`,
		t.Title, t.Description, t.TaskDate, t.AssignedVolunteerID, string(t.Status),
		nullable(t.Location), nullable(t.RequiredSkills), t.EstimatedHours, string(t.Priority),
		t.CompletionDate, nullable(t.Notes), t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, "volunteer_tasks", t.ID)
	}
	t.Version++
	return nil
}

// DeleteTask removes a task; absent ids are ignored
func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM volunteer_tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func taskWhere(f store.TaskFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if f.ExcludeStatus != "" {
		w.add("status <> $%d", string(f.ExcludeStatus))
	}
	if f.AssignedVolunteerID != "" {
		w.add("assigned_volunteer_id = $%d", f.AssignedVolunteerID)
	}
	if f.UnassignedOnly {
		w.add("assigned_volunteer_id IS NULL")
	}
	if f.From != nil {
		w.add("task_date >= $%d", *f.From)
	}
	return w
}

// ListTasks returns tasks ordered by task date, earliest first
func (s *Store) ListTasks(ctx context.Context, f store.TaskFilter) ([]models.VolunteerTask, error) {
	w := taskWhere(f)
	rows, err := s.db.Query(ctx, `SELECT `+taskColumns+` FROM volunteer_tasks`+w.String()+
		` ORDER BY task_date ASC, id`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]models.VolunteerTask, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CountTasks counts tasks matching f
func (s *Store) CountTasks(ctx context.Context, f store.TaskFilter) (int64, error) {
	w := taskWhere(f)
	var n int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM volunteer_tasks`+w.String(), w.args...).Scan(&n)
	return n, err
}
