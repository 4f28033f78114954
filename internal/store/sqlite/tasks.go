package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

const taskColumns = `id, title, description, task_date, assigned_volunteer_id, status, location,
	required_skills, estimated_hours, priority, created_date, completion_date, notes, version`

func scanTask(row rowScanner) (*models.VolunteerTask, error) {
	var t models.VolunteerTask
	var taskDate, created string
	var assignee, location, skills, completion, notes sql.NullString
	var hours sql.NullFloat64
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &taskDate, &assignee, &t.Status, &location,
		&skills, &hours, &t.Priority, &created, &completion, &notes, &t.Version); err != nil {
		return nil, err
	}
	var err error
	if t.TaskDate, err = parseTime(taskDate); err != nil {
		return nil, err
	}
	if t.CreatedDate, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.CompletionDate, err = optionalTime(completion); err != nil {
		return nil, err
	}
	t.AssignedVolunteerID = optionalString(assignee)
	t.Location = location.String
	t.RequiredSkills = skills.String
	t.Notes = notes.String
	if hours.Valid {
		h := hours.Float64
		t.EstimatedHours = &h
	}
	return &t, nil
}

// CreateTask inserts a new volunteer task
func (s *Store) CreateTask(ctx context.Context, t *models.VolunteerTask) error {
	if t.Version <= 0 {
		t.Version = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO volunteer_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, formatTime(t.TaskDate), nullablePtr(t.AssignedVolunteerID),
		string(t.Status), nullable(t.Location), nullable(t.RequiredSkills), nullableFloat(t.EstimatedHours),
		string(t.Priority), formatTime(t.CreatedDate), nullableTime(t.CompletionDate), nullable(t.Notes), t.Version)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask looks up a task by id
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.VolunteerTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM volunteer_tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask writes the mutable task fields under a version check.
// Created date is never written.
func (s *Store) UpdateTask(ctx context.Context, t *models.VolunteerTask) error {
	res, err := s.db.ExecContext(ctx, `UPDATE volunteer_tasks
		SET title=?, description=?, task_date=?, assigned_volunteer_id=?, status=?, location=?,
			required_skills=?, estimated_hours=?, priority=?, completion_date=?, notes=?, version=version+1
		WHERE id=? AND version=?`,
		t.Title, t.Description, formatTime(t.TaskDate), nullablePtr(t.AssignedVolunteerID), string(t.Status),
		nullable(t.Location), nullable(t.RequiredSkills), nullableFloat(t.EstimatedHours), string(t.Priority),
		nullableTime(t.CompletionDate), nullable(t.Notes), t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.missingOrConflict(ctx, "volunteer_tasks", t.ID.String())
	}
	t.Version++
	return nil
}

// DeleteTask removes a task; absent ids are ignored
func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM volunteer_tasks WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func taskWhere(f store.TaskFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status=?", string(f.Status))
	}
	if f.ExcludeStatus != "" {
		w.add("status<>?", string(f.ExcludeStatus))
	}
	if f.AssignedVolunteerID != "" {
		w.add("assigned_volunteer_id=?", f.AssignedVolunteerID)
	}
	if f.UnassignedOnly {
		w.add("assigned_volunteer_id IS NULL")
	}
	if f.From != nil {
		w.add("task_date>=?", formatTime(*f.From))
	}
	return w
}

// ListTasks returns tasks ordered by task date, earliest first
func (s *Store) ListTasks(ctx context.Context, f store.TaskFilter) ([]models.VolunteerTask, error) {
	w := taskWhere(f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM volunteer_tasks`+w.String()+
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
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteer_tasks`+w.String(), w.args...).Scan(&n)
	return n, err
}
