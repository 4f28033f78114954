package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

const incidentColumns = `id, title, description, location, date_reported, reported_by_user_id, status, priority, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.IncidentReport, error) {
	var r models.IncidentReport
	var reported string
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Location, &reported,
		&r.ReportedByUserID, &r.Status, &r.Priority, &r.Version); err != nil {
		return nil, err
	}
	t, err := parseTime(reported)
	if err != nil {
		return nil, err
	}
	r.DateReported = t
	return &r, nil
}

// CreateIncident inserts a new incident report
func (s *Store) CreateIncident(ctx context.Context, r *models.IncidentReport) error {
	if r.Version <= 0 {
		r.Version = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO incident_reports (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.Location, formatTime(r.DateReported),
		r.ReportedByUserID, string(r.Status), string(r.Priority), r.Version)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// GetIncident looks up an incident by id
func (s *Store) GetIncident(ctx context.Context, id uuid.UUID) (*models.IncidentReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incident_reports WHERE id=?`, id)
	r, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return r, nil
}

// UpdateIncident writes the mutable incident fields under a version check.
// Reporter and report date are never written.
func (s *Store) UpdateIncident(ctx context.Context, r *models.IncidentReport) error {
	res, err := s.db.ExecContext(ctx, `UPDATE incident_reports
		SET title=?, description=?, location=?, status=?, priority=?, version=version+1
		WHERE id=? AND version=?`,
		r.Title, r.Description, r.Location, string(r.Status), string(r.Priority), r.ID, r.Version)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.missingOrConflict(ctx, "incident_reports", r.ID.String())
	}
	r.Version++
	return nil
}

// DeleteIncident removes an incident; absent ids are ignored
func (s *Store) DeleteIncident(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM incident_reports WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	return nil
}

func incidentWhere(f store.IncidentFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status=?", string(f.Status))
	}
	return w
}

// ListIncidents returns incidents newest first
func (s *Store) ListIncidents(ctx context.Context, f store.IncidentFilter) ([]models.IncidentReport, error) {
	w := incidentWhere(f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+incidentColumns+` FROM incident_reports`+w.String()+
		` ORDER BY date_reported DESC, id`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := make([]models.IncidentReport, 0)
	for rows.Next() {
		r, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CountIncidents counts incidents matching f
func (s *Store) CountIncidents(ctx context.Context, f store.IncidentFilter) (int64, error) {
	w := incidentWhere(f)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incident_reports`+w.String(), w.args...).Scan(&n)
	return n, err
}
