package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

// AppendActivity records one activity entry
func (s *Store) AppendActivity(ctx context.Context, a *models.ActivityLog) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO activity_logs
		(id, entity_kind, entity_id, action, actor_id, detail, entry_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EntityKind, a.EntityID, a.Action, a.ActorID, nullable(a.Detail), a.EntryHash, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ListActivity returns activity entries newest first
func (s *Store) ListActivity(ctx context.Context, f store.ActivityFilter) ([]models.ActivityLog, error) {
	w := &where{}
	if f.EntityKind != "" {
		w.add("entity_kind=?", f.EntityKind)
	}
	if f.EntityID != "" {
		w.add("entity_id=?", f.EntityID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, entity_kind, entity_id, action, actor_id, detail, entry_hash, created_at
		FROM activity_logs`+w.String()+` ORDER BY seq DESC`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ActivityLog, 0)
	for rows.Next() {
		var l models.ActivityLog
		var detail sql.NullString
		var created string
		if err := rows.Scan(&l.ID, &l.EntityKind, &l.EntityID, &l.Action, &l.ActorID, &detail, &l.EntryHash, &created); err != nil {
			return nil, err
		}
		l.Detail = detail.String
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ActivityHashes returns all entry hashes oldest first
func (s *Store) ActivityHashes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_hash FROM activity_logs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list activity hashes: %w", err)
	}
	defer rows.Close()
	hashes := make([]string, 0)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}
