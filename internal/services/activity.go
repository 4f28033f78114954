package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
)

// ActivityLogService records who changed what across the workflow entities
type ActivityLogService struct {
	store  store.ActivityStore
	logger *zap.SugaredLogger
	Now    func() time.Time
}

// NewActivityLogService creates a new activity log service
func NewActivityLogService(st store.ActivityStore, logger *zap.SugaredLogger) *ActivityLogService {
	return &ActivityLogService{store: st, logger: logger, Now: time.Now}
}

// Log appends an entry for a completed write. The write it describes has
// already been committed, so a logging failure is reported but not returned.
func (s *ActivityLogService) Log(ctx context.Context, actor models.Actor, kind, entityID, action, detail string) {
	if s == nil {
		return
	}
	entry := &models.ActivityLog{
		ID:         uuid.New(),
		EntityKind: kind,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actor.ID,
		Detail:     detail,
		CreatedAt:  s.Now().UTC().Truncate(time.Microsecond),
	}
	entry.EntryHash = EntryHash(entry)

	if err := s.store.AppendActivity(ctx, entry); err != nil {
		s.logger.Errorw("Failed to record activity",
			"entity", kind,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
		return
	}

	s.logger.Infow("Activity logged",
		"actor", actor.ID,
		"entity", kind,
		"action", action,
	)
}

// EntryHash is the SHA-256 digest of an entry's content fields
func EntryHash(e *models.ActivityLog) string {
	h := sha256.New()
	h.Write([]byte(strings.Join([]string{
		e.ID.String(),
		e.EntityKind,
		e.EntityID,
		e.Action,
		e.ActorID,
		e.Detail,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}

// FetchRecent returns recent activity across all entities
func (s *ActivityLogService) FetchRecent(ctx context.Context, actor models.Actor, limit int) ([]models.ActivityLog, error) {
	if !access.CanViewActivity(actor) {
		return nil, ErrForbidden
	}
	logs, err := s.store.ListActivity(ctx, store.ActivityFilter{Limit: clampLimit(limit, 50, 500)})
	return logs, storeErr("list activity", err)
}

// FetchByEntity returns the activity trail of one record
func (s *ActivityLogService) FetchByEntity(ctx context.Context, actor models.Actor, kind, entityID string, limit int) ([]models.ActivityLog, error) {
	if !access.CanViewActivity(actor) {
		return nil, ErrForbidden
	}
	switch kind {
	case models.EntityIncident, models.EntityDonation, models.EntityTask, models.EntityUser:
	default:
		return nil, invalid("entity", "unknown entity kind")
	}
	logs, err := s.store.ListActivity(ctx, store.ActivityFilter{
		EntityKind: kind,
		EntityID:   entityID,
		Limit:      clampLimit(limit, 50, 500),
	})
	return logs, storeErr("list activity", err)
}

// Hashes returns every entry hash in append order
func (s *ActivityLogService) Hashes(ctx context.Context) ([]string, error) {
	hashes, err := s.store.ActivityHashes(ctx)
	return hashes, storeErr("list activity hashes", err)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
