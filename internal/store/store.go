// Package store defines the persistence contract the workflow services run
// against. The store is the single source of truth and the serialization
// point for concurrent writes: every update carries the version it read and
// fails with ErrConflict when the stored row has moved on.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an update's expected version is stale.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// IncidentFilter narrows incident listings. Results are ordered by
// date reported, newest first.
type IncidentFilter struct {
	Status models.IncidentStatus
	Limit  int
}

// DonationFilter narrows donation listings. Results are ordered by
// date donated, newest first.
type DonationFilter struct {
	Status      models.DonationStatus
	DonorUserID string
	Limit       int
}

// TaskFilter narrows task listings. Results are ordered by task date, earliest first.
type TaskFilter struct {
	Status              models.TaskStatus
	ExcludeStatus       models.TaskStatus
	AssignedVolunteerID string
	UnassignedOnly      bool
	From                *time.Time
	Limit               int
}

// ActivityFilter narrows activity listings. Results are newest first.
type ActivityFilter struct {
	EntityKind string
	EntityID   string
	Limit      int
}

// IncidentStore persists incident reports.
type IncidentStore interface {
	CreateIncident(ctx context.Context, r *models.IncidentReport) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.IncidentReport, error)
	// UpdateIncident writes r if the stored version equals r.Version and
	// bumps r.Version on success.
	UpdateIncident(ctx context.Context, r *models.IncidentReport) error
	// DeleteIncident is a no-op for absent ids.
	DeleteIncident(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context, f IncidentFilter) ([]models.IncidentReport, error)
	CountIncidents(ctx context.Context, f IncidentFilter) (int64, error)
}

// DonationStore persists donations.
type DonationStore interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	GetDonation(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	UpdateDonation(ctx context.Context, d *models.Donation) error
	DeleteDonation(ctx context.Context, id uuid.UUID) error
	ListDonations(ctx context.Context, f DonationFilter) ([]models.Donation, error)
	CountDonations(ctx context.Context, f DonationFilter) (int64, error)
}

// TaskStore persists volunteer tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, t *models.VolunteerTask) error
	GetTask(ctx context.Context, id uuid.UUID) (*models.VolunteerTask, error)
	UpdateTask(ctx context.Context, t *models.VolunteerTask) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, f TaskFilter) ([]models.VolunteerTask, error)
	CountTasks(ctx context.Context, f TaskFilter) (int64, error)
}

// UserStore is the identity collaborator's backing table.
type UserStore interface {
	// CreateUser inserts u and its roles. A taken email yields ErrDuplicate.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// AddUserRole is idempotent.
	AddUserRole(ctx context.Context, userID string, role models.Role) error
}

// ActivityStore persists the append-only activity log.
type ActivityStore interface {
	AppendActivity(ctx context.Context, a *models.ActivityLog) error
	ListActivity(ctx context.Context, f ActivityFilter) ([]models.ActivityLog, error)
	// ActivityHashes returns every entry hash, oldest first.
	ActivityHashes(ctx context.Context) ([]string, error)
}

// Store is the full persistence surface.
type Store interface {
	IncidentStore
	DonationStore
	TaskStore
	UserStore
	ActivityStore
	Ping(ctx context.Context) error
	Close()
}
