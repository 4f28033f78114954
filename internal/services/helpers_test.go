package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reliefhub/relief-server/internal/database"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store/sqlite"
	"go.uber.org/zap"
)

var (
	adminActor     = models.Actor{ID: "admin-1", Roles: []models.Role{models.RoleAdmin}}
	volunteerActor = models.Actor{ID: "vol-1", Roles: []models.Role{models.RoleVolunteer}}
	otherVolunteer = models.Actor{ID: "vol-2", Roles: []models.Role{models.RoleVolunteer}}
	donorActor     = models.Actor{ID: "donor-1", Roles: []models.Role{models.RoleDonor}}
	otherDonor     = models.Actor{ID: "donor-2", Roles: []models.Role{models.RoleDonor}}
	regularActor   = models.Actor{ID: "user-1", Roles: []models.Role{models.RoleRegularUser}}
)

// stepClock advances by one minute on every reading so creation order is
// reflected in timestamps.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type testEnv struct {
	store     *sqlite.Store
	clock     *stepClock
	activity  *ActivityLogService
	incidents *IncidentService
	donations *DonationService
	tasks     *TaskService
	dashboard *DashboardService
	auth      *AuthService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := database.OpenSQLite(filepath.Join(t.TempDir(), "relief.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	st := sqlite.New(conn)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(st.Close)

	logger := zap.NewNop().Sugar()
	clock := &stepClock{t: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	activity := NewActivityLogService(st, logger)
	activity.Now = clock.Now
	env := &testEnv{
		store:     st,
		clock:     clock,
		activity:  activity,
		incidents: NewIncidentService(st, activity, logger),
		donations: NewDonationService(st, activity, logger),
		tasks:     NewTaskService(st, activity, logger),
		dashboard: NewDashboardService(st, logger),
		auth:      NewAuthService(st, activity, "test-secret", time.Hour, logger),
	}
	env.incidents.Now = clock.Now
	env.donations.Now = clock.Now
	env.tasks.Now = clock.Now
	env.dashboard.Now = clock.Now
	return env
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func expectValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error on %s, got %v", field, err)
	}
	for _, f := range ve.Fields {
		if f.Field == field {
			return
		}
	}
	t.Fatalf("expected validation error on %s, got %v", field, ve)
}

func (e *testEnv) createTask(t *testing.T, title string, date time.Time) *models.VolunteerTask {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), adminActor, models.CreateTaskInput{
		Title:       title,
		Description: title + " description",
		TaskDate:    &date,
	})
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

func (e *testEnv) recordDonation(t *testing.T, actor models.Actor, resource string, qty int) *models.Donation {
	t.Helper()
	d, err := e.donations.Record(context.Background(), actor, models.RecordDonationInput{
		DonorName:    "Donor " + actor.ID,
		ResourceType: resource,
		Quantity:     qty,
	})
	if err != nil {
		t.Fatalf("record donation: %v", err)
	}
	return d
}
