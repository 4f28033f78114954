package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/database"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := database.OpenSQLite(filepath.Join(t.TempDir(), "relief.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s := New(conn)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMigrateIsRepeatable(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestIncidentRoundTripAndVersioning(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	r := &models.IncidentReport{
		ID:               uuid.New(),
		Title:            "Flooded bridge",
		Description:      "Water over the deck",
		Location:         "River Rd",
		DateReported:     base,
		ReportedByUserID: "user-1",
		Status:           models.IncidentOpen,
		Priority:         models.PriorityHigh,
	}
	if err := s.CreateIncident(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetIncident(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.DateReported.Equal(base) || got.Status != models.IncidentOpen || got.Version != 1 {
		t.Fatalf("unexpected incident: %+v", got)
	}

	stale := *got
	got.Status = models.IncidentInProgress
	if err := s.UpdateIncident(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("version = %d, want 2", got.Version)
	}

	stale.Status = models.IncidentClosed
	if err := s.UpdateIncident(ctx, &stale); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale update err = %v, want ErrConflict", err)
	}

	missing := *got
	missing.ID = uuid.New()
	if err := s.UpdateIncident(ctx, &missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing update err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	if err := s.DeleteIncident(ctx, id); err != nil {
		t.Fatalf("delete incident: %v", err)
	}
	if err := s.DeleteDonation(ctx, id); err != nil {
		t.Fatalf("delete donation: %v", err)
	}
	if err := s.DeleteTask(ctx, id); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := s.GetTask(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get err = %v, want ErrNotFound", err)
	}
}

func TestDonationFiltersAndOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	donor := "donor-1"
	other := "donor-2"
	for i, tc := range []struct {
		owner  *string
		status models.DonationStatus
	}{
		{&donor, models.DonationPending},
		{&other, models.DonationPending},
		{&donor, models.DonationApproved},
		{nil, models.DonationPending},
	} {
		d := &models.Donation{
			ID:           uuid.New(),
			DonorName:    "Donor",
			ResourceType: "Blankets",
			Quantity:     i + 1,
			DateDonated:  base.Add(time.Duration(i) * time.Hour),
			Status:       tc.status,
			DonorUserID:  tc.owner,
		}
		if err := s.CreateDonation(ctx, d); err != nil {
			t.Fatalf("create donation %d: %v", i, err)
		}
	}

	mine, err := s.ListDonations(ctx, store.DonationFilter{DonorUserID: donor})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 || mine[0].Quantity != 3 || mine[1].Quantity != 1 {
		t.Fatalf("mine = %+v, want quantities [3 1]", mine)
	}

	pending, err := s.CountDonations(ctx, store.DonationFilter{Status: models.DonationPending})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if pending != 3 {
		t.Fatalf("pending = %d, want 3", pending)
	}

	top, err := s.ListDonations(ctx, store.DonationFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list top: %v", err)
	}
	if len(top) != 2 || top[0].Quantity != 4 {
		t.Fatalf("top = %+v, want newest first", top)
	}
	if top[0].DonorUserID != nil {
		t.Fatalf("anonymous donation owner = %v, want nil", *top[0].DonorUserID)
	}
}

func TestTaskFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	vol := "vol-1"
	hours := 4.5
	done := base.Add(2 * time.Hour)
	tasks := []*models.VolunteerTask{
		{Title: "past", TaskDate: base.Add(-48 * time.Hour), Status: models.TaskOpen},
		{Title: "open", TaskDate: base.Add(24 * time.Hour), Status: models.TaskOpen, EstimatedHours: &hours},
		{Title: "assigned", TaskDate: base.Add(48 * time.Hour), Status: models.TaskAssigned, AssignedVolunteerID: &vol},
		{Title: "completed", TaskDate: base.Add(12 * time.Hour), Status: models.TaskCompleted, AssignedVolunteerID: &vol, CompletionDate: &done},
	}
	for _, task := range tasks {
		task.ID = uuid.New()
		task.Description = "desc"
		task.Priority = models.PriorityMedium
		task.CreatedDate = base
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("create %s: %v", task.Title, err)
		}
	}

	from := base
	upcoming, err := s.ListTasks(ctx, store.TaskFilter{From: &from, ExcludeStatus: models.TaskCompleted})
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(upcoming) != 2 || upcoming[0].Title != "open" || upcoming[1].Title != "assigned" {
		t.Fatalf("upcoming = %+v", upcoming)
	}
	if upcoming[0].EstimatedHours == nil || *upcoming[0].EstimatedHours != 4.5 {
		t.Fatalf("estimated hours not round-tripped: %+v", upcoming[0].EstimatedHours)
	}

	available, err := s.ListTasks(ctx, store.TaskFilter{Status: models.TaskOpen, UnassignedOnly: true})
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 2 || available[0].Title != "past" {
		t.Fatalf("available = %+v", available)
	}

	mine, err := s.ListTasks(ctx, store.TaskFilter{AssignedVolunteerID: vol})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 2 || mine[0].Title != "completed" || mine[0].CompletionDate == nil || !mine[0].CompletionDate.Equal(done) {
		t.Fatalf("mine = %+v", mine)
	}

	open, err := s.CountTasks(ctx, store.TaskFilter{Status: models.TaskOpen})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if open != 2 {
		t.Fatalf("open = %d, want 2", open)
	}
}

func TestUsersAndRoles(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        "vol@example.org",
		PasswordHash: "hash",
		Roles:        []models.Role{models.RoleVolunteer},
		CreatedAt:    base,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	dup := *u
	dup.ID = uuid.NewString()
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate err = %v, want ErrDuplicate", err)
	}

	if err := s.AddUserRole(ctx, u.ID, models.RoleDonor); err != nil {
		t.Fatalf("add role: %v", err)
	}
	if err := s.AddUserRole(ctx, u.ID, models.RoleDonor); err != nil {
		t.Fatalf("add role twice: %v", err)
	}
	if err := s.AddUserRole(ctx, "nobody", models.RoleDonor); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("add role to missing user err = %v, want ErrNotFound", err)
	}

	got, err := s.GetUserByEmail(ctx, "vol@example.org")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if len(got.Roles) != 2 || got.Roles[0] != models.RoleDonor || got.Roles[1] != models.RoleVolunteer {
		t.Fatalf("roles = %v", got.Roles)
	}
}

func TestActivityOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for i, h := range []string{"a", "b", "c"} {
		entry := &models.ActivityLog{
			ID:         uuid.New(),
			EntityKind: models.EntityTask,
			EntityID:   "t1",
			Action:     "signup",
			ActorID:    "vol-1",
			EntryHash:  h,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendActivity(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	hashes, err := s.ActivityHashes(ctx)
	if err != nil {
		t.Fatalf("hashes: %v", err)
	}
	if len(hashes) != 3 || hashes[0] != "a" || hashes[2] != "c" {
		t.Fatalf("hashes = %v", hashes)
	}
	recent, err := s.ListActivity(ctx, store.ActivityFilter{EntityKind: models.EntityTask, EntityID: "t1", Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 2 || recent[0].EntryHash != "c" {
		t.Fatalf("recent = %+v", recent)
	}
}
