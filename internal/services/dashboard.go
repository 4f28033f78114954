package services

import (
	"context"
	"time"

	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
)

const (
	dashboardTake      = 5
	adminDashboardTake = 10
)

// DashboardStore is the read surface the dashboard projects over.
type DashboardStore interface {
	store.IncidentStore
	store.DonationStore
	store.TaskStore
}

// DashboardService computes per-actor summary views. Nothing is cached;
// every call reads current state.
type DashboardService struct {
	store  DashboardStore
	logger *zap.SugaredLogger
	Now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(st DashboardStore, logger *zap.SugaredLogger) *DashboardService {
	return &DashboardService{store: st, logger: logger, Now: time.Now}
}

// Overview returns the default dashboard personalised by effective role.
// Volunteers see their own open assignments in place of upcoming tasks and
// donors see their own donations in place of recent donations.
func (s *DashboardService) Overview(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	role := access.EffectiveRole(actor.Roles)
	d, err := s.counts(ctx, role)
	if err != nil {
		return nil, err
	}

	if d.RecentIncidents, err = s.store.ListIncidents(ctx, store.IncidentFilter{Limit: dashboardTake}); err != nil {
		return nil, storeErr("dashboard incidents", err)
	}

	donations := store.DonationFilter{Limit: dashboardTake}
	if role == models.RoleDonor {
		donations.DonorUserID = actor.ID
	}
	if d.RecentDonations, err = s.store.ListDonations(ctx, donations); err != nil {
		return nil, storeErr("dashboard donations", err)
	}

	tasks := store.TaskFilter{ExcludeStatus: models.TaskCompleted, Limit: dashboardTake}
	if role == models.RoleVolunteer {
		tasks.AssignedVolunteerID = actor.ID
	} else {
		today := startOfDay(s.Now())
		tasks.From = &today
	}
	if d.UpcomingTasks, err = s.store.ListTasks(ctx, tasks); err != nil {
		return nil, storeErr("dashboard tasks", err)
	}
	return d, nil
}

// AdminOverview returns the extended admin view: ten recent incidents,
// ten Pending donations and ten Open tasks.
func (s *DashboardService) AdminOverview(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	if !access.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	d, err := s.counts(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if d.RecentIncidents, err = s.store.ListIncidents(ctx, store.IncidentFilter{Limit: adminDashboardTake}); err != nil {
		return nil, storeErr("dashboard incidents", err)
	}
	if d.RecentDonations, err = s.store.ListDonations(ctx, store.DonationFilter{
		Status: models.DonationPending,
		Limit:  adminDashboardTake,
	}); err != nil {
		return nil, storeErr("dashboard donations", err)
	}
	if d.UpcomingTasks, err = s.store.ListTasks(ctx, store.TaskFilter{
		Status: models.TaskOpen,
		Limit:  adminDashboardTake,
	}); err != nil {
		return nil, storeErr("dashboard tasks", err)
	}
	return d, nil
}

func (s *DashboardService) counts(ctx context.Context, role models.Role) (*models.Dashboard, error) {
	d := &models.Dashboard{Role: role}
	var err error
	if d.TotalIncidents, err = s.store.CountIncidents(ctx, store.IncidentFilter{}); err != nil {
		return nil, storeErr("count incidents", err)
	}
	if d.PendingDonations, err = s.store.CountDonations(ctx, store.DonationFilter{Status: models.DonationPending}); err != nil {
		return nil, storeErr("count donations", err)
	}
	if d.OpenVolunteerTasks, err = s.store.CountTasks(ctx, store.TaskFilter{Status: models.TaskOpen}); err != nil {
		return nil, storeErr("count tasks", err)
	}
	return d, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
