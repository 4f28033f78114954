// Package app assembles the store and services shared by the HTTP server
// and the reliefctl command.
package app

import (
	"context"
	"fmt"

	"github.com/reliefhub/relief-server/internal/config"
	"github.com/reliefhub/relief-server/internal/database"
	"github.com/reliefhub/relief-server/internal/services"
	"github.com/reliefhub/relief-server/internal/store"
	"github.com/reliefhub/relief-server/internal/store/postgres"
	"github.com/reliefhub/relief-server/internal/store/sqlite"
	"go.uber.org/zap"
)

// Store is a persistence backend that can apply its own schema
type Store interface {
	store.Store
	Migrate(ctx context.Context) error
}

// OpenStore connects to the backend selected by cfg.DatabaseDriver and
// applies migrations.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	var st Store
	switch cfg.DatabaseDriver {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{})
		if err != nil {
			return nil, err
		}
		st = postgres.New(pool)
	case "sqlite":
		conn, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		st = sqlite.New(conn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// App holds the service graph over one store
type App struct {
	Store     Store
	Activity  *services.ActivityLogService
	Auth      *services.AuthService
	Incidents *services.IncidentService
	Donations *services.DonationService
	Tasks     *services.TaskService
	Dashboard *services.DashboardService
	Merkle    *services.MerkleService
	Seeder    *services.Seeder
}

// New wires every service over st
func New(st Store, cfg *config.Config, logger *zap.SugaredLogger) *App {
	activity := services.NewActivityLogService(st, logger)
	authSvc := services.NewAuthService(st, activity, cfg.JWTSecret, cfg.TokenTTL, logger)
	tasks := services.NewTaskService(st, activity, logger)
	return &App{
		Store:     st,
		Activity:  activity,
		Auth:      authSvc,
		Incidents: services.NewIncidentService(st, activity, logger),
		Donations: services.NewDonationService(st, activity, logger),
		Tasks:     tasks,
		Dashboard: services.NewDashboardService(st, logger),
		Merkle:    services.NewMerkleService(logger),
		Seeder:    services.NewSeeder(authSvc, tasks, st, logger),
	}
}

// Bootstrap ensures the configured admin exists and, when enabled, seeds
// the sample tasks into an empty task table.
func (a *App) Bootstrap(ctx context.Context, cfg *config.Config) error {
	admin, err := a.Seeder.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if !cfg.SeedSampleTasks {
		return nil
	}
	_, err = a.Seeder.SeedTasks(ctx, admin, services.DefaultSeedTasks, true)
	return err
}
