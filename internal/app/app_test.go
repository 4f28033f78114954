package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/reliefhub/relief-server/internal/config"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabaseDriver:  "sqlite",
		SQLitePath:      filepath.Join(t.TempDir(), "app.db"),
		JWTSecret:       "app-secret",
		TokenTTL:        time.Hour,
		AdminEmail:      "admin@example.org",
		AdminPassword:   "Admin123!",
		SeedSampleTasks: true,
	}
}

func TestBootstrapSeedsOnce(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	a := New(st, cfg, zap.NewNop().Sugar())
	for i := 0; i < 2; i++ {
		if err := a.Bootstrap(ctx, cfg); err != nil {
			t.Fatalf("bootstrap %d: %v", i, err)
		}
	}

	n, err := st.CountTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if int(n) != len(services.DefaultSeedTasks) {
		t.Fatalf("expected %d seeded tasks, got %d", len(services.DefaultSeedTasks), n)
	}

	resp, err := a.Auth.Login(ctx, models.LoginInput{Email: cfg.AdminEmail, Password: cfg.AdminPassword})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if resp.Role != models.RoleAdmin {
		t.Fatalf("expected Admin role, got %s", resp.Role)
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"
	if _, err := OpenStore(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
