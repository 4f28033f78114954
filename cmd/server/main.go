// Package main is the entry point for the relief coordination server.
// It provides a REST API for incident reports, resource donations and
// volunteer tasks, gated by role, with a per-role dashboard.
//
// Architecture:
//   - Persistence on SQLite (default) or PostgreSQL behind one store interface
//   - Bearer tokens (HS256) carry the user's roles
//   - Every mutation is written to an append-only activity log
//   - A Merkle root over the activity log is published for tamper detection
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/reliefhub/relief-server/internal/app"
	"github.com/reliefhub/relief-server/internal/config"
	"github.com/reliefhub/relief-server/internal/handlers"
	"github.com/reliefhub/relief-server/internal/middleware"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting relief server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"driver", cfg.DatabaseDriver,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		sugar.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	a := app.New(st, cfg, sugar)
	if err := a.Bootstrap(ctx, cfg); err != nil {
		sugar.Fatalf("Failed to seed data: %v", err)
	}

	// Start background integrity worker (rebuilds Merkle tree periodically)
	integrityWorker := services.NewIntegrityWorker(a.Merkle, a.Activity, sugar)
	go integrityWorker.Start(ctx, cfg.IntegrityRebuildInterval)

	limiter, closeLimiter := newLimiter(cfg, sugar)
	defer closeLimiter()

	set := handlers.Set{
		Health:    handlers.NewHealthHandler(st, a.Merkle, sugar),
		Auth:      handlers.NewAuthHandler(a.Auth, sugar),
		Incidents: handlers.NewIncidentHandler(a.Incidents, sugar),
		Donations: handlers.NewDonationHandler(a.Donations, sugar),
		Tasks:     handlers.NewTaskHandler(a.Tasks, sugar),
		Dashboard: handlers.NewDashboardHandler(a.Dashboard, sugar),
		Activity:  handlers.NewActivityHandler(a.Activity, sugar),
		Integrity: handlers.NewIntegrityHandler(a.Merkle, sugar),
	}

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(limiter, sugar))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		handlers.Mount(r, set, middleware.RequireAuth(cfg.JWTSecret))
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

// newLimiter returns a Redis-backed limiter when REDIS_URL is set so that
// replicas share counters, and an in-process one otherwise.
func newLimiter(cfg *config.Config, logger *zap.SugaredLogger) (middleware.Limiter, func()) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(cfg.RateLimitRPM, time.Minute), func() {}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatalf("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	logger.Infow("Rate limiter using redis", "addr", opts.Addr)
	return middleware.NewRedisLimiter(client, cfg.RateLimitRPM, time.Minute), func() { client.Close() }
}
