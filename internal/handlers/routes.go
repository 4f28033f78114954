package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/reliefhub/relief-server/internal/middleware"
	"github.com/reliefhub/relief-server/internal/models"
)

// Set groups the handlers mounted under /api/v1
type Set struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Incidents *IncidentHandler
	Donations *DonationHandler
	Tasks     *TaskHandler
	Dashboard *DashboardHandler
	Activity  *ActivityHandler
	Integrity *IntegrityHandler
}

// Mount registers every API route on r. Routes other than health, login,
// registration and integrity require a bearer token via requireAuth.
func Mount(r chi.Router, h Set, requireAuth func(http.Handler) http.Handler) {
	// Health check
	r.Get("/health", h.Health.Check)
	r.Get("/health/ready", h.Health.Ready)

	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/login", h.Auth.Login)

	// Integrity endpoints (Merkle tree over the activity log)
	r.Route("/integrity", func(r chi.Router) {
		r.Get("/root", h.Integrity.GetRoot)
		r.Get("/proof/{index}", h.Integrity.GetProof)
		r.Post("/verify", h.Integrity.Verify)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/auth/me", h.Auth.Me)

		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", h.Incidents.List)
			r.Post("/", h.Incidents.Report)
			r.Get("/{id}", h.Incidents.Get)
			r.Put("/{id}", h.Incidents.Edit)
			r.Put("/{id}/status", h.Incidents.SetStatus)
			r.Delete("/{id}", h.Incidents.Delete)
		})

		r.Route("/donations", func(r chi.Router) {
			r.Get("/", h.Donations.List)
			r.Post("/", h.Donations.Record)
			r.Get("/mine", h.Donations.Mine)
			r.Get("/{id}", h.Donations.Get)
			r.Put("/{id}", h.Donations.Edit)
			r.Put("/{id}/status", h.Donations.SetStatus)
			r.Delete("/{id}", h.Donations.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.List)
			r.Post("/", h.Tasks.Create)
			r.Get("/available", h.Tasks.Available)
			r.Get("/mine", h.Tasks.Mine)
			r.Get("/{id}", h.Tasks.Get)
			r.Put("/{id}", h.Tasks.Edit)
			r.Post("/{id}/signup", h.Tasks.SignUp)
			r.Post("/{id}/complete", h.Tasks.Complete)
			r.Delete("/{id}", h.Tasks.Delete)
		})

		r.Get("/dashboard", h.Dashboard.Overview)
		r.Get("/dashboard/admin", h.Dashboard.Admin)

		// Admin-only endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/activity/recent", h.Activity.Recent)
			r.Get("/activity/{entity}/{id}", h.Activity.ByEntity)
			r.Post("/admin/users/{id}/roles", h.Auth.GrantRole)
		})
	})
}
