package http

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/societyresolver/complaint-service/internal/api/http/handlers"
	"github.com/societyresolver/complaint-service/internal/auth"
	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Workers        *handlers.WorkersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	PublicDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/favicon.ico", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.PublicDir != "" {
		if info, err := os.Stat(cfg.PublicDir); err == nil && info.IsDir() {
			app.Static("/public", cfg.PublicDir)
		}
	}

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)

	authn := cfg.AuthMiddleware.Handle
	admin := auth.RequireRole(domain.RoleAdmin)

	app.Get("/user-by-email", authn, admin, cfg.Users.UserByEmail)
	app.Post("/users", authn, admin, cfg.Users.CreateUser)

	app.Post("/complaints", authn, cfg.Complaints.CreateComplaint)
	app.Get("/complaints", authn, cfg.Complaints.ListComplaints)
	app.Get("/complaints/:id", authn, cfg.Complaints.GetComplaint)
	app.Get("/complaints/:id/history", authn, cfg.Complaints.History)
	app.Put("/complaints/:id/status", authn, cfg.Complaints.UpdateStatus)
	app.Put("/complaints/:id/assign", authn, admin, cfg.Complaints.AssignWorker)

	app.Get("/workers", authn, cfg.Workers.ListWorkers)
}
