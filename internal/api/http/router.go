package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/siddhartha296/vechicle-service-portal/internal/api/http/handlers"
	"github.com/siddhartha296/vechicle-service-portal/internal/identity"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Complaints      *handlers.ComplaintsHandler
	StaffComplaints *handlers.StaffComplaintsHandler
	AuthMiddleware  *identity.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Get("/session", cfg.Auth.Session)

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle, identity.RequireCustomer())
	complaints.Post("/", cfg.Complaints.Submit)
	complaints.Get("/view", cfg.Complaints.View)
	complaints.Delete("/view", cfg.Complaints.DeactivateView)
	complaints.Get("/:id/history", cfg.Complaints.History)

	staff := app.Group("/staff/complaints", cfg.AuthMiddleware.Handle, identity.RequireStaff())
	staff.Get("/view", cfg.StaffComplaints.View)
	staff.Delete("/view", cfg.StaffComplaints.DeactivateView)
	staff.Patch("/:id/status", cfg.StaffComplaints.SetStatus)
	staff.Patch("/:id/notes", cfg.StaffComplaints.SetNotes)
	staff.Get("/:id/history", cfg.StaffComplaints.History)
}
