package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portal-metrics-api/internal/config"
	"github.com/noah-isme/portal-metrics-api/internal/handler"
	"github.com/noah-isme/portal-metrics-api/internal/middleware"
	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentDashboardHandler *handler.StudentDashboardHandler
	AlertStreamHandler      *handler.AlertStreamHandler
	TeacherDashboardHandler *handler.TeacherDashboardHandler
	AdminDashboardHandler   *handler.AdminDashboardHandler
	SeedHandler             *handler.SeedHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.StudentDashboardHandler != nil || deps.AlertStreamHandler != nil {
		student := app.Group("/api/v2/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
		if deps.StudentDashboardHandler != nil {
			deps.StudentDashboardHandler.Register(student)
		}
		if deps.AlertStreamHandler != nil {
			deps.AlertStreamHandler.Register(student)
		}
	}

	if deps.TeacherDashboardHandler != nil {
		teacher := app.Group("/api/v2/teacher", jwtMiddleware, middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
		deps.TeacherDashboardHandler.Register(teacher)
	}

	if deps.AdminDashboardHandler != nil {
		admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.AdminDashboardHandler.Register(admin)
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(app.Group("/api/seed"))
	}
}
