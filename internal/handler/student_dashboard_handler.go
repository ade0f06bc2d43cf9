package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

// StudentDashboardHandler exposes the student dashboard endpoints.
type StudentDashboardHandler struct {
	service service.StudentDashboardService
	logger  zerolog.Logger
}

// NewStudentDashboardHandler creates a new handler instance.
func NewStudentDashboardHandler(service service.StudentDashboardService, logger zerolog.Logger) *StudentDashboardHandler {
	return &StudentDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "student_dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoints.
func (h *StudentDashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Get("/courses/:code/grades", h.getCourseGrades)
}

func (h *StudentDashboardHandler) getDashboard(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	dashboard, cacheHit, err := h.service.GetDashboard(c.UserContext(), sess)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}

	return utils.OK(c, dashboard, "dashboard retrieved", fiber.Map{"cache_hit": cacheHit})
}

func (h *StudentDashboardHandler) getCourseGrades(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	breakdown, err := h.service.GetCourseBreakdown(c.UserContext(), sess, c.Params("code"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course grades")
	}

	return utils.SendSuccess(c, "course grades retrieved", breakdown)
}
