package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/dto"
	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

// TeacherDashboardHandler exposes the teacher dashboard and marking endpoints.
type TeacherDashboardHandler struct {
	service    service.TeacherDashboardService
	logger     zerolog.Logger
	writeGuard fiber.Handler
}

// NewTeacherDashboardHandler creates a new handler instance. writeGuard, when
// set, runs before the marking endpoints.
func NewTeacherDashboardHandler(service service.TeacherDashboardService, writeGuard fiber.Handler, logger zerolog.Logger) *TeacherDashboardHandler {
	if writeGuard == nil {
		writeGuard = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &TeacherDashboardHandler{
		service:    service,
		logger:     logger.With().Str("component", "teacher_dashboard_handler").Logger(),
		writeGuard: writeGuard,
	}
}

// Register attaches the teacher endpoints.
func (h *TeacherDashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Get("/students", h.listStudents)
	router.Get("/courses/:code/roster", h.getRoster)
	router.Post("/courses/:code/attendance", h.writeGuard, h.markAttendance)
	router.Post("/courses/:code/marks", h.writeGuard, h.recordMarks)
}

func (h *TeacherDashboardHandler) getDashboard(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	dashboard, err := h.service.GetDashboard(c.UserContext(), sess)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *TeacherDashboardHandler) getRoster(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	roster, err := h.service.GetRoster(c.UserContext(), sess, c.Params("code"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load roster")
	}
	return utils.OK(c, roster, "roster retrieved", fiber.Map{"count": len(roster.Students)})
}

func (h *TeacherDashboardHandler) listStudents(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	var query dto.StudentListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", nil)
	}

	students, err := h.service.ListStudents(c.UserContext(), sess, query)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load students")
	}
	return utils.OK(c, students, "students retrieved", fiber.Map{"count": len(students.Students)})
}

func (h *TeacherDashboardHandler) markAttendance(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	var req dto.MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	result, err := h.service.MarkAttendance(c.UserContext(), sess, c.Params("code"), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record attendance")
	}
	return utils.SendSuccess(c, "attendance recorded", result)
}

func (h *TeacherDashboardHandler) recordMarks(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	var req dto.RecordMarksRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	result, err := h.service.RecordMarks(c.UserContext(), sess, c.Params("code"), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record marks")
	}
	return utils.SendSuccess(c, "marks recorded", result)
}
