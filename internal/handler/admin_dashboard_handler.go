package handler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/dto"
	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

const reportRule = "==========================================="

// AdminDashboardHandler exposes the administration endpoints.
type AdminDashboardHandler struct {
	service service.AdminDashboardService
	logger  zerolog.Logger
}

// NewAdminDashboardHandler creates a new handler instance.
func NewAdminDashboardHandler(service service.AdminDashboardService, logger zerolog.Logger) *AdminDashboardHandler {
	return &AdminDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_dashboard_handler").Logger(),
	}
}

// Register attaches the admin endpoints.
func (h *AdminDashboardHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/reports/:type", h.report)
	router.Get("/settings", h.getSettings)
	router.Get("/settings/attendance", h.getSettings)
	router.Put("/settings/attendance", h.updateAttendanceSettings)
	router.Put("/settings/grade", h.updateGradeSettings)
	router.Get("/users", h.listUsers)
	router.Post("/users", h.addUser)
	router.Delete("/users/:id", h.deleteUser)
	router.Get("/courses", h.listCourses)
	router.Post("/courses", h.addCourse)
	router.Get("/backup", h.backup)
	router.Post("/cache/clear", h.clearCache)
}

func (h *AdminDashboardHandler) overview(c *fiber.Ctx) error {
	overview, err := h.service.GetOverview(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load overview")
	}
	return utils.SendSuccess(c, "overview retrieved", overview)
}

func (h *AdminDashboardHandler) report(c *fiber.Ctx) error {
	var query dto.ReportQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", nil)
	}

	reportType := strings.ToLower(strings.TrimSpace(c.Params("type")))
	report, err := h.service.GenerateReport(c.UserContext(), reportType, query)
	if err != nil {
		return respondError(c, h.logger, err, "failed to generate report")
	}

	if query.Format == "text" {
		body, err := renderReportText(report)
		if err != nil {
			return respondError(c, h.logger, err, "failed to render report")
		}
		c.Attachment(fmt.Sprintf("%s-report-%s.txt", report.Type, report.GeneratedAt.Format(models.DateLayout)))
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(body)
	}

	return utils.SendSuccess(c, "report generated", report)
}

func renderReportText(report dto.ReportResponse) (string, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", reportRule, report.Title, reportRule)
	fmt.Fprintf(&b, "Date Range: %s\n", report.DateRange)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	b.Write(payload)
	fmt.Fprintf(&b, "\n\n%s\n", reportRule)
	return b.String(), nil
}

func (h *AdminDashboardHandler) getSettings(c *fiber.Ctx) error {
	settings, err := h.service.GetSettings(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load settings")
	}
	return utils.SendSuccess(c, "settings retrieved", settings)
}

func (h *AdminDashboardHandler) updateAttendanceSettings(c *fiber.Ctx) error {
	var req dto.AttendanceSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	settings, err := h.service.UpdateAttendanceSettings(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save attendance settings")
	}
	return utils.SendSuccess(c, "attendance settings saved", settings)
}

func (h *AdminDashboardHandler) updateGradeSettings(c *fiber.Ctx) error {
	var req dto.GradeSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	settings, err := h.service.UpdateGradeSettings(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save grade settings")
	}
	return utils.SendSuccess(c, "grade settings saved", settings)
}

func (h *AdminDashboardHandler) addUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	user, err := h.service.AddUser(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add user")
	}
	return utils.Created(c, user, "user added")
}

func (h *AdminDashboardHandler) listUsers(c *fiber.Ctx) error {
	var query dto.UserListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", nil)
	}

	users, err := h.service.ListUsers(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list users")
	}
	return utils.OK(c, users, "users retrieved", fiber.Map{"total": len(users)})
}

func (h *AdminDashboardHandler) deleteUser(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	user, err := h.service.DeleteUser(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to delete user")
	}
	return utils.SendSuccess(c, "user deleted", user)
}

func (h *AdminDashboardHandler) listCourses(c *fiber.Ctx) error {
	courses, err := h.service.ListCourses(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.OK(c, courses, "courses retrieved", fiber.Map{"total": len(courses)})
}

func (h *AdminDashboardHandler) addCourse(c *fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	course, err := h.service.AddCourse(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add course")
	}
	return utils.Created(c, course, "course added, all students enrolled")
}

func (h *AdminDashboardHandler) backup(c *fiber.Ctx) error {
	backup, err := h.service.Backup(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to create backup")
	}

	c.Attachment(fmt.Sprintf("student-portal-backup-%s.json", backup.Timestamp.Format(models.DateLayout)))
	return c.Status(fiber.StatusOK).JSON(backup)
}

func (h *AdminDashboardHandler) clearCache(c *fiber.Ctx) error {
	result, err := h.service.ClearCache(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to clear cache")
	}
	return utils.SendSuccess(c, "cache cleared", result)
}
