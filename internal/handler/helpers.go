package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/middleware"
	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/store"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	details := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		namespace := fe.Namespace()
		if idx := strings.Index(namespace, "."); idx >= 0 {
			namespace = namespace[idx+1:]
		}
		details = append(details, FieldError{Field: namespace, Rule: fe.Tag(), Param: fe.Param()})
	}
	return details
}

// respondError maps service and engine errors onto HTTP statuses.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var validationErrors validator.ValidationErrors
	var scoreErr *metrics.ValidationError

	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", fieldErrors(validationErrors))
	case errors.As(err, &scoreErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, err.Error(), FieldError{Field: scoreErr.Component, Rule: "range", Param: "0-100"})
	case errors.Is(err, service.ErrStudentNotEnrolled),
		errors.Is(err, service.ErrEmailDomain),
		errors.Is(err, service.ErrTeacherNotFound),
		errors.Is(err, service.ErrSelfDelete),
		errors.Is(err, store.ErrInvalidAttendanceStatus),
		errors.Is(err, store.ErrInvalidAssessmentType):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return utils.Fail(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrCourseForbidden):
		return utils.Fail(c, fiber.StatusForbidden, err.Error(), nil)
	case errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, store.ErrDuplicateCourse):
		return utils.Fail(c, fiber.StatusConflict, err.Error(), nil)
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(fallback)
		return utils.Fail(c, fiber.StatusInternalServerError, fallback, nil)
	}
}
