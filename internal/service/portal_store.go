package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/observability"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/store"
)

const tracerName = "github.com/noah-isme/portal-metrics-api/internal/service"

// PortalStore is the persistence surface the dashboard services rely on.
type PortalStore interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
	SaveAttendance(ctx context.Context, courseCode, date string, statuses map[string]models.AttendanceStatus) error
	SaveMarks(ctx context.Context, courseCode string, assessment models.AssessmentType, marks map[string]float64) error
	SaveAttendanceSettings(ctx context.Context, settings models.AttendanceSettings) error
	SaveGradeSettings(ctx context.Context, settings models.GradeSettings) error
	AddUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, userID string) (models.User, error)
	AddCourse(ctx context.Context, course models.Course) (models.Course, error)
	Backup(ctx context.Context) (store.Backup, error)
}

var _ PortalStore = (*store.Repository)(nil)

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// courseFor resolves a course the session may act on. Admins may act on any
// course; teachers only on the courses they teach; students only on the
// courses they attend.
func courseFor(snap store.Snapshot, code string, sess session.Session) (models.Course, error) {
	course, ok := models.FindCourse(snap.Courses, normalizeCourseCode(code))
	if !ok {
		return models.Course{}, ErrCourseNotFound
	}
	if sess.IsAdmin() {
		return course, nil
	}

	switch sess.Role {
	case models.RoleTeacher:
		if course.TeacherID == sess.UserID {
			return course, nil
		}
	case models.RoleStudent:
		if course.HasStudent(sess.UserID) {
			return course, nil
		}
	}
	return models.Course{}, ErrCourseForbidden
}

func countAlerts(alerts []metrics.Alert) {
	for _, alert := range alerts {
		observability.AlertsEmitted().WithLabelValues(string(alert.Kind)).Inc()
	}
}

func countValidationReject(source string, err error) {
	var validationErrors validator.ValidationErrors
	if metrics.IsValidationError(err) || errors.As(err, &validationErrors) {
		observability.ValidationRejects().WithLabelValues(source).Inc()
	}
}

func failSpan(span trace.Span, err error, status string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
}
