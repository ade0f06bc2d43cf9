package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/portal-metrics-api/internal/dto"
	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/store"
)

// AdminDashboardService manages users, courses, settings and reports.
type AdminDashboardService interface {
	GetOverview(ctx context.Context) (dto.AdminOverviewResponse, error)
	GenerateReport(ctx context.Context, reportType string, query dto.ReportQuery) (dto.ReportResponse, error)
	GetSettings(ctx context.Context) (dto.SettingsResponse, error)
	UpdateAttendanceSettings(ctx context.Context, req dto.AttendanceSettingsRequest) (dto.SettingsResponse, error)
	UpdateGradeSettings(ctx context.Context, req dto.GradeSettingsRequest) (dto.SettingsResponse, error)
	ListUsers(ctx context.Context, query dto.UserListQuery) ([]dto.UserResponse, error)
	AddUser(ctx context.Context, req dto.CreateUserRequest) (dto.UserResponse, error)
	DeleteUser(ctx context.Context, sess session.Session, userID string) (dto.UserResponse, error)
	AddCourse(ctx context.Context, req dto.CreateCourseRequest) (dto.CourseResponse, error)
	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
	Backup(ctx context.Context) (store.Backup, error)
	ClearCache(ctx context.Context) (dto.CacheClearResponse, error)
}

// AdminDashboardConfig tunes the admin service.
type AdminDashboardConfig struct {
	EmailDomain string
}

type adminDashboardService struct {
	store       PortalStore
	cache       *DashboardCache
	publisher   AlertPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	emailDomain string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAdminDashboardService constructs the admin service.
func NewAdminDashboardService(portal PortalStore, cache *DashboardCache, publisher AlertPublisher, validate *validator.Validate, cfg AdminDashboardConfig, logger zerolog.Logger) AdminDashboardService {
	return &adminDashboardService{
		store:       portal,
		cache:       cache,
		publisher:   publisher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		emailDomain: strings.ToLower(strings.TrimPrefix(cfg.EmailDomain, "@")),
		logger:      logger.With().Str("component", "admin_dashboard_service").Logger(),
		tracer:      otel.Tracer(tracerName + "/admin_dashboard"),
		now:         time.Now,
	}
}

func (s *adminDashboardService) GetOverview(ctx context.Context) (dto.AdminOverviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin_dashboard.overview")
	defer span.End()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.AdminOverviewResponse{}, err
	}

	th := snap.Thresholds()
	alerts := metrics.SystemAlerts(snap.Attendance, th)
	countAlerts(alerts)
	if s.publisher != nil {
		if err := s.publisher.PublishSystemAlerts(ctx, alerts); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish system alerts")
		}
	}

	return dto.AdminOverviewResponse{
		Stats:      metrics.ComputeSystemStats(snap.Users, snap.Courses),
		Thresholds: th,
		Alerts:     alerts,
	}, nil
}

func (s *adminDashboardService) GenerateReport(ctx context.Context, reportType string, query dto.ReportQuery) (dto.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin_dashboard.report")
	span.SetAttributes(attribute.String("portal.report_type", reportType))
	defer span.End()

	title, ok := dto.ReportTitles[reportType]
	if !ok {
		return dto.ReportResponse{}, ErrReportNotFound
	}
	if err := s.validator.Struct(query); err != nil {
		countValidationReject("report_query", err)
		return dto.ReportResponse{}, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.ReportResponse{}, err
	}

	var data interface{}
	switch reportType {
	case dto.ReportUserActivity:
		data = metrics.UserActivityReport(snap.Users)
	case dto.ReportSystemPerformance:
		data = metrics.PerformanceReport(snap.Courses, snap.Users)
	case dto.ReportAttendanceSummary:
		data = metrics.AttendanceSummaryReport(snap.Attendance)
	case dto.ReportGradeAnalysis:
		distribution, err := metrics.GradeDistributionReport(snap.Results)
		if err != nil {
			countValidationReject("stored_scores", err)
			failSpan(span, err, "grade_distribution_failed")
			return dto.ReportResponse{}, err
		}
		data = distribution
	}

	dateRange := strings.TrimSpace(s.sanitizer.Sanitize(query.DateRange))
	if dateRange == "" {
		dateRange = "all"
	}

	return dto.ReportResponse{
		Type:        reportType,
		Title:       title,
		DateRange:   dateRange,
		GeneratedAt: s.now().UTC(),
		Data:        data,
	}, nil
}

func (s *adminDashboardService) GetSettings(ctx context.Context) (dto.SettingsResponse, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return dto.SettingsResponse{}, err
	}
	return settingsResponse(snap), nil
}

func settingsResponse(snap store.Snapshot) dto.SettingsResponse {
	return dto.SettingsResponse{
		Attendance: dto.AttendanceSettingsRequest{
			Threshold:     snap.AttendanceSettings.Threshold,
			CheckInterval: snap.AttendanceSettings.CheckInterval,
		},
		Grade:     dto.GradeSettingsRequest{PassingGrade: snap.GradeSettings.PassingGrade},
		Effective: snap.Thresholds(),
	}
}

func (s *adminDashboardService) UpdateAttendanceSettings(ctx context.Context, req dto.AttendanceSettingsRequest) (dto.SettingsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		countValidationReject("settings_request", err)
		return dto.SettingsResponse{}, err
	}

	settings := models.AttendanceSettings{Threshold: req.Threshold, CheckInterval: req.CheckInterval}
	if err := s.store.SaveAttendanceSettings(ctx, settings); err != nil {
		return dto.SettingsResponse{}, err
	}
	s.logger.Info().Int("threshold", req.Threshold).Msg("attendance settings updated")
	s.dropAllDashboards(ctx)

	return s.GetSettings(ctx)
}

func (s *adminDashboardService) UpdateGradeSettings(ctx context.Context, req dto.GradeSettingsRequest) (dto.SettingsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		countValidationReject("settings_request", err)
		return dto.SettingsResponse{}, err
	}

	if err := s.store.SaveGradeSettings(ctx, models.GradeSettings{PassingGrade: req.PassingGrade}); err != nil {
		return dto.SettingsResponse{}, err
	}
	s.logger.Info().Int("passing_grade", req.PassingGrade).Msg("grade settings updated")
	s.dropAllDashboards(ctx)

	return s.GetSettings(ctx)
}

func (s *adminDashboardService) dropAllDashboards(ctx context.Context) {
	if _, err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drop cached dashboards")
	}
}

func (s *adminDashboardService) AddUser(ctx context.Context, req dto.CreateUserRequest) (dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin_dashboard.add_user")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		countValidationReject("user_request", err)
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if s.emailDomain != "" && !strings.HasSuffix(email, "@"+s.emailDomain) {
		return dto.UserResponse{}, ErrEmailDomain
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return dto.UserResponse{}, fmt.Errorf("unknown role %q", req.Role)
	}

	user := models.User{
		Name:           strings.TrimSpace(s.sanitizer.Sanitize(req.Name)),
		Email:          email,
		Role:           role,
		Program:        strings.TrimSpace(s.sanitizer.Sanitize(req.Program)),
		Semester:       strings.TrimSpace(s.sanitizer.Sanitize(req.Semester)),
		EnrollmentYear: req.EnrollmentYear,
	}
	if user.Program == "" {
		user.Program = dto.DefaultProgram
	}
	if user.Semester == "" {
		user.Semester = dto.DefaultSemester
	}

	created, err := s.store.AddUser(ctx, user)
	if err != nil {
		if !errors.Is(err, store.ErrDuplicateEmail) {
			failSpan(span, err, "add_user_failed")
		}
		if created.ID != "" {
			s.logger.Error().Err(err).Str("user_id", created.ID).Msg("user saved but course enrolment failed")
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return userResponse(created), nil
}

func (s *adminDashboardService) ListUsers(ctx context.Context, query dto.UserListQuery) ([]dto.UserResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		countValidationReject("user_query", err)
		return nil, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	users := snap.Users
	if query.Role != "" {
		users = models.UsersWithRole(users, models.Role(query.Role))
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, userResponse(user))
	}
	return out, nil
}

func (s *adminDashboardService) DeleteUser(ctx context.Context, sess session.Session, userID string) (dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin_dashboard.delete_user")
	span.SetAttributes(attribute.String("portal.user_id", userID))
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == sess.UserID {
		return dto.UserResponse{}, ErrSelfDelete
	}

	removed, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUnknownUser) {
			return dto.UserResponse{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		failSpan(span, err, "delete_user_failed")
		if removed.ID != "" {
			s.logger.Error().Err(err).Str("user_id", removed.ID).Msg("user deleted but roster cleanup failed")
		}
		return dto.UserResponse{}, err
	}

	// Rosters and teacher names change on every dashboard.
	s.dropAllDashboards(ctx)
	s.logger.Info().Str("user_id", removed.ID).Str("role", string(removed.Role)).Msg("user deleted")
	return userResponse(removed), nil
}

func userResponse(user models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           string(user.Role),
		Program:        user.Program,
		Semester:       user.Semester,
		EnrollmentYear: user.EnrollmentYear,
	}
}

func (s *adminDashboardService) AddCourse(ctx context.Context, req dto.CreateCourseRequest) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin_dashboard.add_course")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		countValidationReject("course_request", err)
		return dto.CourseResponse{}, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.CourseResponse{}, err
	}

	teacherID := strings.TrimSpace(req.TeacherID)
	if teacherID != "" {
		teacher, ok := models.FindUser(snap.Users, teacherID)
		if !ok || teacher.Role != models.RoleTeacher {
			return dto.CourseResponse{}, ErrTeacherNotFound
		}
	}

	created, err := s.store.AddCourse(ctx, models.Course{
		Code:      req.Code,
		Name:      strings.TrimSpace(s.sanitizer.Sanitize(req.Name)),
		TeacherID: teacherID,
		Credits:   req.Credits,
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	// New enrolments change every student's course list.
	s.dropAllDashboards(ctx)
	s.logger.Info().Str("course_code", created.Code).Int("students", len(created.StudentIDs)).Msg("course created")
	return courseResponse(created, snap.Users), nil
}

func courseResponse(course models.Course, users []models.User) dto.CourseResponse {
	return dto.CourseResponse{
		Code:         course.Code,
		Name:         course.Name,
		TeacherID:    course.TeacherID,
		TeacherName:  course.TeacherName(users),
		Credits:      course.Credits,
		StudentCount: len(course.StudentIDs),
	}
}

func (s *adminDashboardService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	courses := append([]models.Course{}, snap.Courses...)
	models.SortCourses(courses)
	out := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, courseResponse(course, snap.Users))
	}
	return out, nil
}

func (s *adminDashboardService) Backup(ctx context.Context) (store.Backup, error) {
	ctx, span := s.tracer.Start(ctx, "admin_dashboard.backup")
	defer span.End()

	backup, err := s.store.Backup(ctx)
	if err != nil {
		failSpan(span, err, "backup_failed")
		return store.Backup{}, err
	}
	return backup, nil
}

func (s *adminDashboardService) ClearCache(ctx context.Context) (dto.CacheClearResponse, error) {
	cleared, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return dto.CacheClearResponse{}, err
	}
	s.logger.Info().Int("cleared", cleared).Msg("dashboard cache cleared")
	return dto.CacheClearResponse{Cleared: cleared}, nil
}
