package service

import (
	"context"
	"fmt"

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

// StudentDashboardService produces the attendance and grade view of a student.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, sess session.Session) (dto.StudentDashboardResponse, bool, error)
	GetCourseBreakdown(ctx context.Context, sess session.Session, courseCode string) (dto.CourseBreakdownResponse, error)
}

type studentDashboardService struct {
	store       PortalStore
	cache       *DashboardCache
	publisher   AlertPublisher
	recentLimit int
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(portal PortalStore, cache *DashboardCache, publisher AlertPublisher, recentLimit int, logger zerolog.Logger) StudentDashboardService {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &studentDashboardService{
		store:       portal,
		cache:       cache,
		publisher:   publisher,
		recentLimit: recentLimit,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		tracer:      otel.Tracer(tracerName + "/student_dashboard"),
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, sess session.Session) (dto.StudentDashboardResponse, bool, error) {
	ctx, span := s.tracer.Start(ctx, "student_dashboard.get")
	span.SetAttributes(attribute.String("portal.user_id", sess.UserID))
	defer span.End()

	cacheKey := studentCacheKey(sess.UserID)
	var cached dto.StudentDashboardResponse
	if s.cache.load(ctx, cacheKey, &cached) {
		s.logger.Debug().Str("student_id", sess.UserID).Msg("dashboard cache hit")
		span.SetAttributes(attribute.Bool("portal.cache_hit", true))
		return cached, true, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.StudentDashboardResponse{}, false, err
	}

	student, ok := models.FindUser(snap.Users, sess.UserID)
	if !ok || student.Role != models.RoleStudent {
		return dto.StudentDashboardResponse{}, false, ErrUserNotFound
	}

	response, err := buildStudentDashboard(snap, student, s.recentLimit)
	if err != nil {
		countValidationReject("stored_scores", err)
		failSpan(span, err, "grade_computation_failed")
		return dto.StudentDashboardResponse{}, false, err
	}

	countAlerts(response.Alerts)
	if s.publisher != nil {
		if err := s.publisher.PublishStudentAlerts(ctx, student.ID, response.Alerts); err != nil {
			s.logger.Warn().Err(err).Str("student_id", student.ID).Msg("failed to publish student alerts")
		}
	}

	s.cache.store(ctx, cacheKey, response)
	return response, false, nil
}

func (s *studentDashboardService) GetCourseBreakdown(ctx context.Context, sess session.Session, courseCode string) (dto.CourseBreakdownResponse, error) {
	ctx, span := s.tracer.Start(ctx, "student_dashboard.course_breakdown")
	span.SetAttributes(attribute.String("portal.course_code", courseCode))
	defer span.End()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.CourseBreakdownResponse{}, err
	}

	course, err := courseFor(snap, courseCode, sess)
	if err != nil {
		return dto.CourseBreakdownResponse{}, err
	}

	scores, _ := snap.Results.Scores(course.Code, sess.UserID)
	breakdown, err := metrics.GradeBreakdown(scores)
	if err != nil {
		countValidationReject("stored_scores", err)
		failSpan(span, err, "grade_computation_failed")
		return dto.CourseBreakdownResponse{}, fmt.Errorf("course %s: %w", course.Code, err)
	}

	quiz := append([]float64{}, scores.Quiz...)
	assignment := append([]float64{}, scores.Assignment...)
	return dto.CourseBreakdownResponse{
		CourseCode: course.Code,
		CourseName: course.Name,
		Teacher:    course.TeacherName(snap.Users),
		Quiz:       quiz,
		Assignment: assignment,
		Breakdown:  breakdown,
		Attendance: courseAttendance(course, snap.Attendance.Records(course.Code, sess.UserID), snap.Users, snap.Thresholds()),
	}, nil
}

func buildStudentDashboard(snap store.Snapshot, student models.User, recentLimit int) (dto.StudentDashboardResponse, error) {
	th := snap.Thresholds()
	courses := models.CoursesForStudent(snap.Courses, student.ID)
	attendanceByCourse := metrics.StudentAttendance(snap.Attendance, student.ID)
	scoresByCourse := metrics.StudentScores(snap.Results, student.ID)

	attendance := make([]dto.CourseAttendance, 0, len(courses))
	grades := make([]dto.CourseGrade, 0, len(courses))
	sets := make([][]models.AttendanceRecord, 0, len(courses))

	for _, course := range courses {
		records := attendanceByCourse[course.Code]
		sets = append(sets, records)
		attendance = append(attendance, courseAttendance(course, records, snap.Users, th))

		grade := dto.CourseGrade{CourseCode: course.Code, CourseName: course.Name}
		if scores, ok := scoresByCourse[course.Code]; ok && metrics.HasGradedWork(scores) {
			current, err := metrics.CurrentGrade(scores)
			if err != nil {
				return dto.StudentDashboardResponse{}, fmt.Errorf("course %s: %w", course.Code, err)
			}
			grade.Graded = true
			grade.CurrentGrade = current
			grade.Letter = metrics.LetterGrade(current)
		}
		grades = append(grades, grade)
	}

	alerts, err := metrics.StudentAlerts(student, snap.Courses, attendanceByCourse, scoresByCourse, th)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	return dto.StudentDashboardResponse{
		Student: dto.StudentProfile{
			ID:             student.ID,
			Name:           student.Name,
			Email:          student.Email,
			Program:        student.Program,
			Semester:       student.Semester,
			EnrollmentYear: student.EnrollmentYear,
		},
		OverallAttendance: metrics.OverallAttendancePercentage(sets...),
		Attendance:        attendance,
		Grades:            grades,
		Alerts:            alerts,
		RecentResults:     metrics.RecentResults(student.ID, snap.Courses, snap.Results, recentLimit),
	}, nil
}

func courseAttendance(course models.Course, records []models.AttendanceRecord, users []models.User, th metrics.Thresholds) dto.CourseAttendance {
	present, total := metrics.AttendanceTally(records)
	percentage := metrics.AttendancePercentage(records)
	standing := dto.StandingGood
	if percentage < th.Attendance {
		standing = dto.StandingNeedsImprovement
	}
	return dto.CourseAttendance{
		CourseCode: course.Code,
		CourseName: course.Name,
		Teacher:    course.TeacherName(users),
		Present:    present,
		Total:      total,
		Percentage: percentage,
		Standing:   standing,
	}
}
