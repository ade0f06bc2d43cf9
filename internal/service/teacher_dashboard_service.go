package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
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

// TeacherDashboardService serves the teacher's courses, rosters and marking.
type TeacherDashboardService interface {
	GetDashboard(ctx context.Context, sess session.Session) (dto.TeacherDashboardResponse, error)
	GetRoster(ctx context.Context, sess session.Session, courseCode string) (dto.RosterResponse, error)
	MarkAttendance(ctx context.Context, sess session.Session, courseCode string, req dto.MarkAttendanceRequest) (dto.WriteResult, error)
	RecordMarks(ctx context.Context, sess session.Session, courseCode string, req dto.RecordMarksRequest) (dto.WriteResult, error)
	ListStudents(ctx context.Context, sess session.Session, query dto.StudentListQuery) (dto.TeacherStudentsResponse, error)
}

type teacherDashboardService struct {
	store     PortalStore
	cache     *DashboardCache
	publisher AlertPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewTeacherDashboardService constructs the teacher service.
func NewTeacherDashboardService(portal PortalStore, cache *DashboardCache, publisher AlertPublisher, validate *validator.Validate, logger zerolog.Logger) TeacherDashboardService {
	return &teacherDashboardService{
		store:     portal,
		cache:     cache,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "teacher_dashboard_service").Logger(),
		tracer:    otel.Tracer(tracerName + "/teacher_dashboard"),
		now:       time.Now,
	}
}

func (s *teacherDashboardService) GetDashboard(ctx context.Context, sess session.Session) (dto.TeacherDashboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "teacher_dashboard.get")
	span.SetAttributes(attribute.String("portal.user_id", sess.UserID))
	defer span.End()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.TeacherDashboardResponse{}, err
	}

	if _, ok := models.FindUser(snap.Users, sess.UserID); !ok {
		return dto.TeacherDashboardResponse{}, ErrUserNotFound
	}

	today := s.now().UTC().Format(models.DateLayout)
	taught := models.CoursesForTeacher(snap.Courses, sess.UserID)
	courses := make([]dto.TeacherCourse, 0, len(taught))
	for _, course := range taught {
		courses = append(courses, dto.TeacherCourse{
			Code:         course.Code,
			Name:         course.Name,
			Credits:      course.Credits,
			StudentCount: len(course.StudentIDs),
			MarkedToday:  metrics.AttendanceMarkedOn(snap.Attendance[course.Code], today),
		})
	}

	return dto.TeacherDashboardResponse{
		Stats:   metrics.ComputeTeacherStats(sess.UserID, snap.Courses, snap.Attendance, today),
		Courses: courses,
	}, nil
}

func (s *teacherDashboardService) GetRoster(ctx context.Context, sess session.Session, courseCode string) (dto.RosterResponse, error) {
	ctx, span := s.tracer.Start(ctx, "teacher_dashboard.roster")
	span.SetAttributes(attribute.String("portal.course_code", courseCode))
	defer span.End()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.RosterResponse{}, err
	}

	course, err := courseFor(snap, courseCode, sess)
	if err != nil {
		return dto.RosterResponse{}, err
	}

	entries := make([]dto.RosterEntry, 0, len(course.StudentIDs))
	for _, studentID := range course.StudentIDs {
		entry := dto.RosterEntry{
			StudentID:            studentID,
			AttendancePercentage: metrics.AttendancePercentage(snap.Attendance.Records(course.Code, studentID)),
		}
		if student, ok := models.FindUser(snap.Users, studentID); ok {
			entry.Name = student.Name
			entry.Email = student.Email
		}
		if scores, ok := snap.Results.Scores(course.Code, studentID); ok && metrics.HasGradedWork(scores) {
			grade, err := metrics.CurrentGrade(scores)
			if err != nil {
				countValidationReject("stored_scores", err)
				failSpan(span, err, "grade_computation_failed")
				return dto.RosterResponse{}, fmt.Errorf("student %s: %w", studentID, err)
			}
			entry.Graded = true
			entry.CurrentGrade = grade
			entry.Letter = metrics.LetterGrade(grade)
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StudentID < entries[j].StudentID })

	return dto.RosterResponse{
		CourseCode: course.Code,
		CourseName: course.Name,
		Students:   entries,
	}, nil
}

func (s *teacherDashboardService) MarkAttendance(ctx context.Context, sess session.Session, courseCode string, req dto.MarkAttendanceRequest) (dto.WriteResult, error) {
	ctx, span := s.tracer.Start(ctx, "teacher_dashboard.mark_attendance")
	span.SetAttributes(attribute.String("portal.course_code", courseCode))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		countValidationReject("attendance_request", err)
		return dto.WriteResult{}, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.WriteResult{}, err
	}

	course, err := courseFor(snap, courseCode, sess)
	if err != nil {
		return dto.WriteResult{}, err
	}

	statuses := make(map[string]models.AttendanceStatus, len(req.Entries))
	for _, entry := range req.Entries {
		if !course.HasStudent(entry.StudentID) {
			return dto.WriteResult{}, fmt.Errorf("%w: %s", ErrStudentNotEnrolled, entry.StudentID)
		}
		statuses[entry.StudentID] = models.AttendanceStatus(entry.Status)
	}

	if err := s.store.SaveAttendance(ctx, course.Code, req.Date, statuses); err != nil {
		failSpan(span, err, "save_attendance_failed")
		return dto.WriteResult{}, err
	}

	studentIDs := sortedKeys(statuses)
	s.logger.Info().Str("course_code", course.Code).Str("date", req.Date).Int("students", len(studentIDs)).Msg("attendance recorded")
	s.afterWrite(ctx, studentIDs)

	return dto.WriteResult{CourseCode: course.Code, Updated: len(studentIDs)}, nil
}

func parseAssessment(value string) (models.AssessmentType, error) {
	assessment, ok := models.ParseAssessmentType(value)
	if !ok {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidAssessmentType, value)
	}
	return assessment, nil
}

func (s *teacherDashboardService) RecordMarks(ctx context.Context, sess session.Session, courseCode string, req dto.RecordMarksRequest) (dto.WriteResult, error) {
	ctx, span := s.tracer.Start(ctx, "teacher_dashboard.record_marks")
	span.SetAttributes(attribute.String("portal.course_code", courseCode), attribute.String("portal.assessment", req.Type))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		countValidationReject("marks_request", err)
		return dto.WriteResult{}, err
	}

	assessment, err := parseAssessment(req.Type)
	if err != nil {
		return dto.WriteResult{}, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.WriteResult{}, err
	}

	course, err := courseFor(snap, courseCode, sess)
	if err != nil {
		return dto.WriteResult{}, err
	}

	marks := make(map[string]float64, len(req.Entries))
	for _, entry := range req.Entries {
		if !course.HasStudent(entry.StudentID) {
			return dto.WriteResult{}, fmt.Errorf("%w: %s", ErrStudentNotEnrolled, entry.StudentID)
		}
		marks[entry.StudentID] = *entry.Marks
	}

	if err := s.store.SaveMarks(ctx, course.Code, assessment, marks); err != nil {
		countValidationReject("marks_request", err)
		failSpan(span, err, "save_marks_failed")
		return dto.WriteResult{}, err
	}

	studentIDs := sortedKeys(marks)
	s.logger.Info().Str("course_code", course.Code).Str("assessment", string(assessment)).Int("students", len(studentIDs)).Msg("marks recorded")
	s.afterWrite(ctx, studentIDs)

	return dto.WriteResult{CourseCode: course.Code, Updated: len(studentIDs)}, nil
}

// ListStudents returns every student on the caller's courses with the number
// of those courses they take. Admins see all courses.
func (s *teacherDashboardService) ListStudents(ctx context.Context, sess session.Session, query dto.StudentListQuery) (dto.TeacherStudentsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "teacher_dashboard.students")
	span.SetAttributes(attribute.String("portal.user_id", sess.UserID))
	defer span.End()

	if err := s.validator.Struct(query); err != nil {
		countValidationReject("student_query", err)
		return dto.TeacherStudentsResponse{}, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		failSpan(span, err, "snapshot_failed")
		return dto.TeacherStudentsResponse{}, err
	}

	var courses []models.Course
	var response dto.TeacherStudentsResponse
	switch {
	case strings.TrimSpace(query.Course) != "":
		course, err := courseFor(snap, query.Course, sess)
		if err != nil {
			return dto.TeacherStudentsResponse{}, err
		}
		courses = []models.Course{course}
		response.CourseCode = course.Code
	case sess.IsAdmin():
		courses = snap.Courses
	default:
		courses = models.CoursesForTeacher(snap.Courses, sess.UserID)
	}

	counts := make(map[string]int)
	for _, course := range courses {
		for _, studentID := range course.StudentIDs {
			counts[studentID]++
		}
	}

	response.Students = make([]dto.TeacherStudent, 0, len(counts))
	for _, studentID := range sortedKeys(counts) {
		student, ok := models.FindUser(snap.Users, studentID)
		if !ok || student.Role != models.RoleStudent {
			continue
		}
		response.Students = append(response.Students, dto.TeacherStudent{
			ID:          student.ID,
			Name:        student.Name,
			Email:       student.Email,
			Program:     student.Program,
			CourseCount: counts[studentID],
		})
	}
	return response, nil
}

// afterWrite drops stale dashboards and republishes the alerts of the
// students a write touched. Failures are logged only.
func (s *teacherDashboardService) afterWrite(ctx context.Context, studentIDs []string) {
	s.cache.InvalidateStudents(ctx, studentIDs...)

	if s.publisher == nil {
		return
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to reload store for alert publishing")
		return
	}

	for _, id := range studentIDs {
		student, ok := models.FindUser(snap.Users, id)
		if !ok {
			continue
		}
		alerts, err := metrics.StudentAlerts(student, snap.Courses, metrics.StudentAttendance(snap.Attendance, id), metrics.StudentScores(snap.Results, id), snap.Thresholds())
		if err != nil {
			s.logger.Warn().Err(err).Str("student_id", id).Msg("failed to evaluate student alerts")
			continue
		}
		if err := s.publisher.PublishStudentAlerts(ctx, id, alerts); err != nil {
			s.logger.Warn().Err(err).Str("student_id", id).Msg("failed to publish student alerts")
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
