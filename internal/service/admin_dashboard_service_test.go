package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/dto"
	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/store"
)

var reportClock = time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

func newAdminService(t *testing.T, portal PortalStore, cache *DashboardCache, publisher AlertPublisher) AdminDashboardService {
	t.Helper()
	svc := NewAdminDashboardService(portal, cache, publisher, newValidator(), AdminDashboardConfig{EmailDomain: "university.edu"}, zerolog.Nop())
	svc.(*adminDashboardService).now = func() time.Time { return reportClock }
	return svc
}

func TestAdminOverview(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := newAdminService(t, newSeededPortal(t), nil, publisher)

	overview, err := svc.GetOverview(context.Background())
	require.NoError(t, err)
	require.Equal(t, metrics.SystemStats{TotalStudents: 3, TotalTeachers: 1, TotalCourses: 3}, overview.Stats)
	require.Equal(t, metrics.DefaultThresholds, overview.Thresholds)
	require.Len(t, overview.Alerts, 2)
	require.Equal(t, "3 students have attendance below 75%", overview.Alerts[0].Message)
	require.Equal(t, metrics.MaintenanceNotice, overview.Alerts[1].Message)

	require.Len(t, publisher.events, 1)
	require.Equal(t, AlertScopeSystem, publisher.events[0].scope)
}

func TestAdminReports(t *testing.T) {
	svc := newAdminService(t, newSeededPortal(t), nil, nil)
	ctx := context.Background()

	report, err := svc.GenerateReport(ctx, dto.ReportUserActivity, dto.ReportQuery{DateRange: "Fall 2025"})
	require.NoError(t, err)
	require.Equal(t, "User Activity Report", report.Title)
	require.Equal(t, "Fall 2025", report.DateRange)
	require.Equal(t, reportClock, report.GeneratedAt)
	require.Equal(t, metrics.UserActivity{TotalUsers: 5, Students: 3, Teachers: 1, Admins: 1}, report.Data)

	report, err = svc.GenerateReport(ctx, dto.ReportSystemPerformance, dto.ReportQuery{})
	require.NoError(t, err)
	require.Equal(t, "all", report.DateRange)
	require.Equal(t, metrics.Performance{TotalCourses: 3, TotalStudents: 3, AverageClassSize: 3}, report.Data)

	report, err = svc.GenerateReport(ctx, dto.ReportAttendanceSummary, dto.ReportQuery{})
	require.NoError(t, err)
	require.Equal(t, metrics.AttendanceSummary{TotalRecords: 18, PresentRecords: 15, AbsentRecords: 3, OverallAttendanceRate: 83}, report.Data)

	report, err = svc.GenerateReport(ctx, dto.ReportGradeAnalysis, dto.ReportQuery{})
	require.NoError(t, err)
	require.Equal(t, metrics.GradeDistribution{
		Distribution: metrics.Distribution{A: 2, B: 4},
		TotalGrades:  6,
	}, report.Data)

	_, err = svc.GenerateReport(ctx, "revenue", dto.ReportQuery{})
	require.ErrorIs(t, err, ErrReportNotFound)

	report, err = svc.GenerateReport(ctx, dto.ReportUserActivity, dto.ReportQuery{DateRange: "<b>week</b>"})
	require.NoError(t, err)
	require.Equal(t, "week", report.DateRange)
}

func TestAdminSettingsDriveThresholds(t *testing.T) {
	portal := newSeededPortal(t)
	cache, mini := newTestCache(t)
	svc := newAdminService(t, portal, cache, nil)
	ctx := context.Background()

	students := NewStudentDashboardService(portal, cache, nil, 5, zerolog.Nop())
	_, _, err := students.GetDashboard(ctx, studentSession("student-1"))
	require.NoError(t, err)
	require.True(t, mini.Exists("dashboard:student:student-1"))

	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, settings.Attendance.Threshold)
	require.Equal(t, metrics.DefaultThresholds, settings.Effective)

	settings, err = svc.UpdateAttendanceSettings(ctx, dto.AttendanceSettingsRequest{Threshold: 60, CheckInterval: 24})
	require.NoError(t, err)
	require.Equal(t, 60, settings.Effective.Attendance)
	require.False(t, mini.Exists("dashboard:student:student-1"))

	settings, err = svc.UpdateGradeSettings(ctx, dto.GradeSettingsRequest{PassingGrade: 86})
	require.NoError(t, err)
	require.Equal(t, metrics.Thresholds{Attendance: 60, PassingGrade: 86}, settings.Effective)

	dashboard, _, err := students.GetDashboard(ctx, studentSession("student-1"))
	require.NoError(t, err)
	require.Len(t, dashboard.Alerts, 1)
	require.Equal(t, metrics.AlertLowGrade, dashboard.Alerts[0].Kind)
	require.Equal(t, "CS-201", dashboard.Alerts[0].CourseCode)

	_, err = svc.UpdateAttendanceSettings(ctx, dto.AttendanceSettingsRequest{Threshold: 0})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	_, err = svc.UpdateGradeSettings(ctx, dto.GradeSettingsRequest{PassingGrade: 101})
	require.ErrorAs(t, err, &validationErrors)
}

func TestAdminAddUser(t *testing.T) {
	portal := newSeededPortal(t)
	svc := newAdminService(t, portal, nil, nil)
	ctx := context.Background()

	created, err := svc.AddUser(ctx, dto.CreateUserRequest{
		Name:  "<script>x</script>Ayesha Khan",
		Email: "Ayesha@University.edu",
		Role:  "student",
	})
	require.NoError(t, err)
	require.Regexp(t, `^student-[0-9a-f]{8}$`, created.ID)
	require.Equal(t, "Ayesha Khan", created.Name)
	require.Equal(t, "ayesha@university.edu", created.Email)
	require.Equal(t, dto.DefaultProgram, created.Program)
	require.Equal(t, dto.DefaultSemester, created.Semester)

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	for _, course := range courses {
		require.Equal(t, 4, course.StudentCount, course.Code)
	}

	_, err = svc.AddUser(ctx, dto.CreateUserRequest{Name: "Dup", Email: "ayesha@university.edu", Role: "teacher"})
	require.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = svc.AddUser(ctx, dto.CreateUserRequest{Name: "Outsider", Email: "someone@gmail.com", Role: "student"})
	require.ErrorIs(t, err, ErrEmailDomain)

	_, err = svc.AddUser(ctx, dto.CreateUserRequest{Name: "Nobody", Email: "nobody@university.edu", Role: "guest"})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestAdminListUsers(t *testing.T) {
	svc := newAdminService(t, newSeededPortal(t), nil, nil)
	ctx := context.Background()

	all, err := svc.ListUsers(ctx, dto.UserListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, "admin", all[0].ID)

	students, err := svc.ListUsers(ctx, dto.UserListQuery{Role: "student"})
	require.NoError(t, err)
	require.Len(t, students, 3)
	for _, user := range students {
		require.Equal(t, "student", user.Role)
	}

	teachers, err := svc.ListUsers(ctx, dto.UserListQuery{Role: "teacher"})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	require.Equal(t, "Prof. Johnson", teachers[0].Name)

	_, err = svc.ListUsers(ctx, dto.UserListQuery{Role: "guest"})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestAdminDeleteUser(t *testing.T) {
	portal := newSeededPortal(t)
	cache, mini := newTestCache(t)
	svc := newAdminService(t, portal, cache, nil)
	ctx := context.Background()

	students := NewStudentDashboardService(portal, cache, nil, 5, zerolog.Nop())
	_, _, err := students.GetDashboard(ctx, studentSession("student-3"))
	require.NoError(t, err)
	require.True(t, mini.Exists(studentCacheKey("student-3")))

	removed, err := svc.DeleteUser(ctx, adminSession("admin"), " student-2 ")
	require.NoError(t, err)
	require.Equal(t, "student-2", removed.ID)
	require.Equal(t, "Usman Ghani", removed.Name)

	require.False(t, mini.Exists(studentCacheKey("student-3")))

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	for _, course := range courses {
		require.Equal(t, 2, course.StudentCount, course.Code)
	}

	_, err = svc.DeleteUser(ctx, adminSession("admin"), "student-2")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.DeleteUser(ctx, adminSession("admin"), "admin")
	require.ErrorIs(t, err, ErrSelfDelete)

	removed, err = svc.DeleteUser(ctx, adminSession("admin"), "teacher001")
	require.NoError(t, err)
	require.Equal(t, "teacher", removed.Role)

	courses, err = svc.ListCourses(ctx)
	require.NoError(t, err)
	for _, course := range courses {
		require.Equal(t, "Unassigned", course.TeacherName, course.Code)
	}
}

func TestAdminAddAndListCourses(t *testing.T) {
	portal := newSeededPortal(t)
	svc := newAdminService(t, portal, nil, nil)
	ctx := context.Background()

	created, err := svc.AddCourse(ctx, dto.CreateCourseRequest{Code: "ai-301", Name: "Machine Learning", TeacherID: "teacher001", Credits: 4})
	require.NoError(t, err)
	require.Equal(t, dto.CourseResponse{
		Code:         "AI-301",
		Name:         "Machine Learning",
		TeacherID:    "teacher001",
		TeacherName:  "Prof. Johnson",
		Credits:      4,
		StudentCount: 3,
	}, created)

	_, err = svc.AddCourse(ctx, dto.CreateCourseRequest{Code: "AI-301", Name: "Again", Credits: 3})
	require.ErrorIs(t, err, store.ErrDuplicateCourse)

	_, err = svc.AddCourse(ctx, dto.CreateCourseRequest{Code: "BIO-1", Name: "Biology", TeacherID: "student-1", Credits: 3})
	require.ErrorIs(t, err, ErrTeacherNotFound)

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 4)
	require.Equal(t, "AI-301", courses[0].Code)
	require.Equal(t, "CS-101", courses[1].Code)
	require.Equal(t, "Unassigned", courses[1].TeacherName)
}

func TestAdminBackupAndClearCache(t *testing.T) {
	portal := newSeededPortal(t)
	cache, mini := newTestCache(t)
	svc := newAdminService(t, portal, cache, nil)
	ctx := context.Background()

	backup, err := svc.Backup(ctx)
	require.NoError(t, err)
	require.Len(t, backup.Users, 5)
	require.Len(t, backup.Courses, 3)
	require.Contains(t, backup.Attendance, "CS-101")
	require.Contains(t, backup.Results, "CS-201")

	students := NewStudentDashboardService(portal, cache, nil, 5, zerolog.Nop())
	for _, id := range []string{"student-1", "student-2"} {
		_, _, err := students.GetDashboard(ctx, studentSession(id))
		require.NoError(t, err)
	}
	require.NoError(t, mini.Set("unrelated", "keep"))

	cleared, err := svc.ClearCache(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, cleared.Cleared)
	require.True(t, mini.Exists("unrelated"))
}
