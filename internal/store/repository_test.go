package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/models"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("connection refused")
}

func newTestRepository(t *testing.T) (*Repository, *MemoryStore) {
	t.Helper()
	mem := NewMemoryStore()
	repo := NewRepository(mem, zerolog.Nop())
	repo.now = func() time.Time { return time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC) }
	seq := 0
	repo.newID = func(role models.Role) string {
		seq++
		return string(role) + "-new" + string(rune('0'+seq))
	}
	return repo, mem
}

func TestSnapshotOfEmptyStoreUsesDefaults(t *testing.T) {
	repo, _ := newTestRepository(t)

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Users)
	require.Empty(t, snap.Courses)
	require.Empty(t, snap.Attendance)
	require.Empty(t, snap.Results)
	require.Equal(t, metrics.DefaultThresholds, snap.Thresholds())
}

func TestSnapshotAbsorbsMalformedPayloads(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, KeyUsers, `{"not":"a list"}`))
	require.NoError(t, mem.Set(ctx, KeyCourses, `not json`))
	require.NoError(t, mem.Set(ctx, KeyAttendance, `{"CS-101":{"s1":[{"date":"2025-11-20","status":"late"}]}}`))
	require.NoError(t, mem.Set(ctx, KeyResults, `{"CS-101":{"s1":{"quiz":"ninety"}}}`))
	require.NoError(t, mem.Set(ctx, KeyGradeSettings, `[1,2]`))

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Users)
	require.Empty(t, snap.Courses)
	require.Empty(t, snap.Attendance)
	require.Empty(t, snap.Results)
	require.Equal(t, metrics.DefaultThresholds, snap.Thresholds())
}

func TestSnapshotPropagatesBackendErrors(t *testing.T) {
	repo := NewRepository(failingStore{}, zerolog.Nop())
	_, err := repo.Snapshot(context.Background())
	require.Error(t, err)
}

func TestCheckShapeReportsMalformedData(t *testing.T) {
	err := checkShape(KeyCourses, []byte(`[{"name":"missing code"}]`))
	var malformed *MalformedDataError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, KeyCourses, malformed.Key)

	require.NoError(t, checkShape(KeyCourses, []byte(`[{"code":"CS-101","students":["s1"]}]`)))
}

func TestResultsDecodeLegacyZeroExamsAsNotTaken(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeyResults, `{"CS-101":{"s1":{"quiz":[85,90,78],"assignment":[92,88],"midterm":85,"final":0}}}`))

	book, err := repo.Results(ctx)
	require.NoError(t, err)
	scores, ok := book.Scores("CS-101", "s1")
	require.True(t, ok)
	require.NotNil(t, scores.Midterm)
	require.Equal(t, 85.0, *scores.Midterm)
	require.Nil(t, scores.Final)

	grade, err := metrics.CurrentGrade(scores)
	require.NoError(t, err)
	require.Equal(t, 87, grade)
}

func TestUsersAcceptLegacyStringEnrollmentYear(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeyUsers, `[{"id":"student-1","name":"Muhammad Faizan","role":"student","enrollmentYear":"2024"}]`))

	users, err := repo.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 2024, users[0].EnrollmentYear)
	require.Equal(t, models.RoleStudent, users[0].Role)
}

func TestSaveAttendanceReplacesSameDate(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAttendance(ctx, "CS-101", "2025-11-20", map[string]models.AttendanceStatus{
		"s1": models.AttendancePresent,
		"s2": models.AttendanceAbsent,
	}))
	require.NoError(t, repo.SaveAttendance(ctx, "CS-101", "2025-11-21", map[string]models.AttendanceStatus{
		"s1": models.AttendanceAbsent,
	}))
	require.NoError(t, repo.SaveAttendance(ctx, "CS-101", "2025-11-20", map[string]models.AttendanceStatus{
		"s1": models.AttendanceAbsent,
	}))

	book, err := repo.Attendance(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.AttendanceRecord{
		{Date: "2025-11-21", Status: models.AttendanceAbsent},
		{Date: "2025-11-20", Status: models.AttendanceAbsent},
	}, book.Records("CS-101", "s1"))
	require.Len(t, book.Records("CS-101", "s2"), 1)
}

func TestSaveAttendanceRejectsUnknownStatus(t *testing.T) {
	repo, mem := newTestRepository(t)
	err := repo.SaveAttendance(context.Background(), "CS-101", "2025-11-20", map[string]models.AttendanceStatus{"s1": "late"})
	require.ErrorIs(t, err, ErrInvalidAttendanceStatus)

	_, found, _ := mem.Get(context.Background(), KeyAttendance)
	require.False(t, found)
}

func TestSaveMarksAppendsAndOverwrites(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveMarks(ctx, "CS-101", models.AssessmentQuiz, map[string]float64{"s1": 80}))
	require.NoError(t, repo.SaveMarks(ctx, "CS-101", models.AssessmentQuiz, map[string]float64{"s1": 90}))
	require.NoError(t, repo.SaveMarks(ctx, "CS-101", models.AssessmentMidterm, map[string]float64{"s1": 70}))
	require.NoError(t, repo.SaveMarks(ctx, "CS-101", models.AssessmentMidterm, map[string]float64{"s1": 75}))

	book, err := repo.Results(ctx)
	require.NoError(t, err)
	scores, ok := book.Scores("CS-101", "s1")
	require.True(t, ok)
	require.Equal(t, []float64{80, 90}, scores.Quiz)
	require.Empty(t, scores.Assignment)
	require.Equal(t, 75.0, *scores.Midterm)
	require.Nil(t, scores.Final)
}

func TestSaveMarksKeepsZeroExamScores(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeyResults, `{"CS-101":{"s2":{"quiz":[70],"assignment":[],"midterm":0,"final":0}}}`))

	require.NoError(t, repo.SaveMarks(ctx, "CS-101", models.AssessmentQuiz, map[string]float64{"s1": 90}))
	require.NoError(t, repo.SaveMarks(ctx, "CS-101", models.AssessmentMidterm, map[string]float64{"s1": 0}))

	book, err := repo.Results(ctx)
	require.NoError(t, err)

	scores, ok := book.Scores("CS-101", "s1")
	require.True(t, ok)
	require.NotNil(t, scores.Midterm)
	require.Equal(t, 0.0, *scores.Midterm)
	require.Nil(t, scores.Final)

	grade, err := metrics.CurrentGrade(scores)
	require.NoError(t, err)
	require.Equal(t, 40, grade)

	// the legacy record was rewritten alongside and still reads as not taken
	legacy, ok := book.Scores("CS-101", "s2")
	require.True(t, ok)
	require.Nil(t, legacy.Midterm)
	require.Nil(t, legacy.Final)

	raw, _, err := mem.Get(ctx, KeyResults)
	require.NoError(t, err)
	require.Contains(t, raw, `"explicitExams":true`)
	require.Contains(t, raw, `"final":null`)
}

func TestSaveMarksRejectsOutOfRangeBeforeWriting(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()

	err := repo.SaveMarks(ctx, "CS-101", models.AssessmentAssignment, map[string]float64{"s1": 90, "s2": 130})
	require.ErrorIs(t, err, metrics.ErrScoreOutOfRange)
	require.True(t, metrics.IsValidationError(err))

	_, found, _ := mem.Get(ctx, KeyResults)
	require.False(t, found)

	err = repo.SaveMarks(ctx, "CS-101", "project", map[string]float64{"s1": 90})
	require.ErrorIs(t, err, ErrInvalidAssessmentType)
}

func TestAddUserEnrolsStudentsInEveryCourse(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeyCourses, `[{"code":"CS-101","students":["student-1"]},{"code":"CS-201","students":[]}]`))

	teacher, err := repo.AddUser(ctx, models.User{Name: "Prof. Ada", Email: "ada@university.edu", Role: models.RoleTeacher})
	require.NoError(t, err)
	require.Equal(t, "teacher-new1", teacher.ID)
	require.Equal(t, 2025, teacher.EnrollmentYear)

	student, err := repo.AddUser(ctx, models.User{Name: "New Student", Email: "new@university.edu", Role: models.RoleStudent})
	require.NoError(t, err)

	courses, err := repo.Courses(ctx)
	require.NoError(t, err)
	for _, course := range courses {
		require.True(t, course.HasStudent(student.ID), course.Code)
		require.False(t, course.HasStudent(teacher.ID), course.Code)
	}

	_, err = repo.AddUser(ctx, models.User{Name: "Dup", Email: "ADA@university.edu", Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	users, err := repo.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestDeleteUserRemovesRosterEntriesAndRecords(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	_, err := repo.SeedDefaults(ctx)
	require.NoError(t, err)

	removed, err := repo.DeleteUser(ctx, "student-2")
	require.NoError(t, err)
	require.Equal(t, "Usman Ghani", removed.Name)

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	_, ok := models.FindUser(snap.Users, "student-2")
	require.False(t, ok)
	require.Len(t, snap.Users, 4)
	for _, course := range snap.Courses {
		require.False(t, course.HasStudent("student-2"), course.Code)
		require.True(t, course.HasStudent("student-1"), course.Code)
	}
	require.Nil(t, snap.Attendance.Records("CS-101", "student-2"))
	_, ok = snap.Results.Scores("CS-201", "student-2")
	require.False(t, ok)
	require.NotNil(t, snap.Attendance.Records("CS-101", "student-1"))

	_, err = repo.DeleteUser(ctx, "student-2")
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestDeleteTeacherLeavesCoursesUnassigned(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	_, err := repo.SeedDefaults(ctx)
	require.NoError(t, err)

	_, err = repo.DeleteUser(ctx, "teacher001")
	require.NoError(t, err)

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	course, ok := models.FindCourse(snap.Courses, "CS-201")
	require.True(t, ok)
	require.Equal(t, models.UnassignedTeacher, course.TeacherName(snap.Users))
	require.Len(t, course.StudentIDs, 3)
}

func TestAddCourseEnrolsAllStudents(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeyUsers, `[{"id":"s1","role":"student"},{"id":"t1","role":"teacher"},{"id":"s2","role":"student"}]`))

	course, err := repo.AddCourse(ctx, models.Course{Code: " cs-301 ", Name: "Compilers", TeacherID: "t1", Credits: 4})
	require.NoError(t, err)
	require.Equal(t, "CS-301", course.Code)
	require.Equal(t, []string{"s1", "s2"}, course.StudentIDs)

	_, err = repo.AddCourse(ctx, models.Course{Code: "CS-301"})
	require.ErrorIs(t, err, ErrDuplicateCourse)
}

func TestSettingsDriveThresholds(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAttendanceSettings(ctx, models.AttendanceSettings{Threshold: 80, CheckInterval: 7}))
	require.NoError(t, repo.SaveGradeSettings(ctx, models.GradeSettings{PassingGrade: 50}))

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, metrics.Thresholds{Attendance: 80, PassingGrade: 50}, snap.Thresholds())
	require.Equal(t, 7, snap.AttendanceSettings.CheckInterval)
}

func TestSeedDefaultsOnlyFillsAbsentKeys(t *testing.T) {
	repo, mem := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeyUsers, `[]`))

	seeded, err := repo.SeedDefaults(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{KeyCourses, KeyAttendance, KeyResults}, seeded)

	again, err := repo.SeedDefaults(ctx)
	require.NoError(t, err)
	require.Empty(t, again)

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Users)
	require.Len(t, snap.Courses, 3)
	require.Len(t, snap.Attendance.Records("CS-101", "student-1"), 3)

	course, ok := models.FindCourse(snap.Courses, "CS-101")
	require.True(t, ok)
	require.Equal(t, models.UnassignedTeacher, course.TeacherName(snap.Users))
}

func TestBackupIncludesSettingsAndTimestamp(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	_, err := repo.SeedDefaults(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SaveGradeSettings(ctx, models.GradeSettings{PassingGrade: 65}))

	backup, err := repo.Backup(ctx)
	require.NoError(t, err)
	require.Len(t, backup.Users, 5)
	require.Equal(t, 65, backup.Settings.Grade.PassingGrade)
	require.Equal(t, time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC), backup.Timestamp)
}
