package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("  Teacher ")
	require.True(t, ok)
	require.Equal(t, RoleTeacher, role)

	_, ok = ParseRole("principal")
	require.False(t, ok)
}

func TestParseAssessmentType(t *testing.T) {
	for _, value := range []string{"quiz", "assignment", "midterm", "final"} {
		parsed, ok := ParseAssessmentType(value)
		require.True(t, ok, value)
		require.Equal(t, AssessmentType(value), parsed)
	}
	_, ok := ParseAssessmentType("project")
	require.False(t, ok)
}

func TestCourseTeacherName(t *testing.T) {
	users := []User{
		{ID: "teacher001", Name: "Dr. Ada", Role: RoleTeacher},
		{ID: "student-1", Name: "Sam", Role: RoleStudent},
	}

	require.Equal(t, "Dr. Ada", Course{TeacherID: "teacher001"}.TeacherName(users))
	require.Equal(t, UnassignedTeacher, Course{TeacherID: "student-1"}.TeacherName(users))
	require.Equal(t, UnassignedTeacher, Course{TeacherID: "ghost"}.TeacherName(users))
}

func TestCourseFiltersAreSortedByCode(t *testing.T) {
	courses := []Course{
		{Code: "MATH-201", TeacherID: "t1", StudentIDs: []string{"s1"}},
		{Code: "CS-201", TeacherID: "t2", StudentIDs: []string{"s1", "s2"}},
		{Code: "CS-101", TeacherID: "t1", StudentIDs: []string{"s2"}},
	}

	codes := func(list []Course) []string {
		out := make([]string, 0, len(list))
		for _, c := range list {
			out = append(out, c.Code)
		}
		return out
	}

	require.Equal(t, []string{"CS-201", "MATH-201"}, codes(CoursesForStudent(courses, "s1")))
	require.Equal(t, []string{"CS-101", "MATH-201"}, codes(CoursesForTeacher(courses, "t1")))
	require.Empty(t, CoursesForStudent(courses, "nobody"))

	found, ok := FindCourse(courses, "CS-201")
	require.True(t, ok)
	require.True(t, found.HasStudent("s2"))
	require.False(t, found.HasStudent("s3"))
}

func TestUsersWithRole(t *testing.T) {
	users := []User{{ID: "a", Role: RoleAdmin}, {ID: "s1", Role: RoleStudent}, {ID: "s2", Role: RoleStudent}}
	students := UsersWithRole(users, RoleStudent)
	require.Len(t, students, 2)
	require.Equal(t, "s1", students[0].ID)

	_, ok := FindUser(users, "missing")
	require.False(t, ok)
}

func TestAttendanceBookCloneIsIndependent(t *testing.T) {
	book := AttendanceBook{"CS-101": {"s1": {{Date: "2024-11-18", Status: AttendancePresent}}}}
	clone := book.Clone()
	clone["CS-101"]["s1"][0].Status = AttendanceAbsent
	clone["CS-101"]["s2"] = nil

	require.Equal(t, AttendancePresent, book.Records("CS-101", "s1")[0].Status)
	require.Equal(t, []string{"s1"}, book.StudentIDs("CS-101"))
	require.Nil(t, AttendanceBook(nil).Records("CS-101", "s1"))
}

func TestResultBookCloneIsIndependent(t *testing.T) {
	book := ResultBook{"CS-101": {"s1": {Quiz: []float64{80}, Midterm: Float(70)}}}
	clone := book.Clone()
	scores := clone["CS-101"]["s1"]
	scores.Quiz[0] = 10
	*scores.Midterm = 20

	original, ok := book.Scores("CS-101", "s1")
	require.True(t, ok)
	require.Equal(t, 80.0, original.Quiz[0])
	require.Equal(t, 70.0, *original.Midterm)
	require.Nil(t, original.Final)

	_, ok = ResultBook(nil).Scores("CS-101", "s1")
	require.False(t, ok)
	require.Equal(t, []string{"CS-101"}, book.CourseCodes())
}

func TestAttendanceStatusValid(t *testing.T) {
	require.True(t, AttendancePresent.Valid())
	require.True(t, AttendanceAbsent.Valid())
	require.False(t, AttendanceStatus("late").Valid())
}
