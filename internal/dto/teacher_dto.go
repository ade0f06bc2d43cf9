package dto

import "github.com/noah-isme/portal-metrics-api/internal/metrics"

// TeacherCourse is a course row on the teacher dashboard.
type TeacherCourse struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Credits      int    `json:"credits"`
	StudentCount int    `json:"studentCount"`
	MarkedToday  bool   `json:"markedToday"`
}

// TeacherDashboardResponse aggregates a teacher's courses and workload.
type TeacherDashboardResponse struct {
	Stats   metrics.TeacherStats `json:"stats"`
	Courses []TeacherCourse      `json:"courses"`
}

// RosterEntry is one student's standing in a course roster.
type RosterEntry struct {
	StudentID            string         `json:"studentId"`
	Name                 string         `json:"name"`
	Email                string         `json:"email"`
	AttendancePercentage int            `json:"attendancePercentage"`
	Graded               bool           `json:"graded"`
	CurrentGrade         int            `json:"currentGrade"`
	Letter               metrics.Letter `json:"letter"`
}

// RosterResponse lists every enrolled student of a course.
type RosterResponse struct {
	CourseCode string        `json:"courseCode"`
	CourseName string        `json:"courseName"`
	Students   []RosterEntry `json:"students"`
}

// StudentListQuery narrows the teacher's student list to one course.
type StudentListQuery struct {
	Course string `query:"course" validate:"omitempty,max=16"`
}

// TeacherStudent is a student taught by the caller.
type TeacherStudent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Program     string `json:"program,omitempty"`
	CourseCount int    `json:"courseCount"`
}

// TeacherStudentsResponse lists the students across the caller's courses.
type TeacherStudentsResponse struct {
	CourseCode string           `json:"courseCode,omitempty"`
	Students   []TeacherStudent `json:"students"`
}

// AttendanceEntry is one student's status in a marking request.
type AttendanceEntry struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

// MarkAttendanceRequest records one attendance session for a course.
type MarkAttendanceRequest struct {
	Date    string            `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// MarkEntry is one student's mark in a marks request.
type MarkEntry struct {
	StudentID string   `json:"studentId" validate:"required"`
	Marks     *float64 `json:"marks" validate:"required,gte=0,lte=100"`
}

// RecordMarksRequest records one assessment for a course.
type RecordMarksRequest struct {
	Type    string      `json:"type" validate:"required,oneof=quiz assignment midterm final"`
	Entries []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

// WriteResult reports how many students a write touched.
type WriteResult struct {
	CourseCode string `json:"courseCode"`
	Updated    int    `json:"updated"`
}
