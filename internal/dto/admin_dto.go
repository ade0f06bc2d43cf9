package dto

import (
	"time"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
)

// Report types served by the admin reports endpoint.
const (
	ReportUserActivity      = "user-activity"
	ReportSystemPerformance = "system-performance"
	ReportAttendanceSummary = "attendance-summary"
	ReportGradeAnalysis     = "grade-analysis"
)

// ReportTitles maps each report type to its display title.
var ReportTitles = map[string]string{
	ReportUserActivity:      "User Activity Report",
	ReportSystemPerformance: "System Performance Report",
	ReportAttendanceSummary: "Attendance Summary Report",
	ReportGradeAnalysis:     "Grade Analysis Report",
}

// AdminOverviewResponse is the admin dashboard headline.
type AdminOverviewResponse struct {
	Stats      metrics.SystemStats `json:"stats"`
	Thresholds metrics.Thresholds  `json:"thresholds"`
	Alerts     []metrics.Alert     `json:"alerts"`
}

// ReportQuery narrows a generated report.
type ReportQuery struct {
	DateRange string `query:"range" validate:"omitempty,max=64"`
	Format    string `query:"format" validate:"omitempty,oneof=json text"`
}

// ReportResponse wraps any report body.
type ReportResponse struct {
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	DateRange   string      `json:"dateRange"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Data        interface{} `json:"data"`
}

// SettingsResponse lists the saved policy settings.
type SettingsResponse struct {
	Attendance AttendanceSettingsRequest `json:"attendance"`
	Grade      GradeSettingsRequest      `json:"grade"`
	Effective  metrics.Thresholds        `json:"effective"`
}

// AttendanceSettingsRequest updates the attendance policy.
type AttendanceSettingsRequest struct {
	Threshold     int `json:"threshold" validate:"required,min=1,max=100"`
	CheckInterval int `json:"checkInterval" validate:"omitempty,min=1,max=168"`
}

// GradeSettingsRequest updates the grade policy.
type GradeSettingsRequest struct {
	PassingGrade int `json:"passingGrade" validate:"required,min=1,max=100"`
}

// CreateUserRequest registers a new portal account.
type CreateUserRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Role           string `json:"role" validate:"required,oneof=student teacher admin"`
	Program        string `json:"program" validate:"omitempty,max=120"`
	Semester       string `json:"semester" validate:"omitempty,max=40"`
	EnrollmentYear int    `json:"enrollmentYear" validate:"omitempty,min=1900,max=2100"`
}

// Defaults applied to optional profile fields of a new account.
const (
	DefaultProgram  = "Not Assigned"
	DefaultSemester = "N/A"
)

// UserResponse is a created or listed account.
type UserResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Program        string `json:"program,omitempty"`
	Semester       string `json:"semester,omitempty"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty"`
}

// UserListQuery filters the admin user list.
type UserListQuery struct {
	Role string `query:"role" validate:"omitempty,oneof=student teacher admin"`
}

// CreateCourseRequest registers a new course.
type CreateCourseRequest struct {
	Code      string `json:"code" validate:"required,min=2,max=16"`
	Name      string `json:"name" validate:"required,min=2,max=120"`
	TeacherID string `json:"teacherId" validate:"omitempty"`
	Credits   int    `json:"credits" validate:"required,min=1,max=10"`
}

// CourseResponse is a course row in the admin course list.
type CourseResponse struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	TeacherID    string `json:"teacherId"`
	TeacherName  string `json:"teacherName"`
	Credits      int    `json:"credits"`
	StudentCount int    `json:"studentCount"`
}

// CacheClearResponse reports how many cached dashboards were dropped.
type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}
