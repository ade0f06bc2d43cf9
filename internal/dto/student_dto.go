package dto

import "github.com/noah-isme/portal-metrics-api/internal/metrics"

// Attendance standings shown next to a course percentage.
const (
	StandingGood             = "Good"
	StandingNeedsImprovement = "Needs Improvement"
)

// StudentProfile is the identity block of the student dashboard.
type StudentProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Program        string `json:"program,omitempty"`
	Semester       string `json:"semester,omitempty"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty"`
}

// CourseAttendance summarises one course's attendance for a student.
type CourseAttendance struct {
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Teacher    string `json:"teacher"`
	Present    int    `json:"present"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Standing   string `json:"standing"`
}

// CourseGrade is a student's current standing in one course.
type CourseGrade struct {
	CourseCode   string         `json:"courseCode"`
	CourseName   string         `json:"courseName"`
	Graded       bool           `json:"graded"`
	CurrentGrade int            `json:"currentGrade"`
	Letter       metrics.Letter `json:"letter"`
}

// StudentDashboardResponse aggregates attendance, grades and alerts for a student.
type StudentDashboardResponse struct {
	Student           StudentProfile         `json:"student"`
	OverallAttendance int                    `json:"overallAttendance"`
	Attendance        []CourseAttendance     `json:"attendance"`
	Grades            []CourseGrade          `json:"grades"`
	Alerts            []metrics.Alert        `json:"alerts"`
	RecentResults     []metrics.RecentResult `json:"recentResults"`
}

// CourseBreakdownResponse is the detailed marks view of one enrolled course.
type CourseBreakdownResponse struct {
	CourseCode string            `json:"courseCode"`
	CourseName string            `json:"courseName"`
	Teacher    string            `json:"teacher"`
	Quiz       []float64         `json:"quiz"`
	Assignment []float64         `json:"assignment"`
	Breakdown  metrics.Breakdown `json:"breakdown"`
	Attendance CourseAttendance  `json:"attendance"`
}
