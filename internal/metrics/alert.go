package metrics

import (
	"fmt"
	"sort"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

// Severity tags an alert.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// AlertKind identifies what triggered an alert.
type AlertKind string

const (
	AlertLowAttendance AlertKind = "low_attendance"
	AlertLowGrade      AlertKind = "low_grade"
	AlertSystem        AlertKind = "system"
)

// MaintenanceNotice is the informational alert appended to every system scan.
const MaintenanceNotice = "System maintenance scheduled for Sunday 2:00 AM"

// Alert is a threshold notice.
type Alert struct {
	Severity   Severity  `json:"severity"`
	Kind       AlertKind `json:"kind"`
	CourseCode string    `json:"courseCode,omitempty"`
	Message    string    `json:"message"`
}

// Thresholds are the policy limits alerts are measured against.
type Thresholds struct {
	Attendance   int `json:"attendanceThreshold"`
	PassingGrade int `json:"passingGrade"`
}

// DefaultThresholds apply when no settings were saved.
var DefaultThresholds = Thresholds{Attendance: 75, PassingGrade: 60}

// StudentAlerts evaluates the courses whose roster includes the student. Attendance warnings
// for every course come first, then grade warnings, each ordered by course
// code. Grade warnings are only raised for courses with graded work.
// attendanceByCourse and scoresByCourse are keyed by course code; missing
// entries mean no data.
func StudentAlerts(student models.User, courses []models.Course, attendanceByCourse map[string][]models.AttendanceRecord, scoresByCourse map[string]models.AssessmentScores, th Thresholds) ([]Alert, error) {
	ordered := enrolledCourses(student.ID, courses)

	alerts := make([]Alert, 0)
	for _, course := range ordered {
		percentage := AttendancePercentage(attendanceByCourse[course.Code])
		if percentage < th.Attendance {
			alerts = append(alerts, Alert{
				Severity:   SeverityWarning,
				Kind:       AlertLowAttendance,
				CourseCode: course.Code,
				Message:    fmt.Sprintf("Low attendance in %s: %d%%", course.Code, percentage),
			})
		}
	}

	for _, course := range ordered {
		scores, ok := scoresByCourse[course.Code]
		if !ok || !HasGradedWork(scores) {
			continue
		}
		grade, err := CurrentGrade(scores)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", course.Code, err)
		}
		if grade < th.PassingGrade {
			alerts = append(alerts, Alert{
				Severity:   SeverityWarning,
				Kind:       AlertLowGrade,
				CourseCode: course.Code,
				Message:    fmt.Sprintf("Low grade in %s: %d%%", course.Code, grade),
			})
		}
	}

	return alerts, nil
}

// enrolledCourses keeps the courses whose roster includes the student, sorted
// by code.
func enrolledCourses(studentID string, courses []models.Course) []models.Course {
	ordered := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if course.HasStudent(studentID) {
			ordered = append(ordered, course)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Code < ordered[j].Code })
	return ordered
}

// LowAttendanceCount counts course/student pairs below the attendance threshold.
func LowAttendanceCount(book models.AttendanceBook, threshold int) int {
	count := 0
	for _, students := range book {
		for _, records := range students {
			if AttendancePercentage(records) < threshold {
				count++
			}
		}
	}
	return count
}

// SystemAlerts is the admin-wide scan: one aggregate warning when any
// course/student pair is below the attendance threshold, followed by the
// maintenance notice.
func SystemAlerts(book models.AttendanceBook, th Thresholds) []Alert {
	alerts := make([]Alert, 0, 2)
	if low := LowAttendanceCount(book, th.Attendance); low > 0 {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning,
			Kind:     AlertLowAttendance,
			Message:  fmt.Sprintf("%d students have attendance below %d%%", low, th.Attendance),
		})
	}
	alerts = append(alerts, Alert{
		Severity: SeverityInfo,
		Kind:     AlertSystem,
		Message:  MaintenanceNotice,
	})
	return alerts
}

// StudentAttendance extracts a student's records per course code from the book.
func StudentAttendance(book models.AttendanceBook, studentID string) map[string][]models.AttendanceRecord {
	out := make(map[string][]models.AttendanceRecord)
	for code, students := range book {
		if records, ok := students[studentID]; ok {
			out[code] = records
		}
	}
	return out
}

// StudentScores extracts a student's scores per course code from the book.
func StudentScores(book models.ResultBook, studentID string) map[string]models.AssessmentScores {
	out := make(map[string]models.AssessmentScores)
	for code, students := range book {
		if scores, ok := students[studentID]; ok {
			out[code] = scores
		}
	}
	return out
}
