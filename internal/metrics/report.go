package metrics

import (
	"sort"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

// SystemStats are the admin dashboard headline counts.
type SystemStats struct {
	TotalStudents int `json:"totalStudents"`
	TotalTeachers int `json:"totalTeachers"`
	TotalCourses  int `json:"totalCourses"`
}

// UserActivity is the user-activity report body.
type UserActivity struct {
	TotalUsers int `json:"totalUsers"`
	Students   int `json:"students"`
	Teachers   int `json:"teachers"`
	Admins     int `json:"admins"`
}

// Performance is the system-performance report body.
type Performance struct {
	TotalCourses     int `json:"totalCourses"`
	TotalStudents    int `json:"totalStudents"`
	AverageClassSize int `json:"averageClassSize"`
}

// AttendanceSummary is the attendance-summary report body.
type AttendanceSummary struct {
	TotalRecords          int `json:"totalRecords"`
	PresentRecords        int `json:"presentRecords"`
	AbsentRecords         int `json:"absentRecords"`
	OverallAttendanceRate int `json:"overallAttendanceRate"`
}

// Distribution counts grades per letter band.
type Distribution struct {
	A int `json:"A"`
	B int `json:"B"`
	C int `json:"C"`
	D int `json:"D"`
	F int `json:"F"`
}

// Add increments the bucket for letter.
func (d *Distribution) Add(letter Letter) {
	switch letter {
	case LetterA:
		d.A++
	case LetterB:
		d.B++
	case LetterC:
		d.C++
	case LetterD:
		d.D++
	default:
		d.F++
	}
}

// Total sums every bucket.
func (d Distribution) Total() int {
	return d.A + d.B + d.C + d.D + d.F
}

// GradeDistribution is the grade-analysis report body.
type GradeDistribution struct {
	Distribution Distribution `json:"gradeDistribution"`
	TotalGrades  int          `json:"totalGrades"`
}

// TeacherStats are the teacher dashboard headline counts.
type TeacherStats struct {
	TotalCourses  int `json:"totalCourses"`
	TotalStudents int `json:"totalStudents"`
	PendingTasks  int `json:"pendingTasks"`
}

// RecentResult is one assessment shown in a student's recent results.
type RecentResult struct {
	CourseCode string                `json:"courseCode"`
	Type       models.AssessmentType `json:"type"`
	Marks      float64               `json:"marks"`
}

type roleCounts struct {
	students, teachers, admins int
}

func countRoles(users []models.User) roleCounts {
	var counts roleCounts
	for _, user := range users {
		switch user.Role {
		case models.RoleStudent:
			counts.students++
		case models.RoleTeacher:
			counts.teachers++
		case models.RoleAdmin:
			counts.admins++
		}
	}
	return counts
}

// ComputeSystemStats counts students, teachers and courses.
func ComputeSystemStats(users []models.User, courses []models.Course) SystemStats {
	counts := countRoles(users)
	return SystemStats{
		TotalStudents: counts.students,
		TotalTeachers: counts.teachers,
		TotalCourses:  len(courses),
	}
}

// UserActivityReport counts users by role.
func UserActivityReport(users []models.User) UserActivity {
	counts := countRoles(users)
	return UserActivity{
		TotalUsers: len(users),
		Students:   counts.students,
		Teachers:   counts.teachers,
		Admins:     counts.admins,
	}
}

// PerformanceReport summarises course sizes. With no courses the average
// class size is 0.
func PerformanceReport(courses []models.Course, users []models.User) Performance {
	enrolled := 0
	for _, course := range courses {
		enrolled += len(course.StudentIDs)
	}

	report := Performance{
		TotalCourses:  len(courses),
		TotalStudents: countRoles(users).students,
	}
	if len(courses) > 0 {
		report.AverageClassSize = roundDiv(enrolled, len(courses))
	}
	return report
}

// AttendanceSummaryReport flattens every record in the book into totals.
func AttendanceSummaryReport(book models.AttendanceBook) AttendanceSummary {
	present, total := 0, 0
	for _, students := range book {
		for _, records := range students {
			p, t := AttendanceTally(records)
			present += p
			total += t
		}
	}

	summary := AttendanceSummary{
		TotalRecords:   total,
		PresentRecords: present,
		AbsentRecords:  total - present,
	}
	if total > 0 {
		summary.OverallAttendanceRate = roundDiv(100*present, total)
	}
	return summary
}

// GradeDistributionReport buckets the current grade of every course/student
// pair with graded work. It uses the same CurrentGrade as the dashboards.
func GradeDistributionReport(book models.ResultBook) (GradeDistribution, error) {
	var report GradeDistribution
	for _, code := range book.CourseCodes() {
		for _, studentID := range book.StudentIDs(code) {
			scores := book[code][studentID]
			if !HasGradedWork(scores) {
				continue
			}
			grade, err := CurrentGrade(scores)
			if err != nil {
				return GradeDistribution{}, err
			}
			report.Distribution.Add(LetterGrade(grade))
			report.TotalGrades++
		}
	}
	return report, nil
}

// ComputeTeacherStats counts a teacher's courses, distinct students, and the
// courses with no attendance marked on today (a "YYYY-MM-DD" date).
func ComputeTeacherStats(teacherID string, courses []models.Course, book models.AttendanceBook, today string) TeacherStats {
	taught := models.CoursesForTeacher(courses, teacherID)
	students := make(map[string]struct{})
	pending := 0

	for _, course := range taught {
		for _, id := range course.StudentIDs {
			students[id] = struct{}{}
		}
		if !AttendanceMarkedOn(book[course.Code], today) {
			pending++
		}
	}

	return TeacherStats{
		TotalCourses:  len(taught),
		TotalStudents: len(students),
		PendingTasks:  pending,
	}
}

// AttendanceMarkedOn reports whether any student of a course has a record on date.
func AttendanceMarkedOn(students map[string][]models.AttendanceRecord, date string) bool {
	for _, records := range students {
		for _, record := range records {
			if record.Date == date {
				return true
			}
		}
	}
	return false
}

// RecentResults lists the latest quiz, latest assignment and midterm of each
// enrolled course, highest marks first, truncated to limit. A non-positive
// limit returns every result.
func RecentResults(studentID string, courses []models.Course, book models.ResultBook, limit int) []RecentResult {
	results := make([]RecentResult, 0)
	for _, course := range enrolledCourses(studentID, courses) {
		scores, ok := book.Scores(course.Code, studentID)
		if !ok {
			continue
		}
		if n := len(scores.Quiz); n > 0 {
			results = append(results, RecentResult{CourseCode: course.Code, Type: models.AssessmentQuiz, Marks: scores.Quiz[n-1]})
		}
		if n := len(scores.Assignment); n > 0 {
			results = append(results, RecentResult{CourseCode: course.Code, Type: models.AssessmentAssignment, Marks: scores.Assignment[n-1]})
		}
		if scores.Midterm != nil {
			results = append(results, RecentResult{CourseCode: course.Code, Type: models.AssessmentMidterm, Marks: *scores.Midterm})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Marks > results[j].Marks })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
