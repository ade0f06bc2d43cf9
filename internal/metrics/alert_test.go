package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

func TestStudentAlertsOrdersAttendanceBeforeGrades(t *testing.T) {
	student := models.User{ID: "student-1", Role: models.RoleStudent}
	courses := []models.Course{
		{Code: "CS-201", StudentIDs: []string{"student-1"}},
		{Code: "CS-101", StudentIDs: []string{"student-1"}},
		{Code: "MA-101", StudentIDs: []string{"student-2"}},
	}
	attendance := map[string][]models.AttendanceRecord{
		"CS-101": records(attPresent, attAbsent, attAbsent),
		"CS-201": records(attPresent, attPresent, attAbsent, attAbsent),
		"MA-101": records(attAbsent),
	}
	scores := map[string]models.AssessmentScores{
		"CS-101": {Quiz: []float64{40}},
		"CS-201": {Quiz: []float64{50}, Midterm: models.Float(55)},
	}

	alerts, err := StudentAlerts(student, courses, attendance, scores, DefaultThresholds)
	require.NoError(t, err)
	require.Equal(t, []Alert{
		{Severity: SeverityWarning, Kind: AlertLowAttendance, CourseCode: "CS-101", Message: "Low attendance in CS-101: 33%"},
		{Severity: SeverityWarning, Kind: AlertLowAttendance, CourseCode: "CS-201", Message: "Low attendance in CS-201: 50%"},
		{Severity: SeverityWarning, Kind: AlertLowGrade, CourseCode: "CS-101", Message: "Low grade in CS-101: 40%"},
		{Severity: SeverityWarning, Kind: AlertLowGrade, CourseCode: "CS-201", Message: "Low grade in CS-201: 53%"},
	}, alerts)
}

func TestStudentAlertsSkipsMissingData(t *testing.T) {
	student := models.User{ID: "student-1"}
	courses := []models.Course{{Code: "CS-101", StudentIDs: []string{"student-1"}}}

	alerts, err := StudentAlerts(student, courses, nil, map[string]models.AssessmentScores{
		"CS-101": {Final: models.Float(10)},
	}, DefaultThresholds)
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestStudentAlertsHonoursThresholds(t *testing.T) {
	student := models.User{ID: "s"}
	courses := []models.Course{{Code: "CS-101", StudentIDs: []string{"s"}}}
	attendance := map[string][]models.AttendanceRecord{"CS-101": records(attPresent, attPresent, attPresent, attAbsent)}
	scores := map[string]models.AssessmentScores{"CS-101": {Quiz: []float64{70}}}

	alerts, err := StudentAlerts(student, courses, attendance, scores, DefaultThresholds)
	require.NoError(t, err)
	require.Empty(t, alerts)

	alerts, err = StudentAlerts(student, courses, attendance, scores, Thresholds{Attendance: 80, PassingGrade: 71})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, AlertLowAttendance, alerts[0].Kind)
	require.Equal(t, AlertLowGrade, alerts[1].Kind)
}

func TestStudentAlertsSurfacesValidationErrors(t *testing.T) {
	student := models.User{ID: "s"}
	courses := []models.Course{{Code: "CS-101", StudentIDs: []string{"s"}}}
	scores := map[string]models.AssessmentScores{"CS-101": {Quiz: []float64{140}}}

	_, err := StudentAlerts(student, courses, nil, scores, DefaultThresholds)
	require.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestSystemAlertsCountsPairsBelowThreshold(t *testing.T) {
	book := models.AttendanceBook{
		"CS-101": {
			"student-1": records(attPresent, attPresent, attAbsent),
			"student-2": records(attPresent, attAbsent, attAbsent),
			"student-3": {},
		},
		"CS-201": {
			"student-1": records(attAbsent),
		},
	}

	alerts := SystemAlerts(book, DefaultThresholds)
	require.Equal(t, []Alert{
		{Severity: SeverityWarning, Kind: AlertLowAttendance, Message: "3 students have attendance below 75%"},
		{Severity: SeverityInfo, Kind: AlertSystem, Message: MaintenanceNotice},
	}, alerts)
}

func TestSystemAlertsWithoutLowAttendance(t *testing.T) {
	alerts := SystemAlerts(nil, DefaultThresholds)
	require.Equal(t, []Alert{{Severity: SeverityInfo, Kind: AlertSystem, Message: MaintenanceNotice}}, alerts)
}

func TestStudentViewsExtractPerCourseData(t *testing.T) {
	attendance := models.AttendanceBook{
		"CS-101": {"s1": records(attPresent), "s2": records(attAbsent)},
		"CS-201": {"s2": records(attPresent)},
	}
	results := models.ResultBook{
		"CS-101": {"s1": {Quiz: []float64{90}}},
	}

	require.Equal(t, map[string][]models.AttendanceRecord{"CS-101": records(attPresent)}, StudentAttendance(attendance, "s1"))
	require.Len(t, StudentAttendance(attendance, "s2"), 2)
	require.Empty(t, StudentScores(results, "s2"))
}
