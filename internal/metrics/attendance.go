package metrics

import "github.com/noah-isme/portal-metrics-api/internal/models"

// EmptyAttendancePercentage is reported for a course with no attendance records.
// Every caller (student view, teacher roster, admin alert scan) goes through
// AttendancePercentage, so a student with no sessions yet is in good standing
// everywhere and never raises a low-attendance alert.
const EmptyAttendancePercentage = 100

// AttendanceTally counts present entries and total entries. Duplicate dates
// are counted independently.
func AttendanceTally(records []models.AttendanceRecord) (present, total int) {
	for _, record := range records {
		if record.Status == models.AttendancePresent {
			present++
		}
	}
	return present, len(records)
}

// AttendancePercentage converts a record sequence into a whole percentage.
func AttendancePercentage(records []models.AttendanceRecord) int {
	present, total := AttendanceTally(records)
	if total == 0 {
		return EmptyAttendancePercentage
	}
	return roundDiv(100*present, total)
}

// OverallAttendancePercentage pools records from several courses before
// computing the percentage, so larger courses weigh more.
func OverallAttendancePercentage(sets ...[]models.AttendanceRecord) int {
	present, total := 0, 0
	for _, records := range sets {
		p, t := AttendanceTally(records)
		present += p
		total += t
	}
	if total == 0 {
		return EmptyAttendancePercentage
	}
	return roundDiv(100*present, total)
}

// roundDiv returns round(num/den) with halves rounded up, using integer
// arithmetic. num must be non-negative and den positive.
func roundDiv(num, den int) int {
	return (2*num + den) / (2 * den)
}
