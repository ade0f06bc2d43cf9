package models

import "sort"

// AttendanceStatus captures whether a student attended a session.
type AttendanceStatus string

const (
	// AttendancePresent marks an attended session.
	AttendancePresent AttendanceStatus = "present"
	// AttendanceAbsent marks a missed session.
	AttendanceAbsent AttendanceStatus = "absent"
)

// Valid reports whether the status is recognised.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// DateLayout is the calendar date format used by attendance records.
const DateLayout = "2006-01-02"

// AttendanceRecord is a single dated attendance entry.
type AttendanceRecord struct {
	Date   string           `json:"date"`
	Status AttendanceStatus `json:"status"`
}

// AttendanceBook maps course code to student id to that student's records.
type AttendanceBook map[string]map[string][]AttendanceRecord

// Records returns the records for a course/student pair, or nil when either is unknown.
func (b AttendanceBook) Records(courseCode, studentID string) []AttendanceRecord {
	if b == nil {
		return nil
	}
	return b[courseCode][studentID]
}

// CourseCodes returns the course codes present in the book, sorted.
func (b AttendanceBook) CourseCodes() []string {
	codes := make([]string, 0, len(b))
	for code := range b {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// StudentIDs returns the student ids with records for a course, sorted.
func (b AttendanceBook) StudentIDs(courseCode string) []string {
	students := b[courseCode]
	ids := make([]string, 0, len(students))
	for id := range students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy so callers can modify it without touching the snapshot.
func (b AttendanceBook) Clone() AttendanceBook {
	out := make(AttendanceBook, len(b))
	for code, students := range b {
		copied := make(map[string][]AttendanceRecord, len(students))
		for id, records := range students {
			copied[id] = append([]AttendanceRecord(nil), records...)
		}
		out[code] = copied
	}
	return out
}
