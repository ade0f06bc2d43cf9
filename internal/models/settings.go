package models

// AttendanceSettings is the admin-configured attendance policy.
// CheckInterval is informational only.
type AttendanceSettings struct {
	Threshold     int `json:"threshold"`
	CheckInterval int `json:"checkInterval"`
}

// GradeSettings is the admin-configured grade policy.
type GradeSettings struct {
	PassingGrade int `json:"passingGrade"`
}
