package models

import "sort"

// AssessmentType names a graded component.
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentMidterm    AssessmentType = "midterm"
	AssessmentFinal      AssessmentType = "final"
)

// ParseAssessmentType validates an assessment type string.
func ParseAssessmentType(value string) (AssessmentType, bool) {
	switch t := AssessmentType(value); t {
	case AssessmentQuiz, AssessmentAssignment, AssessmentMidterm, AssessmentFinal:
		return t, true
	default:
		return "", false
	}
}

// AssessmentScores holds a student's scores for one course.
// A nil Midterm or Final means the exam has not been taken.
type AssessmentScores struct {
	Quiz       []float64 `json:"quiz"`
	Assignment []float64 `json:"assignment"`
	Midterm    *float64  `json:"midterm,omitempty"`
	Final      *float64  `json:"final,omitempty"`
}

// Clone returns a deep copy of the scores.
func (s AssessmentScores) Clone() AssessmentScores {
	out := AssessmentScores{
		Quiz:       append([]float64(nil), s.Quiz...),
		Assignment: append([]float64(nil), s.Assignment...),
	}
	if s.Midterm != nil {
		v := *s.Midterm
		out.Midterm = &v
	}
	if s.Final != nil {
		v := *s.Final
		out.Final = &v
	}
	return out
}

// ResultBook maps course code to student id to assessment scores.
type ResultBook map[string]map[string]AssessmentScores

// Scores returns the scores for a course/student pair and whether any were stored.
func (b ResultBook) Scores(courseCode, studentID string) (AssessmentScores, bool) {
	if b == nil {
		return AssessmentScores{}, false
	}
	scores, ok := b[courseCode][studentID]
	return scores, ok
}

// CourseCodes returns the course codes present in the book, sorted.
func (b ResultBook) CourseCodes() []string {
	codes := make([]string, 0, len(b))
	for code := range b {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// StudentIDs returns the student ids with scores for a course, sorted.
func (b ResultBook) StudentIDs(courseCode string) []string {
	students := b[courseCode]
	ids := make([]string, 0, len(students))
	for id := range students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the book.
func (b ResultBook) Clone() ResultBook {
	out := make(ResultBook, len(b))
	for code, students := range b {
		copied := make(map[string]AssessmentScores, len(students))
		for id, scores := range students {
			copied[id] = scores.Clone()
		}
		out[code] = copied
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
