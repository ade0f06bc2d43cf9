package store

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

// scoresWire is the persisted form of assessment scores. Legacy payloads store
// an untaken midterm or final as 0. Records written by this service set
// ExplicitExams, store an untaken exam as null and keep a recorded 0 as 0.
type scoresWire struct {
	Quiz          []float64 `json:"quiz"`
	Assignment    []float64 `json:"assignment"`
	Midterm       *float64  `json:"midterm"`
	Final         *float64  `json:"final"`
	ExplicitExams bool      `json:"explicitExams,omitempty"`
}

type resultsWire map[string]map[string]scoresWire

func examFromWire(value *float64, explicit bool) *float64 {
	if value == nil || (!explicit && *value == 0) {
		return nil
	}
	v := *value
	return &v
}

func examToWire(value *float64) *float64 {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func decodeResults(raw []byte) (models.ResultBook, error) {
	var wire resultsWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	book := make(models.ResultBook, len(wire))
	for code, students := range wire {
		decoded := make(map[string]models.AssessmentScores, len(students))
		for id, scores := range students {
			decoded[id] = models.AssessmentScores{
				Quiz:       append([]float64{}, scores.Quiz...),
				Assignment: append([]float64{}, scores.Assignment...),
				Midterm:    examFromWire(scores.Midterm, scores.ExplicitExams),
				Final:      examFromWire(scores.Final, scores.ExplicitExams),
			}
		}
		book[code] = decoded
	}
	return book, nil
}

func encodeResults(book models.ResultBook) ([]byte, error) {
	wire := make(resultsWire, len(book))
	for code, students := range book {
		encoded := make(map[string]scoresWire, len(students))
		for id, scores := range students {
			encoded[id] = scoresWire{
				Quiz:          append([]float64{}, scores.Quiz...),
				Assignment:    append([]float64{}, scores.Assignment...),
				Midterm:       examToWire(scores.Midterm),
				Final:         examToWire(scores.Final),
				ExplicitExams: true,
			}
		}
		wire[code] = encoded
	}
	return json.Marshal(wire)
}

// flexInt accepts a JSON number or a numeric string; legacy user payloads
// carry enrollmentYear as a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		*f = 0
		return nil
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return err
	}
	*f = flexInt(value)
	return nil
}

type userWire struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	Program        string  `json:"program"`
	Semester       string  `json:"semester"`
	EnrollmentYear flexInt `json:"enrollmentYear"`
}

func decodeUsers(raw []byte) ([]models.User, error) {
	var wire []userWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(wire))
	for _, item := range wire {
		role, _ := models.ParseRole(item.Role)
		users = append(users, models.User{
			ID:             item.ID,
			Name:           item.Name,
			Email:          item.Email,
			Role:           role,
			Program:        item.Program,
			Semester:       item.Semester,
			EnrollmentYear: int(item.EnrollmentYear),
		})
	}
	return users, nil
}
