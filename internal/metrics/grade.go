package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

// Score bounds accepted by the grade calculator.
const (
	MinScore = 0
	MaxScore = 100
)

// Weights is the fixed assessment weighting policy.
type Weights struct {
	Quiz       float64
	Assignment float64
	Midterm    float64
	Final      float64
}

// DefaultWeights is the portal-wide weighting. Final is defined but never
// contributes to the current grade.
var DefaultWeights = Weights{Quiz: 0.20, Assignment: 0.30, Midterm: 0.25, Final: 0.25}

// Letter is a letter grade band.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterF Letter = "F"
)

// Letters lists the bands from best to worst.
var Letters = []Letter{LetterA, LetterB, LetterC, LetterD, LetterF}

// LetterGrade maps a percentage to its band. Lower edges are inclusive.
func LetterGrade(percentage int) Letter {
	switch {
	case percentage >= 90:
		return LetterA
	case percentage >= 80:
		return LetterB
	case percentage >= 70:
		return LetterC
	case percentage >= 60:
		return LetterD
	default:
		return LetterF
	}
}

// ValidateScores checks every recorded score, final included, lies in [0,100].
func ValidateScores(scores models.AssessmentScores) error {
	if err := validateSeries("quiz", scores.Quiz); err != nil {
		return err
	}
	if err := validateSeries("assignment", scores.Assignment); err != nil {
		return err
	}
	if scores.Midterm != nil {
		if err := ValidateScore("midterm", *scores.Midterm); err != nil {
			return err
		}
	}
	if scores.Final != nil {
		if err := ValidateScore("final", *scores.Final); err != nil {
			return err
		}
	}
	return nil
}

// ValidateScore checks a single score.
func ValidateScore(component string, value float64) error {
	if !inRange(value) {
		return &ValidationError{Component: component, Index: -1, Value: value}
	}
	return nil
}

func validateSeries(component string, values []float64) error {
	for i, value := range values {
		if !inRange(value) {
			return &ValidationError{Component: component, Index: i, Value: value}
		}
	}
	return nil
}

func inRange(value float64) bool {
	return !math.IsNaN(value) && value >= MinScore && value <= MaxScore
}

// ComponentAverage is the arithmetic mean of a score series; ok is false for
// an empty series.
func ComponentAverage(values []float64) (avg float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// HasGradedWork reports whether any component counted by CurrentGrade has data.
func HasGradedWork(scores models.AssessmentScores) bool {
	return len(scores.Quiz) > 0 || len(scores.Assignment) > 0 || scores.Midterm != nil
}

// Breakdown exposes the intermediate values of a current grade computation.
type Breakdown struct {
	QuizAverage       *float64 `json:"quizAverage"`
	AssignmentAverage *float64 `json:"assignmentAverage"`
	Midterm           *float64 `json:"midterm"`
	Final             *float64 `json:"final"`
	WeightUsed        float64  `json:"weightUsed"`
	CurrentGrade      int      `json:"currentGrade"`
	Letter            Letter   `json:"letter"`
}

// GradeBreakdown validates the scores and computes the current grade along
// with its per-component inputs.
func GradeBreakdown(scores models.AssessmentScores) (Breakdown, error) {
	if err := ValidateScores(scores); err != nil {
		return Breakdown{}, err
	}

	var out Breakdown
	parts := make([]gradePart, 0, 3)
	if avg, ok := ComponentAverage(scores.Quiz); ok {
		out.QuizAverage = &avg
		out.WeightUsed += DefaultWeights.Quiz
		parts = append(parts, newGradePart(DefaultWeights.Quiz, scores.Quiz...))
	}
	if avg, ok := ComponentAverage(scores.Assignment); ok {
		out.AssignmentAverage = &avg
		out.WeightUsed += DefaultWeights.Assignment
		parts = append(parts, newGradePart(DefaultWeights.Assignment, scores.Assignment...))
	}
	if scores.Midterm != nil {
		midterm := *scores.Midterm
		out.Midterm = &midterm
		out.WeightUsed += DefaultWeights.Midterm
		parts = append(parts, newGradePart(DefaultWeights.Midterm, midterm))
	}
	if scores.Final != nil {
		final := *scores.Final
		out.Final = &final
	}

	out.CurrentGrade = roundedWeightedAverage(parts)
	out.Letter = LetterGrade(out.CurrentGrade)
	return out, nil
}

// gradePart is one component of a current grade: weight * sum / count.
type gradePart struct {
	weight decimal.Decimal
	sum    decimal.Decimal
	count  int64
}

func newGradePart(weight float64, values ...float64) gradePart {
	part := gradePart{weight: decimal.NewFromFloat(weight), sum: decimal.Zero, count: int64(len(values))}
	for _, v := range values {
		part.sum = part.sum.Add(decimal.NewFromFloat(v))
	}
	return part
}

// roundedWeightedAverage returns round(sum(w*avg) / sum(w)) with halves
// rounded up. Both sides are scaled by the product of the component counts so
// the quotient is taken once, exactly.
func roundedWeightedAverage(parts []gradePart) int {
	if len(parts) == 0 {
		return 0
	}
	product := int64(1)
	for _, part := range parts {
		product *= part.count
	}

	numerator := decimal.Zero
	weightUsed := decimal.Zero
	for _, part := range parts {
		numerator = numerator.Add(part.weight.Mul(part.sum).Mul(decimal.NewFromInt(product / part.count)))
		weightUsed = weightUsed.Add(part.weight)
	}
	denominator := weightUsed.Mul(decimal.NewFromInt(product))
	return int(numerator.DivRound(denominator, 0).IntPart())
}

// CurrentGrade is the weighted average of quiz, assignment and midterm,
// renormalised over the components that have data. No graded work yields 0.
// The final exam is excluded even when recorded.
func CurrentGrade(scores models.AssessmentScores) (int, error) {
	breakdown, err := GradeBreakdown(scores)
	if err != nil {
		return 0, err
	}
	return breakdown.CurrentGrade, nil
}
