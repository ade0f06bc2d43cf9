package metrics

import (
	"errors"
	"fmt"
)

// ErrScoreOutOfRange is wrapped by every ValidationError raised for a score outside [0,100].
var ErrScoreOutOfRange = errors.New("score out of range")

// ValidationError reports an assessment score the engine refuses to compute with.
type ValidationError struct {
	Component string
	Index     int
	Value     float64
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d] = %v: must be between %d and %d", e.Component, e.Index, e.Value, MinScore, MaxScore)
	}
	return fmt.Sprintf("%s = %v: must be between %d and %d", e.Component, e.Value, MinScore, MaxScore)
}

func (e *ValidationError) Unwrap() error {
	return ErrScoreOutOfRange
}

// IsValidationError reports whether err carries a score validation failure.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
