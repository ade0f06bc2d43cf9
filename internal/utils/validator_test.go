package utils_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

type sampleEntry struct {
	StudentID string `json:"studentId" validate:"required"`
}

type sampleRequest struct {
	Entries []sampleEntry `json:"entries" validate:"required,min=1,dive"`
}

func TestNewValidatorReportsJSONNames(t *testing.T) {
	err := utils.NewValidator().Struct(sampleRequest{Entries: []sampleEntry{{}}})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	require.Equal(t, "sampleRequest.entries[0].studentId", validationErrors[0].Namespace())
}
