package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("selected_answer", "must be one of A, B, C, D", "E")

	assert.Equal(t, "selected_answer", err.Field)
	assert.Equal(t, "E", err.Value)
	assert.Equal(t, "selected_answer: must be one of A, B, C, D", err.Error())
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("question_id", "is required", nil))
	assert.Equal(t, "validation failed: question_id is required", errs.Error())

	errs = append(errs, *NewValidationError("time_spent_sec", "must be at least 0", nil))
	assert.Equal(t, "validation failed: question_id is required; time_spent_sec must be at least 0", errs.Error())
}

func TestToValidationErrors(t *testing.T) {
	type pauseRequest struct {
		TimeRemainingSec int    `validate:"min=0"`
		Reason           string `validate:"omitempty,oneof=break network"`
	}

	err := validator.New().Struct(pauseRequest{TimeRemainingSec: -5, Reason: "lunch"})
	require.Error(t, err)

	errs := ToValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "TimeRemainingSec", errs[0].Field)
	assert.Equal(t, "min", errs[0].Rule)
	assert.Equal(t, "must be at least 0", errs[0].Message)
	assert.Equal(t, "must be one of: break network", errs[1].Message)
}

func TestToValidationErrors_PassThrough(t *testing.T) {
	own := ValidationErrors{{Field: "file", Message: "is required"}}
	assert.Equal(t, own, ToValidationErrors(own))
	assert.Equal(t, own, ToValidationErrors(fmt.Errorf("import: %w", own)))

	assert.Nil(t, ToValidationErrors(fmt.Errorf("connection reset")))
}
