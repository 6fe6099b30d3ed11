package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"taskflow/internal/errs"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Error(t *testing.T) {
	err := errs.NewValidation("title", "must not be empty")
	assert.Equal(t, "[VALIDATION_ERROR] invalid value for field 'title': must not be empty", err.Error())
	assert.Equal(t, "title", err.Details["field"])

	wrapped := errs.Wrap(errs.CodeVersionConflict, "update failed", errors.New("stale"))
	assert.Contains(t, wrapped.Error(), "stale")
}

func TestIs_ThroughWrapping(t *testing.T) {
	base := errs.NewNotFound("reminder", "42")
	err := fmt.Errorf("mark sent: %w", base)

	assert.True(t, errs.IsNotFound(err))
	assert.False(t, errs.IsValidation(err))
	assert.False(t, errs.IsNotFound(errors.New("plain")))
}

func TestTenantMismatch_IsDistinct(t *testing.T) {
	err := errs.NewTenantMismatch("task", "abc")
	assert.True(t, errs.IsTenantMismatch(err))
	assert.True(t, errs.IsInvalidOperation(err))
	assert.False(t, errs.IsTenantMismatch(errs.NewInvalidOperation("toggle important", "subtask")))
}
