package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("insert failed: %w", apperrors.ErrDuplicate)
	appErr := apperrors.NewAppError(409, "failed to save transaction", cause)

	assert.ErrorIs(t, appErr, apperrors.ErrDuplicate)
	assert.Equal(t, "failed to save transaction: insert failed: resource already exists", appErr.Error())

	bare := apperrors.NewAppError(500, "boom", nil)
	assert.Equal(t, "boom", bare.Error())
}

func TestIsDefinitive(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"validation", fmt.Errorf("title: %w", apperrors.ErrValidation), true},
		{"invalid transition", apperrors.ErrInvalidTransition, true},
		{"concurrent modification", apperrors.ErrConcurrentModification, true},
		{"store unavailable", fmt.Errorf("ping: %w", apperrors.ErrStoreUnavailable), false},
		{"wrapped in app error", apperrors.NewAppError(503, "db down", apperrors.ErrStoreUnavailable), false},
		{"unknown", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.IsDefinitive(tt.err))
		})
	}
}
