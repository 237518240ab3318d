package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrForbidden,
		ErrUnavailable,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		id          string
		expectedMsg string
	}{
		{
			name:        "with entity and ID",
			entity:      "quote",
			id:          "123",
			expectedMsg: `quote with id "123" not found`,
		},
		{
			name:        "with entity only",
			entity:      "quote",
			id:          "",
			expectedMsg: "quote not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, tt.id)

			require.Error(t, err)
			assert.Equal(t, tt.expectedMsg, err.Error())
			assert.ErrorIs(t, err, ErrNotFound)
			assert.True(t, IsNotFound(err))

			var nfe *NotFoundError
			require.ErrorAs(t, err, &nfe)
			assert.Equal(t, tt.entity, nfe.Entity)
			assert.Equal(t, tt.id, nfe.ID)
		})
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("quote", "duplicate id")

	require.Error(t, err)
	assert.Equal(t, "quote conflict: duplicate id", err.Error())
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, IsConflict(err))
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		message     string
		expectedMsg string
	}{
		{
			name:        "with field",
			field:       "author",
			message:     "must not be empty",
			expectedMsg: "validation failed for author: must not be empty",
		},
		{
			name:        "without field",
			field:       "",
			message:     "invalid payload",
			expectedMsg: "validation failed: invalid payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			require.Error(t, err)
			assert.Equal(t, tt.expectedMsg, err.Error())
			assert.ErrorIs(t, err, ErrValidation)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestForbiddenError(t *testing.T) {
	err := NewForbiddenError("reset", "admin role required")

	require.Error(t, err)
	assert.Equal(t, `operation "reset" forbidden: admin role required`, err.Error())
	assert.True(t, IsForbidden(err))

	err = NewForbiddenError("reset", "")
	assert.Equal(t, `operation "reset" forbidden`, err.Error())
}

func TestUnavailableError(t *testing.T) {
	err := NewUnavailableError("quotable", "connection refused")

	require.Error(t, err)
	assert.Equal(t, `service "quotable" unavailable: connection refused`, err.Error())
	assert.True(t, IsUnavailable(err))

	err = NewUnavailableError("quotable", "")
	assert.Equal(t, `service "quotable" unavailable`, err.Error())
}

func TestErrorWrapping_SurvivesFmtErrorf(t *testing.T) {
	inner := NewNotFoundError("quote", "abc")
	wrapped := fmt.Errorf("getting quote: %w", inner)

	assert.True(t, IsNotFound(wrapped))

	var nfe *NotFoundError
	require.True(t, errors.As(wrapped, &nfe))
	assert.Equal(t, "abc", nfe.ID)
}

func TestIsHelpers_FalseForOtherErrors(t *testing.T) {
	err := errors.New("plain error")

	assert.False(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsForbidden(err))
	assert.False(t, IsUnavailable(err))
	assert.False(t, IsNotFound(nil))
}
