package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading booking: %w", NewNotFoundError("Booking", "42"))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindInvalidState, KindOf(NewInvalidStateError("Completed", "Cancelled")))
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewInvalidStateErrorf("NO_PENDING_CANCELLATION", "no cancellation request found"))

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDependencyErrorUnwraps(t *testing.T) {
	cause := errors.New("vehicle row locked")
	err := NewDependencyError("failed to update vehicle availability", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindDependencyFailure, KindOf(err))
	assert.Contains(t, err.Error(), "vehicle row locked")
}
