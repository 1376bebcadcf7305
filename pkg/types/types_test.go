package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFinished(t *testing.T) {
	tests := []struct {
		status   Status
		finished bool
	}{
		{StatusStarted, false},
		{StatusUpdated, false},
		{StatusDone, true},
		{StatusCancelled, true},
		{StatusFailed, true},
		{StatusPartialSuccess, true},
		{StatusUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.finished, tt.status.Finished())
		})
	}
}

func TestTaskIDStringRoundTrip(t *testing.T) {
	id := NewTaskID()

	parsed, err := ParseTaskID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseTaskID("not-a-uuid")
	assert.Error(t, err)
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "BGTASK/EXECUTE/CANCELED", CancelledErrorCode().String())
	assert.Equal(t, "BGTASK/EXECUTE/INTERNAL_ERROR", InternalErrorCode().String())
}

func TestBgtaskErrorCarriesCode(t *testing.T) {
	err := NewBgtaskError(ErrorDetailInternalError, "boom %d", 7)

	var coded CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, InternalErrorCode(), coded.ErrorCode())
	assert.Contains(t, err.Error(), "boom 7")

	// Codes survive wrapping.
	wrapped := fmt.Errorf("outer: %w", err)
	require.True(t, errors.As(wrapped, &coded))
	assert.Equal(t, InternalErrorCode(), coded.ErrorCode())
}
