package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoffInvalidAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoffFirstTrySuccess(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	}, 3, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffEventualSuccess(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 5, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffExhaustion(t *testing.T) {
	lastErr := errors.New("persistent failure")
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return lastErr
	}, 3, time.Millisecond)
	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return errors.New("should not matter")
	}, 3, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}
