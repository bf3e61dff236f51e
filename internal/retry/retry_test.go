package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("transaction conflict")

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, func() error {
		called++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestDo_SucceedsAfterConflicts(t *testing.T) {
	var retries []int
	cfg := Config{
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
		OnRetry: func(attempt int, err error, _ time.Duration) {
			assert.ErrorIs(t, err, errConflict)
			retries = append(retries, attempt)
		},
	}

	called := 0
	err := Do(context.Background(), cfg, func() error {
		called++
		if called < 3 {
			return errConflict
		}
		return nil
	}, func(err error) bool { return errors.Is(err, errConflict) })

	require.NoError(t, err)
	assert.Equal(t, 3, called)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_Exhausted(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, func() error {
		called++
		return errConflict
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, called)
	assert.ErrorIs(t, err, errConflict)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestDo_NonRetryable(t *testing.T) {
	fatal := errors.New("constraint violated")

	called := 0
	err := Do(context.Background(), Config{MaxRetries: 5, InitialBackoff: time.Millisecond}, func() error {
		called++
		if called == 2 {
			return fatal
		}
		return errConflict
	}, func(err error) bool { return errors.Is(err, errConflict) })

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, called)
}

func TestDo_ZeroRetriesRunsOnce(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{}, func() error {
		called++
		return errConflict
	}, nil)

	require.ErrorIs(t, err, errConflict)
	assert.Equal(t, 1, called)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := 0
	err := Do(ctx, Config{MaxRetries: 10, InitialBackoff: 50 * time.Millisecond}, func() error {
		called++
		if called == 2 {
			cancel()
		}
		return errConflict
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, called, 3)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, MaxRetries: 5}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
		{5, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(cfg, tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestCalculateBackoff_Jitter(t *testing.T) {
	cfg := Config{InitialBackoff: 100 * time.Millisecond, MaxRetries: 5, Jitter: 0.5}

	// 200ms base plus 200ms * 0.5 * 2/5.
	assert.Equal(t, 240*time.Millisecond, calculateBackoff(cfg, 2))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.MaxBackoff)
}
