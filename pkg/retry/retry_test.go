package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

type flaggedError struct {
	retryable bool
}

func (e *flaggedError) Error() string     { return "flagged" }
func (e *flaggedError) IsRetryable() bool { return e.retryable }

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return fmt.Errorf("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt plus two retries
	assert.Contains(t, err.Error(), "always fails")
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := &Config{MaxRetries: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}
	errCh := make(chan error, 1)
	go func() {
		errCh <- Do(ctx, cfg, func() error {
			calls++
			return fmt.Errorf("failing")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestDoIfRetryable_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		calls++
		return &flaggedError{retryable: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoIfRetryable_RetriesRetryableError(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 2 {
			return &flaggedError{retryable: true}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "explicit retryable", err: &flaggedError{retryable: true}, expected: true},
		{name: "explicit permanent", err: &flaggedError{retryable: false}, expected: false},
		{name: "connection refused", err: fmt.Errorf("dial tcp: connection refused"), expected: true},
		{name: "rate limit", err: fmt.Errorf("429 too many requests"), expected: true},
		{name: "service unavailable", err: fmt.Errorf("503 service unavailable"), expected: true},
		{name: "plain error", err: fmt.Errorf("invalid input"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestApplyJitter(t *testing.T) {
	base := 100 * time.Millisecond

	// Zero jitter factor leaves the delay unchanged.
	assert.Equal(t, base, applyJitter(base, 0))

	// Jittered delay stays within the +/- band.
	for i := 0; i < 100; i++ {
		jittered := applyJitter(base, 0.1)
		assert.GreaterOrEqual(t, jittered, 90*time.Millisecond)
		assert.LessOrEqual(t, jittered, 110*time.Millisecond)
	}
}
