// internal/debate/retry_test.go
package debate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foresight/internal/llm"
)

// countingSleep records requested waits instead of serving them.
func countingSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func testPolicy(waits *[]time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseWait:    5 * time.Second,
		OtherWait:   2 * time.Second,
		sleep:       countingSleep(waits),
	}
}

func TestRetryRateLimitedThenSuccess(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(&waits)

	calls := 0
	out, err := p.Do(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", llm.ErrRateLimited
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 2, calls)
	// Exactly one wait-then-retry between attempt 1 and attempt 2.
	require.Len(t, waits, 1)
	assert.Equal(t, 5*time.Second, waits[0])
}

func TestRetryRateLimitedExhaustion(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(&waits)

	calls := 0
	_, err := p.Do(context.Background(), func() (string, error) {
		calls++
		return "", llm.ErrRateLimited
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrRateLimited)
	assert.Equal(t, 3, calls)
	// Waits grow linearly: 5s after attempt 1, 10s after attempt 2, none
	// after the final attempt.
	require.Len(t, waits, 2)
	assert.Equal(t, 5*time.Second, waits[0])
	assert.Equal(t, 10*time.Second, waits[1])
}

func TestRetryOtherFailureGetsOneRetry(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(&waits)

	calls := 0
	_, err := p.Do(context.Background(), func() (string, error) {
		calls++
		return "", llm.ErrUnavailable
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.Equal(t, 2, calls, "non-rate-limit failures get exactly one retry")
	require.Len(t, waits, 1)
	assert.Equal(t, 2*time.Second, waits[0])
}

func TestRetryOtherThenRateLimited(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(&waits)

	calls := 0
	_, err := p.Do(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", llm.ErrUnavailable
		}
		return "", llm.ErrRateLimited
	})

	require.Error(t, err)
	// The single other-failure retry is spent; rate limiting may still use
	// the remaining attempt budget.
	assert.Equal(t, 3, calls)
	require.Len(t, waits, 2)
}

func TestRetrySuccessFirstTry(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(&waits)

	out, err := p.Do(context.Background(), func() (string, error) {
		return "immediate", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "immediate", out)
	assert.Empty(t, waits)
}

func TestRetryContextCancelledDuringWait(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseWait:    time.Hour,
		OtherWait:   time.Hour,
		sleep:       sleepCtx,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Do(ctx, func() (string, error) {
		return "", llm.ErrRateLimited
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryNonTaxonomyError(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(&waits)

	boom := errors.New("boom")
	_, err := p.Do(context.Background(), func() (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}
