// internal/debate/retry.go
package debate

import (
	"context"
	"errors"
	"time"

	"foresight/internal/llm"
)

// RetryPolicy governs per-turn generation retries. Rate limiting gets up to
// MaxAttempts tries with a linearly growing wait; any other failure gets one
// short-wait retry. The policy blocks in sleep between attempts; exhaustion
// is reported to the caller, who skips the turn rather than aborting the run.
type RetryPolicy struct {
	MaxAttempts int
	BaseWait    time.Duration // wait after attempt n is n * BaseWait
	OtherWait   time.Duration // flat wait before the single non-rate-limit retry

	// sleep is swappable so tests can count waits instead of serving them.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the limits providers actually impose: three
// attempts spaced 5s/10s apart outlasts a per-minute burst window.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseWait:    5 * time.Second,
		OtherWait:   2 * time.Second,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn under the policy and returns its first success. A context error
// during a wait surfaces immediately; anything else returns the last failure
// once attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func() (string, error)) (string, error) {
	if p.sleep == nil {
		p.sleep = sleepCtx
	}

	var lastErr error
	otherRetried := false

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		if errors.Is(err, llm.ErrRateLimited) {
			if err := p.sleep(ctx, time.Duration(attempt)*p.BaseWait); err != nil {
				return "", err
			}
			continue
		}

		// Non-rate-limit failures rarely clear on their own; one short-wait
		// retry covers transient blips without stalling the whole round.
		if otherRetried {
			break
		}
		otherRetried = true
		if err := p.sleep(ctx, p.OtherWait); err != nil {
			return "", err
		}
	}

	return "", lastErr
}
