package mcp

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// delay computes the per-attempt delay for attempt k (1-indexed) per the
// schedule named in §4.E, then clamps to [0, MaxDelay]. Jitter is drawn
// uniformly from [-Jitter*raw, +Jitter*raw] using the supplied rng so that
// callers can make the schedule deterministic in tests.
func (p RetryPolicy) delay(attempt int, rng *rand.Rand) time.Duration {
	var raw time.Duration
	switch p.Backoff {
	case BackoffConstant:
		raw = p.BaseDelay
	case BackoffLinear:
		raw = p.BaseDelay * time.Duration(attempt)
	case BackoffExponential:
		raw = time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	case BackoffCustom:
		if p.CustomDelay != nil {
			raw = p.CustomDelay(attempt)
		}
	}

	if p.Jitter > 0 && rng != nil {
		spread := float64(raw) * p.Jitter
		raw += time.Duration((rng.Float64()*2 - 1) * spread)
	}

	if raw < 0 {
		raw = 0
	}
	if p.MaxDelay > 0 && raw > p.MaxDelay {
		raw = p.MaxDelay
	}
	return raw
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// WithRetry runs op, retrying per the policy's schedule on failure, up to
// MaxAttempts. The final failure is wrapped with the attempt count and op
// name (§4.E). Context cancellation aborts immediately, propagating the
// context error rather than wrapping it.
func WithRetry(ctx context.Context, name string, p RetryPolicy, op func(ctx context.Context) error) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == p.maxAttempts() {
			break
		}

		d := p.delay(attempt, rng)
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return errOperationFailed(fmt.Sprintf("%s failed after %d attempts: %v", name, p.maxAttempts(), lastErr))
}
