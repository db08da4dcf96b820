package mcp

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestRetryPolicyDelayShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	constant := RetryPolicy{BaseDelay: 100 * time.Millisecond, Backoff: BackoffConstant}
	if d := constant.delay(1, nil); d != 100*time.Millisecond {
		t.Errorf("constant delay(1) = %v, want 100ms", d)
	}
	if d := constant.delay(5, nil); d != 100*time.Millisecond {
		t.Errorf("constant delay(5) = %v, want 100ms", d)
	}

	linear := RetryPolicy{BaseDelay: 100 * time.Millisecond, Backoff: BackoffLinear}
	if d := linear.delay(3, nil); d != 300*time.Millisecond {
		t.Errorf("linear delay(3) = %v, want 300ms", d)
	}

	exponential := RetryPolicy{BaseDelay: 100 * time.Millisecond, Backoff: BackoffExponential}
	if d := exponential.delay(1, nil); d != 100*time.Millisecond {
		t.Errorf("exponential delay(1) = %v, want 100ms", d)
	}
	if d := exponential.delay(3, nil); d != 400*time.Millisecond {
		t.Errorf("exponential delay(3) = %v, want 400ms", d)
	}

	custom := RetryPolicy{Backoff: BackoffCustom, CustomDelay: func(attempt int) time.Duration {
		return time.Duration(attempt) * time.Second
	}}
	if d := custom.delay(4, nil); d != 4*time.Second {
		t.Errorf("custom delay(4) = %v, want 4s", d)
	}

	_ = rng
}

func TestRetryPolicyDelayClampsToMaxDelay(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, Backoff: BackoffExponential, MaxDelay: 2 * time.Second}
	if d := p.delay(10, nil); d != 2*time.Second {
		t.Errorf("delay(10) = %v, want clamped to 2s", d)
	}
}

func TestRetryPolicyJitterStaysWithinSpread(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, Backoff: BackoffConstant, Jitter: 0.5}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		d := p.delay(1, rng)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Errorf("jittered delay %v outside [0.5s, 1.5s]", d)
		}
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), "op", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Backoff: BackoffConstant}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), "op", RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Backoff: BackoffConstant}, func(ctx context.Context) error {
		attempts++
		return errors.New("always fails")
	})
	if err == nil {
		t.Fatal("WithRetry should fail once attempts are exhausted")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestWithRetryStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := WithRetry(ctx, "op", RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Backoff: BackoffConstant}, func(ctx context.Context) error {
		attempts++
		return errors.New("fails")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 (cancelled before first attempt)", attempts)
	}
}
