package balances

import (
	"context"
	"math/rand"
	"time"
)

// Default retry policy values.
const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = 1 * time.Second
	DefaultMaxDelay       = 30 * time.Second
	DefaultJitterFraction = 0.25
)

// RetryPolicy describes the backoff schedule for transient failures.
// Delay is a pure function of (attempt, policy) so the schedule can be
// asserted in tests without waiting.
type RetryPolicy struct {
	MaxAttempts    int           // total attempts, including the first
	BaseDelay      time.Duration // delay before the second attempt
	MaxDelay       time.Duration // cap for the exponential growth
	JitterFraction float64       // ±fraction of the delay added as jitter, 0 disables
}

// DefaultRetryPolicy returns the policy the client ships with:
// 3 attempts, 1s base delay doubling per attempt, capped at 30s, ±25% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		MaxDelay:       DefaultMaxDelay,
		JitterFraction: DefaultJitterFraction,
	}
}

// Delay returns the backoff before the given attempt (1-based, so
// Delay(1) = 0: the first attempt is immediate). delay = base × 2^(attempt−2),
// capped at MaxDelay. Jitter is not included; see jittered.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// jittered applies bounded jitter to the base delay for an attempt:
// the result stays within [d×(1−f), d×(1+f)] and never exceeds MaxDelay.
func (p RetryPolicy) jittered(attempt int, rng *rand.Rand) time.Duration {
	d := p.Delay(attempt)
	if d == 0 || p.JitterFraction <= 0 || rng == nil {
		return d
	}
	spread := float64(d) * p.JitterFraction
	d += time.Duration((rng.Float64()*2 - 1) * spread)
	if d < 0 {
		d = 0
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// SleepFunc waits for the given duration or until the context is cancelled.
// Injected into the client so tests never sleep for real.
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleepWithContext is the production SleepFunc.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
