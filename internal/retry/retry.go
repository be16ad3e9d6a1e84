// Package retry runs an operation again when it fails with an error the
// caller classifies as transient.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy defines how retries should be handled.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool
	// ShouldRetry classifies an error; nil retries nothing.
	ShouldRetry func(error) bool
}

// Immediate retries up to n times without waiting, for conflicts that are
// resolved by changing the input rather than by time passing.
func Immediate(n int, shouldRetry func(error) bool) Policy {
	return Policy{MaxRetries: n, ShouldRetry: shouldRetry}
}

// Backoff returns an exponential policy suited to network calls.
func Backoff(n int, shouldRetry func(error) bool) Policy {
	return Policy{
		MaxRetries:     n,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
		ShouldRetry:    shouldRetry,
	}
}

// Do calls fn with the zero-based attempt number until it succeeds, returns
// a non-retryable error, or the policy is exhausted.
func Do(ctx context.Context, policy Policy, fn func(attempt int) error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if policy.ShouldRetry == nil || !policy.ShouldRetry(err) {
			return err
		}
		if attempt == policy.MaxRetries {
			break
		}

		backoff := calculateBackoff(policy, attempt)
		if backoff <= 0 {
			if ctx.Err() != nil {
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			}
			continue
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retries exceeded (%d): %w", policy.MaxRetries, lastErr)
}

func calculateBackoff(policy Policy, attempt int) time.Duration {
	if policy.InitialBackoff <= 0 {
		return 0
	}
	factor := policy.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	backoff := float64(policy.InitialBackoff) * math.Pow(factor, float64(attempt))
	if policy.MaxBackoff > 0 && backoff > float64(policy.MaxBackoff) {
		backoff = float64(policy.MaxBackoff)
	}

	duration := time.Duration(backoff)
	if policy.Jitter {
		// +/-10%
		duration += time.Duration(float64(duration) * 0.1 * (2*rand.Float64() - 1))
	}
	return duration
}
