package embeddings

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy configures exponential backoff for provider calls.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts, including the first.
	BaseDelay   time.Duration // Delay before the first retry.
	Multiplier  float64       // Growth factor for subsequent delays.
	MaxDelay    time.Duration // Upper bound on a single delay.
}

// DefaultRetryPolicy returns the default backoff configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    8 * time.Second,
	}
}

// Do executes fn with exponential backoff. Transient failures are retried
// up to MaxAttempts; a PermanentError or a cancelled context stops the
// loop immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) || attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	if IsPermanent(lastErr) {
		return lastErr
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
