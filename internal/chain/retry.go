package chain

import (
	"context"
	"time"

	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// RetryConfig configures bounded retry behavior. Every retry loop in the
// client is bounded: worst-case wait is MaxAttempts × Delay.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	Delay       time.Duration // Fixed delay between attempts
}

// DefaultRetryConfig returns the default retry configuration:
// 3 attempts with a 1s fixed delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Second,
	}
}

// Retry executes the operation with the default retry configuration.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig executes the operation until it succeeds, returns a fatal
// error, or the attempt budget is exhausted. Only errors classified as
// transient are retried; everything else propagates immediately.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if !tperr.IsTransient(err) {
			return result, err
		}

		// Don't delay after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			timer := time.NewTimer(cfg.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return result, tperr.Wrap(err, "operation failed after %d attempts", cfg.MaxAttempts)
}
