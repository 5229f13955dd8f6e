package retry

import (
	"context"
	"errors"
	"time"

	"aws-sqs-messaging-template/internal/pkg/logger"
)

// Do calls fn up to attempts times, waiting delay between failures.
// T is the return type (e.g. a queue url, a message batch).
// An error wrapped in Permanent stops the loop and is returned unwrapped.
func Do[T any](ctx context.Context, attempts int, delay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		var perm *Permanent
		if errors.As(err, &perm) {
			return zero, perm.Err
		}
		lastErr = err
		logger.WarnCtx(ctx, "retry attempt %d/%d failed: %v", i+1, attempts, err)

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}

// Permanent marks an error that must not be retried.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }
