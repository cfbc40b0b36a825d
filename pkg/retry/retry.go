package retry

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxAttempts = 5
	BackoffCoefficient = 2
	InitialBackoff     = 100 * time.Millisecond
)

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }

func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// Retry calls f until it succeeds, returns a Permanent error, or maxAttempts is reached,
// sleeping with exponential backoff between attempts.
func Retry(ctx context.Context, f func() error, maxAttempts int) error {
	_, err := Value(ctx, func() (struct{}, error) {
		return struct{}{}, f()
	}, maxAttempts)

	return err
}

// Value is Retry for functions producing a result. The result of the last attempt is returned.
func Value[T any](ctx context.Context, f func() (T, error), maxAttempts int) (T, error) {
	backoff := InitialBackoff

	for attempt := 1; ; attempt++ {
		result, err := f()
		if err == nil {
			return result, nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return result, permanent.err
		}

		if attempt >= maxAttempts {
			return result, err
		}

		timer := time.NewTimer(backoff)

		select {
		case <-ctx.Done():
			timer.Stop()

			return result, ctx.Err()
		case <-timer.C:
			backoff *= BackoffCoefficient
		}
	}
}
