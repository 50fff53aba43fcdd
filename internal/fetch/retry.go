package fetch

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the Sleeper used outside tests.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry executes fn until it succeeds, fails with a non-retryable error or
// the policy runs out of attempts. fn receives the 1-based attempt number.
// onRetry, when set, is called before each sleep.
//
// It returns the number of attempts made. A spent policy yields an
// *ExhaustedError wrapping the last failure.
func Retry(
	ctx context.Context,
	policy RetryPolicy,
	sleep Sleeper,
	fn func(attempt int) error,
	onRetry func(attempt int, delay time.Duration, err error),
) (int, error) {
	p := policy.normalized()
	if sleep == nil {
		sleep = SleepContext
	}

	delay := min(p.InitialDelay, p.MaxDelay)
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		if !p.Retryable(err) {
			return attempt, err
		}
		if attempt >= p.MaxRetries {
			return attempt, &ExhaustedError{Attempts: attempt, Err: err}
		}

		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return attempt, err
		}
		delay = p.next(delay)
	}
}
