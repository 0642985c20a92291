package coordinator

import (
	"context"
	"time"
)

// RetryPolicy bounds retries of idempotent provider calls.
type RetryPolicy struct {
	Attempts int           // total tries, at least 1
	Backoff  time.Duration // delay before the second try, doubled after each failure
}

// DefaultRetryPolicy is used unless WithRetry overrides it.
var DefaultRetryPolicy = RetryPolicy{Attempts: 4, Backoff: 250 * time.Millisecond}

// do calls fn until it succeeds, the attempts run out, or ctx is done.
// It returns the last error.
func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Backoff

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
