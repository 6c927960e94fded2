package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRetriesExhausted is returned when every attempt of a Backoff failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Backoff retries remote calls, doubling the wait after each failure up to Max.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff is tuned for the Plaid API.
var DefaultBackoff = Backoff{Attempts: 3, Initial: time.Second, Max: 30 * time.Second}

// Retry calls op until it succeeds or fails with a Permanent error. After
// b.Attempts failures it wraps the last error in ErrRetriesExhausted.
func (b Backoff) Retry(ctx context.Context, op func() error) error {
	attempts := max(b.Attempts, 1)
	for n := 1; ; n++ {
		err := op()
		if !IsRetryable(err) {
			return err
		}
		if n == attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, n, err)
		}

		wait := b.wait(n, err)
		slog.Warn("Remote call failed, retrying", "attempt", n, "attempts", attempts, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// wait is the pause after failed attempt n. Rate limits wait the full Max.
func (b Backoff) wait(n int, err error) time.Duration {
	if errors.Is(err, ErrPlaidRateLimit) {
		return b.Max
	}
	d := b.Initial
	for i := 1; i < n && d < b.Max; i++ {
		d *= 2
	}
	return min(d, b.Max)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Backoff.Retry gives up on it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable reports whether Backoff.Retry would try again after err.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var p *permanentError
	return !errors.As(err, &p)
}
