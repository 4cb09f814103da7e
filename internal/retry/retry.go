// Package retry runs an operation a bounded number of times with a
// context-aware sleep between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/outreach/internal/logger"
)

// Policy bounds a retry loop.
type Policy struct {
	// Attempts is the total number of calls, including the first. Values
	// below 1 are treated as 1.
	Attempts int
	// Delay is the wait after the first failed attempt.
	Delay time.Duration
	// Multiplier scales Delay after each further failure. 0 and 1 both
	// mean a fixed delay.
	Multiplier float64
	// MaxDelay caps the computed wait. A retry-after hint longer than
	// MaxDelay ends the loop with an ExhaustedError instead of waiting.
	// 0 means no cap.
	MaxDelay time.Duration
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if p.Delay <= 0 || attempt < 1 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(p.Delay)
	for i := 1; i < attempt; i++ {
		wait *= mult
		if p.MaxDelay > 0 && wait >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	d := time.Duration(wait)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// RetryAfterHint is implemented by errors that know how long the caller
// should wait before trying again (e.g. an HTTP Retry-After header).
type RetryAfterHint interface {
	RetryAfterHint() time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error
// unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ExhaustedError is returned by Do when every attempt failed, or when a
// failure asked for a longer wait than the policy allows.
type ExhaustedError struct {
	Attempts int // attempts actually made
	Err      error // last failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, returns a Permanent error, the context is
// done, or the policy's attempts are used up. attempt is 1-based.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		wait := p.Backoff(attempt)
		var hinted RetryAfterHint
		if errors.As(err, &hinted) {
			h := hinted.RetryAfterHint()
			if p.MaxDelay > 0 && h > p.MaxDelay {
				logger.Debug("retry-after hint exceeds max delay, giving up",
					"attempt", attempt,
					"hint", h,
					"max_delay", p.MaxDelay,
					"error", err)
				return &ExhaustedError{Attempts: attempt, Err: lastErr}
			}
			if h > wait {
				wait = h
			}
		}

		logger.Debug("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"wait", wait,
			"error", err)

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
