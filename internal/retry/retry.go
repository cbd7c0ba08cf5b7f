package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes bounded exponential backoff. The same policy type is
// shared by the HTTP fetcher and the outline tree walker.
type Policy struct {
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// Multiplier grows the delay per attempt. Values below 1 mean 2.
	Multiplier float64
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
}

// Default is used by the fetcher for transient network failures.
var Default = Policy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Second}

// RateLimited is the backoff applied to HTTP 429 responses from the outline API.
var RateLimited = Policy{MaxAttempts: 10, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 60 * time.Second}

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Attempts returns the effective attempt count.
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait after the given failed attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt < 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, the error is not retryable, attempts run out,
// or ctx is done. On exhaustion the returned error wraps both ErrExhausted and
// the last error from fn.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(attempt int) error) error {
	attempts := p.Attempts()
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if err := Sleep(ctx, p.Delay(i)); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: attempts, Last: lastErr}
}

// ExhaustedError reports the final failure after all attempts.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return ErrExhausted.Error()
	}
	return ErrExhausted.Error() + ": " + e.Last.Error()
}

func (e *ExhaustedError) Unwrap() []error { return []error{ErrExhausted, e.Last} }

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
