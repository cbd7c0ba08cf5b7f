package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelay_DoublesAndCaps(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 60 * time.Second}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second}
	for i, w := range want {
		if got := p.Delay(i); got != w {
			t.Fatalf("delay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), nil, func(int) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return !errors.Is(err, permanent) }, func(int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if errors.Is(err, ErrExhausted) {
		t.Fatalf("non-retryable error must not be reported as exhaustion")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_Exhausted(t *testing.T) {
	flaky := errors.New("flaky")
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := p.Do(context.Background(), nil, func(int) error { return flaky })
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, flaky) {
		t.Fatalf("expected exhaustion wrapping last error, got %v", err)
	}
}

func TestDo_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour}
	err := p.Do(ctx, nil, func(int) error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
