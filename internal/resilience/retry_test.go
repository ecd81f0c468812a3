package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(3), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	var retried []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("unexpected retry callbacks: %v", retried)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	var calls int
	permanent := errors.New("bad request")
	err := Do(context.Background(), fastRetry(5), func(_ context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(2), func(_ context.Context) (string, error) {
		calls++
		return "partial", NewTransientError(errors.New("still down"), 502)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if val != "" {
		t.Errorf("expected zero value, got %q", val)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoVal_ContextCancelledStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := DoVal(ctx, fastRetry(5), func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("timeout"), 504)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestDoVal_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastRetry(3)
	cfg.ShouldRetry = func(error) bool { return true }
	v, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 42, nil
		}
		return 0, errors.New("plain")
	})
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := withDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second})
	if d := backoff(0, cfg); d != time.Second {
		t.Errorf("attempt 0: got %v", d)
	}
	if d := backoff(5, cfg); d != 3*time.Second {
		t.Errorf("attempt 5: got %v", d)
	}
}
