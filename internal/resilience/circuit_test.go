package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func failing(context.Context) (int, error) { return 0, errors.New("fail") }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "tmdb", FailureThreshold: 2, ResetTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, _ = ExecuteVal(context.Background(), cb, failing)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		t.Error("should not be called while open")
		return 0, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	_, _ = ExecuteVal(context.Background(), cb, failing)
	_, _ = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 1, nil })
	_, _ = ExecuteVal(context.Background(), cb, failing)

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.nowFunc = func() time.Time { return now }

	_, _ = ExecuteVal(context.Background(), cb, failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	now = now.Add(2 * time.Second)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}

	v, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("trial call failed: %d %v", v, err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after trial call, got %s", cb.State())
	}
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.nowFunc = func() time.Time { return now }

	_, _ = ExecuteVal(context.Background(), cb, failing)
	now = now.Add(2 * time.Second)
	_, _ = ExecuteVal(context.Background(), cb, failing)

	if cb.State() != CircuitOpen {
		t.Errorf("expected reopened, got %s", cb.State())
	}
}

func TestCircuitBreaker_IgnoresCancelledCalls(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	cancelled := func(context.Context) (int, error) {
		return 0, fmt.Errorf("lookup: %w", context.Canceled)
	}

	for i := 0; i < 5; i++ {
		_, _ = ExecuteVal(context.Background(), cb, cancelled)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed, got %s", cb.State())
	}

	// Cancellations do not add to the failure count either.
	_, _ = ExecuteVal(context.Background(), cb, failing)
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after one real failure, got %s", cb.State())
	}

	_, _ = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 0, context.DeadlineExceeded
	})
	if cb.State() != CircuitOpen {
		t.Errorf("timeouts still count, expected open, got %s", cb.State())
	}
}

func TestCircuitBreaker_CancelledTrialFreesSlot(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.nowFunc = func() time.Time { return now }

	_, _ = ExecuteVal(context.Background(), cb, failing)
	now = now.Add(2 * time.Second)
	_, _ = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 0, context.Canceled })

	v, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 3, nil })
	if err != nil || v != 3 {
		t.Fatalf("expected the next trial call to run, got %d %v", v, err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitState_String(t *testing.T) {
	if CircuitState(9).String() != "unknown" {
		t.Error("expected unknown")
	}
}
