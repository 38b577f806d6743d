package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func retryableClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func fatalClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func fastConfig() Config {
	return Config{
		RetryMaxAttempts: 3,
		RetryBackoffStep: time.Millisecond,
		BreakerEnabled:   false,
	}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	executor := NewExecutor(fastConfig())

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, retryableClassifier)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	executor := NewExecutor(fastConfig())

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, retryableClassifier)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	executor := NewExecutor(fastConfig())

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errBoom
	}, retryableClassifier)

	if !errors.Is(err, errBoom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteDoesNotRetryFatalErrors(t *testing.T) {
	executor := NewExecutor(fastConfig())

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errBoom
	}, fatalClassifier)

	if !errors.Is(err, errBoom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecuteObservedNotifiesBeforeEachBackoff(t *testing.T) {
	executor := NewExecutor(fastConfig())

	var attempts []int
	var waits []time.Duration
	notify := func(attempt int, wait time.Duration, err error) {
		attempts = append(attempts, attempt)
		waits = append(waits, wait)
		if !errors.Is(err, errBoom) {
			t.Errorf("notify got unexpected error %v", err)
		}
	}

	err := executor.ExecuteObserved(context.Background(), "op", func(context.Context) error {
		return errBoom
	}, retryableClassifier, notify)

	if !errors.Is(err, errBoom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("expected notifications for attempts 1 and 2, got %v", attempts)
	}
	if waits[0] != time.Millisecond || waits[1] != 2*time.Millisecond {
		t.Fatalf("expected linear backoff, got %v", waits)
	}
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	executor := NewExecutor(fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := executor.Execute(ctx, "op", func(context.Context) error {
		calls++
		return errBoom
	}, retryableClassifier)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected 0 calls after cancellation, got %d", calls)
	}
}

func TestExecuteCancelledDuringBackoffReturnsLastError(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryBackoffStep = 50 * time.Millisecond
	executor := NewExecutor(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- executor.Execute(ctx, "op", func(context.Context) error {
			calls++
			return errBoom
		}, retryableClassifier)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected last attempt error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	executor := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryBackoffStep:        time.Millisecond,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	for range 3 {
		_ = executor.Execute(context.Background(), "op", func(context.Context) error {
			return errBoom
		}, fatalClassifier)
	}

	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		return nil
	}, fatalClassifier)

	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestExecuteNilCallback(t *testing.T) {
	executor := NewExecutor(fastConfig())
	if err := executor.Execute(context.Background(), "op", nil, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
