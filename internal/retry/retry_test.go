package retry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/logging"
)

func commErr() error {
	return &domain.CommError{
		Endpoint: domain.Endpoint{Host: "127.0.0.1", Port: 55555},
		Op:       "get",
		Err:      errors.New("connection refused"),
	}
}

func TestDo_RetriesOnCommunicationError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, IsRetryable, func() error {
		attempts++
		return commErr()
	})

	if !errors.Is(err, domain.ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_NoRetryOnNonRetryable(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, IsRetryable, func() error {
		attempts++
		return &domain.BrokerError{Path: "Vehicle.Speed", Code: 403}
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoValue_FailuresBelowBound(t *testing.T) {
	const bound = 4
	for failures := 0; failures <= bound+1; failures++ {
		calls := 0
		got, err := DoValue(context.Background(), Config{MaxAttempts: bound}, IsRetryable, func() (float64, error) {
			calls++
			if calls <= failures {
				return 0, commErr()
			}
			return 42, nil
		})

		if failures < bound {
			if err != nil || got != 42 {
				t.Errorf("failures=%d: got (%v, %v), want (42, nil)", failures, got, err)
			}
			continue
		}
		if !errors.Is(err, domain.ErrCommunication) {
			t.Errorf("failures=%d: expected communication error, got %v", failures, err)
		}
		if calls != bound {
			t.Errorf("failures=%d: expected %d calls, got %d", failures, bound, calls)
		}
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Config{MaxAttempts: 3}, IsRetryable, func() error {
		attempts++
		return commErr()
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", attempts)
	}
}

func TestDo_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Hour, NoJitter: true}
	cfg.OnRetry = func(int, time.Duration, error) { cancel() }

	err := Do(ctx, cfg, IsRetryable, commErr)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDo_LogsEachRetry(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{MaxAttempts: 3, Logger: logging.New("warn", logging.WithWriter(&buf))}

	var delays []time.Duration
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { delays = append(delays, d) }

	_ = Do(context.Background(), cfg, IsRetryable, commErr)

	if n := strings.Count(buf.String(), "retrying after error"); n != 2 {
		t.Errorf("expected 2 retry warnings, got %d:\n%s", n, buf.String())
	}
	if len(delays) != 2 {
		t.Errorf("expected OnRetry twice, got %d", len(delays))
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(commErr()) {
		t.Error("communication error should be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Error("cancellation should not be retryable")
	}
	if IsRetryable(domain.ErrInvalidAddress) {
		t.Error("configuration errors should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
}

func TestBackoffDelay_NoBaseDelay(t *testing.T) {
	if delay := backoffDelay(0, time.Second, 4, 1); delay != 0 {
		t.Fatalf("expected zero delay, got %v", delay)
	}
}

func TestBackoffDelay_Exponential(t *testing.T) {
	base := 100 * time.Millisecond
	want := []time.Duration{
		100 * time.Millisecond,
		400 * time.Millisecond,
		1600 * time.Millisecond,
		5 * time.Second, // capped
	}
	for i, w := range want {
		if got := backoffDelay(base, 5*time.Second, 4, i+1); got != w {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestConfigDelay_JitterBounded(t *testing.T) {
	cfg := Config{BaseDelay: 10 * time.Millisecond, Factor: 4}
	for i := 0; i < 50; i++ {
		if d := cfg.delay(2); d < 0 || d > 40*time.Millisecond {
			t.Fatalf("jittered delay %v out of range", d)
		}
	}
}
