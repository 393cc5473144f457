package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"nathanbeddoewebdev/vssplot/internal/domain"
)

// Predicate determines whether an error should be retried.
type Predicate func(error) bool

// Config controls retry behavior.
type Config struct {
	// MaxAttempts bounds the total number of calls, including the first.
	MaxAttempts int
	BaseDelay   time.Duration
	// Factor multiplies the delay after each failed attempt. Values below 1
	// are treated as 2.
	Factor   float64
	MaxDelay time.Duration
	// NoJitter disables full jitter so delays are exactly exponential.
	NoJitter bool

	// Logger receives one warning per retry. Nil disables logging.
	Logger *slog.Logger
	// OnRetry, if set, is called before sleeping for each retry.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   250 * time.Millisecond,
		Factor:      4,
		MaxDelay:    10 * time.Second,
	}
}

// Do executes fn with retries using the provided config.
func Do(ctx context.Context, config Config, shouldRetry Predicate, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}

	var err error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}
		if attempt == config.MaxAttempts || !shouldRetry(err) {
			return err
		}

		delay := config.delay(attempt)
		if config.Logger != nil {
			config.Logger.Warn("retrying after error",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", config.MaxAttempts),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt, delay, err)
		}
		if delay <= 0 {
			continue
		}
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}

	return err
}

// DoValue is Do for functions that produce a value.
func DoValue[T any](ctx context.Context, config Config, shouldRetry Predicate, fn func() (T, error)) (T, error) {
	var out T
	err := Do(ctx, config, shouldRetry, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// IsRetryable reports whether err is a transient broker communication
// failure. Cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, domain.ErrCommunication)
}

func (c Config) delay(attempt int) time.Duration {
	d := backoffDelay(c.BaseDelay, c.MaxDelay, c.Factor, attempt)
	if c.NoJitter || d <= 0 {
		return d
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

func backoffDelay(base, max time.Duration, factor float64, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if factor < 1 {
		factor = 2
	}

	delay := float64(base) * math.Pow(factor, float64(attempt-1))
	if max > 0 && delay > float64(max) {
		return max
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

func sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
