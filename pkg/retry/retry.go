package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts bounds failed attempts (0 means unlimited)
	MaxAttempts int
	// Backoff is used for network and server failures
	Backoff BackoffStrategy
	// RateLimitBackoff is used for throttling errors without a RetryAfter hint
	RateLimitBackoff BackoffStrategy
	// AbsorbRateLimits makes throttling errors wait without counting toward MaxAttempts
	AbsorbRateLimits bool
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep replaces Wait, mainly in tests
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:      3,
		Backoff:          DefaultExponentialBackoff(),
		RateLimitBackoff: &ConstantBackoff{Delay: time.Minute},
		RetryIf:          DefaultRetryIf,
		Sleep:            Wait,
		Logger:           logger.NewNopLogger(),
	}
}

// DefaultRetryIf retries network, throttling and server errors
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}
	return false
}

// Do executes an operation with retry logic
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Wait
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	failures := 0
	throttles := 0
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) {
			return err
		}

		var delay time.Duration
		throttled := errs.Is(err, errs.ErrorTypeRateLimit)
		if throttled {
			throttles++
			delay = retryAfter(err)
			if delay <= 0 && cfg.RateLimitBackoff != nil {
				delay = cfg.RateLimitBackoff.NextDelay(throttles)
			}
		}
		if !throttled || !cfg.AbsorbRateLimits {
			failures++
			if cfg.MaxAttempts > 0 && failures >= cfg.MaxAttempts {
				log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   failures,
					"last_error": err.Error(),
				})
				return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
			}
			if !throttled && cfg.Backoff != nil {
				delay = cfg.Backoff.NextDelay(failures)
			}
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, cfg *Config, op OperationWithResult[T]) (T, error) {
	var result T

	err := Do(ctx, cfg, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})

	return result, err
}

func retryAfter(err error) time.Duration {
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}
