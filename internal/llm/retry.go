package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryConfig controls provider retries. Zero Attempts disables retrying.
type RetryConfig struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig retries transient failures three times with backoff.
var DefaultRetryConfig = RetryConfig{
	Attempts:     3,
	InitialDelay: time.Second,
	MaxDelay:     30 * time.Second,
}

func withRetry(ctx context.Context, cfg RetryConfig, provider string, retryable func(error) bool, op func() error) error {
	if cfg.Attempts <= 1 {
		return op()
	}

	return retry.Do(
		op,
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return retryable(err)
		}),
		retry.Attempts(uint(cfg.Attempts)),
		retry.Delay(cfg.InitialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(cfg.MaxDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("retrying model call", "provider", provider, "attempt", n+1, "max_attempts", cfg.Attempts, "error", err)
		}),
	)
}

// isTransientStatus reports whether an HTTP status is worth retrying.
func isTransientStatus(code int) bool {
	return code == 408 || code == 409 || code == 429 || code >= 500
}

// looksTransient is the fallback for errors without a typed status code.
func looksTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"rate limit",
		"too many requests",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
