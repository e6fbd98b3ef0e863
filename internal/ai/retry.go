package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	agentErrors "recruitagent/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	defaultBaseDelay = time.Second
	maxBackoff       = 30 * time.Second
)

// retryPolicy bounds how often a failed call is repeated. maxRetries of
// zero means a single attempt.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *agentErrors.Logger
}

// backoff returns 2^(attempt-1) * baseDelay plus up to 10% jitter, capped.
func (p retryPolicy) backoff(attempt int) time.Duration {
	base := p.baseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * base

	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, maxBackoff)
}

// executeWithRetry runs fn until it succeeds, fails with a permanent error
// or the retry budget is spent.
func executeWithRetry[T any](ctx context.Context, p retryPolicy, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", p.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(p.backoff(attempt)):
			case <-ctx.Done():
				return zero, fmt.Errorf("operation '%s' cancelled during retry: %w", operation, lastErr)
			}
		}

		attempts++
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				p.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempts)
			}
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryableError(err) {
			p.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	p.logger.LogError(lastErr, "AI operation failed",
		"operation", operation,
		"total_attempts", attempts)

	return zero, fmt.Errorf("operation '%s' failed after %d attempt(s): %w", operation, attempts, lastErr)
}

// isRetryableError reports whether err is transient: network failures and
// 429/5xx answers from any provider.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *agentErrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return retryableStatus(googleErr.Code)
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
