package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Retrier reruns failed provider calls according to a RetryConfig. Whether a
// failure is worth retrying comes from the LLMError taxonomy: rate limits,
// overload, and transport faults retry; auth, quota, and validation failures
// surface immediately.
type Retrier struct {
	config RetryConfig
	rand   *rand.Rand
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{
		config: config,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RetryOperation is one attempt of a retryable call; attempt counts from 0.
type RetryOperation[T any] func(ctx context.Context, attempt int) (T, error)

// Execute runs operation until it succeeds, exhausts the retry budget, or
// hits a non-retryable error. Context cancellation is honored between
// attempts and during backoff waits.
func Execute[T any](r *Retrier, ctx context.Context, operation RetryOperation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := operation(ctx, attempt)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !r.shouldRetry(err, attempt) {
			if attempt >= r.config.MaxRetries {
				return zero, fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxRetries+1, err)
			}
			return zero, err
		}

		delay := r.calculateDelay(attempt, err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

func (r *Retrier) shouldRetry(err error, attempt int) bool {
	if attempt >= r.config.MaxRetries {
		return false
	}

	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.IsRetryable()
	}

	// Plain errors retry only when the config names their message.
	errStr := err.Error()
	for _, retryableErr := range r.config.RetryableErrors {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(retryableErr)) {
			return true
		}
	}

	return false
}

// calculateDelay picks the wait before the next attempt: a server-suggested
// Retry-After wins, otherwise exponential backoff with ±25% jitter, clamped
// to [InitialDelay, MaxDelay].
func (r *Retrier) calculateDelay(attempt int, err error) time.Duration {
	if llmErr, ok := IsLLMError(err); ok && llmErr.RetryAfter > 0 {
		return time.Duration(llmErr.RetryAfter) * time.Second
	}

	base := float64(r.config.InitialDelay)
	delay := base * math.Pow(r.config.BackoffFactor, float64(attempt))

	jitter := 0.25 * delay * (r.rand.Float64()*2 - 1)
	delay += jitter

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if delay < float64(r.config.InitialDelay) {
		delay = float64(r.config.InitialDelay)
	}

	return time.Duration(delay)
}
