package generator

import (
	"context"
	"fmt"
	"time"
)

// ProviderError wraps a provider failure that survived the retry policy
type ProviderError struct {
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RetryPolicy bounds how often a provider call is retried and how long to
// back off between attempts
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy retries once with a short backoff
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 2,
	Backoff:     500 * time.Millisecond,
}

// Do runs fn until it succeeds, the attempts are exhausted, or the context is
// cancelled. On exhaustion the last error is returned as a *ProviderError.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", &ProviderError{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(p.Backoff):
		}
	}

	return "", &ProviderError{Attempts: attempts, Err: lastErr}
}
