package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"order-reconciliation-service/internal/config"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPStatusError is returned when an upstream answers outside 2xx.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("upstream status=%d body=%s", e.StatusCode, e.Body)
}

// RetryPolicy bounds retries of read-only upstream calls.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
}

func NewRetryPolicy(cfg config.Retry) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
	}
}

// Do runs op until it succeeds, returns a permanent error, or the attempt
// budget is spent. 4xx responses other than 401/429 are permanent.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx))
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		// 401 lets token-caching clients refresh and try again
		return statusErr.StatusCode >= 500 ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode == http.StatusUnauthorized
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// decodeError marks a malformed upstream body; retrying won't fix it.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode upstream response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }
