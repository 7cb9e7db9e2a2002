package crawler

import (
	"context"
	"errors"
	"time"
)

// Extra attempts are hard-capped regardless of configuration.
const maxRetryAttempts = 3

// RetryFetcher decorates a base fetcher with a bounded retry policy.
// Only transient failures (timeout, connection) are retried; HTTP status
// errors, oversized bodies and non-text content never are.
type RetryFetcher struct {
	Base    Fetcher
	Retries int
}

func (rf *RetryFetcher) Fetch(ctx context.Context, pageURL string) (*PageResult, error) {
	retries := rf.Retries
	if retries > maxRetryAttempts {
		retries = maxRetryAttempts
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100<<(attempt-1)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, &FetchError{Kind: FailConnection, URL: pageURL, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		result, err := rf.Base.Fetch(ctx, pageURL)
		if err == nil {
			return result, nil
		}

		var fe *FetchError
		if !errors.As(err, &fe) || (fe.Kind != FailTimeout && fe.Kind != FailConnection) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
