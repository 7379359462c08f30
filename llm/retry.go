package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
)

// WithRetry retries a completion up to maxAttempts times with exponential
// backoff starting at backoff. Permanent errors and context cancellation stop
// the loop immediately. An empty completion counts as a failed attempt.
func WithRetry(maxAttempts int, backoff time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff <= 0 {
		backoff = DefaultInitialBackoff
	}
	return func(next Completer) Completer {
		return &retrying{next: next, max: maxAttempts, base: backoff}
	}
}

type retrying struct {
	next Completer
	max  int
	base time.Duration
}

func (r *retrying) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var last error
	wait := r.base
	for attempt := 0; attempt < r.max; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		out, err := r.next.Complete(ctx, req)
		if err == nil && out != "" {
			return out, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		if IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		last = err
		slog.Warn("llm call failed, retrying", "stage", StageFrom(ctx), "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("llm call failed after %d attempts: %w", r.max, last)
}
