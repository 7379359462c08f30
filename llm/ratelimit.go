package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// WithRateLimit bounds the request rate to rps with the given burst. rps <= 0
// disables limiting. The limiter is shared by every request passing through
// the returned Completer.
func WithRateLimit(rps float64, burst int) Middleware {
	return func(next Completer) Completer {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next Completer
	lim  *rate.Limiter
}

func (c *rateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, req)
}
