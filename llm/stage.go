package llm

import "context"

type ctxKeyStage struct{}

// WithStage tags ctx with the pipeline stage issuing the call. Middleware and
// fakes use it to label metrics and route canned responses.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage stored in ctx, or "unknown"
func StageFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
