// Package llm is the boundary between the pipeline and text-generation
// backends. Every backend is reached through Completer; cross-cutting
// concerns (retries, rate limits, metrics) are layered on as Middleware.
package llm

import (
	"context"
	"errors"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat prompt
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single completion call. The pipeline never names a
// model; the backend decides which one serves the request.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Completer generates text for a prompt
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Middleware decorates a Completer
type Middleware func(Completer) Completer

// Wrap applies middlewares left to right: Wrap(c, A, B) => A(B(c))
func Wrap(inner Completer, mws ...Middleware) Completer {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

var (
	ErrEmptyResponse  = errors.New("model returned empty content")
	ErrNoUserMessage  = errors.New("completion request has no user message")
	ErrMissingAPIKey  = errors.New("api key not set")
	ErrUnknownBackend = errors.New("unknown llm provider")
)

// PermanentError marks a failure that will not resolve by retrying
// (bad request, bad credentials, blocked prompt).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as permanent
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or anything it wraps) is permanent
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}

// System and User are shorthands for building prompts
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }
