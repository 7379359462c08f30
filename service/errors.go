package service

import (
	"errors"
	"fmt"

	"legid-backend/prompts"
)

var (
	// ErrUpstream identifies failures of the LLM or retriever backends. Apart
	// from ErrPromptTemplate it is the only error class that escapes a
	// pipeline stage.
	ErrUpstream = errors.New("upstream service failure")

	// ErrPromptTemplate is a configuration error: a prompt override that
	// failed to execute at request time.
	ErrPromptTemplate = prompts.ErrTemplate

	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoCompleter   = errors.New("pipeline has no LLM client")
)

// UpstreamError wraps a backend failure with the stage that observed it.
// errors.Is matches both ErrUpstream and the wrapped cause.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Stage, ErrUpstream, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

func upstream(stage string, err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Stage: stage, Err: err}
}
