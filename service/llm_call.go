package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legid-backend/llm"
	"legid-backend/prompts"
)

// callLLM issues one completion tagged with stage. Any failure is an
// upstream error.
func callLLM(ctx context.Context, c llm.Completer, stage string, p prompts.Prompt, s StageSettings, jsonMode bool) (string, error) {
	out, err := c.Complete(llm.WithStage(ctx, stage), llm.CompletionRequest{
		Messages:    p.Messages(),
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		JSONMode:    jsonMode,
	})
	if err != nil {
		return "", upstream(stage, err)
	}
	return strings.TrimSpace(out), nil
}

// render executes a stage template. Failures always match ErrPromptTemplate.
func render(lib *prompts.Library, stage, name string, data interface{}) (prompts.Prompt, error) {
	p, err := lib.Render(name, data)
	if err != nil {
		if !errors.Is(err, ErrPromptTemplate) {
			err = fmt.Errorf("%w: %w", ErrPromptTemplate, err)
		}
		return prompts.Prompt{}, fmt.Errorf("%s: %w", stage, err)
	}
	return p, nil
}

// cleanList trims entries and drops blanks
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
