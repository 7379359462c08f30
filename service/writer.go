package service

import (
	"context"
	"encoding/json"
	"fmt"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/prompts"
)

// Writer renders the analysis into the prose answer
type Writer struct {
	llm      llm.Completer
	prompts  *prompts.Library
	settings StageSettings
}

// NewWriter creates a writer. settings.Temperature caps the severity
// temperature.
func NewWriter(c llm.Completer, lib *prompts.Library, settings StageSettings) *Writer {
	return &Writer{llm: c, prompts: lib, settings: settings}
}

// DraftRequest carries everything a draft is written from
type DraftRequest struct {
	Question       string
	Classification models.Classification
	Reasoning      models.ReasoningOutput
	Severity       models.SeverityResult
}

// Write produces a draft with the given writer variant under stage
func (w *Writer) Write(ctx context.Context, req DraftRequest, variant, stage string) (string, error) {
	analysis, err := json.MarshalIndent(req.Reasoning, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}

	p, err := render(w.prompts, stage, variant, prompts.WriterData{
		Question:       req.Question,
		Classification: req.Classification,
		Reasoning:      string(analysis),
		Rules:          req.Severity.Rules,
	})
	if err != nil {
		return "", err
	}

	settings := w.settings
	if t := req.Severity.Rules.Temperature; t > 0 && t < settings.Temperature {
		settings.Temperature = t
	}

	draft, err := callLLM(ctx, w.llm, stage, p, settings, false)
	if err != nil {
		return "", err
	}
	if draft == "" {
		return "", upstream(stage, llm.ErrEmptyResponse)
	}
	return draft, nil
}
