package service

import (
	"context"
	"log/slog"
	"strings"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/prompts"
)

// Classifier reads jurisdiction, practice area, urgency and missing facts
// from a question with one JSON-mode LLM call.
type Classifier struct {
	llm      llm.Completer
	prompts  *prompts.Library
	settings StageSettings
}

// NewClassifier creates a classifier
func NewClassifier(c llm.Completer, lib *prompts.Library, settings StageSettings) *Classifier {
	return &Classifier{llm: c, prompts: lib, settings: settings}
}

// Classify returns the classification. When the model output cannot be
// parsed the default classification is returned with fallback set; only
// upstream failures are errors.
func (c *Classifier) Classify(ctx context.Context, q models.Question) (cls models.Classification, fallback bool, err error) {
	p, err := render(c.prompts, StageClassify, prompts.Classifier, prompts.ClassifierData{
		Question:         q.Text,
		JurisdictionHint: q.Context.JurisdictionHint,
	})
	if err != nil {
		return models.Classification{}, false, err
	}

	raw, err := callLLM(ctx, c.llm, StageClassify, p, c.settings, true)
	if err != nil {
		return models.Classification{}, false, err
	}

	var parsed models.Classification
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		slog.Warn("classifier output not parseable, using default", "stage", StageClassify, "error", err)
		return models.DefaultClassification(), true, nil
	}
	return normalizeClassification(parsed), false, nil
}

func normalizeClassification(c models.Classification) models.Classification {
	c.Jurisdiction.Country = strings.TrimSpace(c.Jurisdiction.Country)
	if c.Jurisdiction.Country == "" {
		c.Jurisdiction.Country = "unspecified"
	}
	c.Jurisdiction.Region = strings.TrimSpace(c.Jurisdiction.Region)
	c.Jurisdiction.Confidence = clamp(c.Jurisdiction.Confidence, 0, 1)
	c.PracticeArea = strings.TrimSpace(c.PracticeArea)
	if c.PracticeArea == "" {
		c.PracticeArea = "General Legal"
	}
	c.UrgencyLevel = models.ParseUrgencyLevel(string(c.UrgencyLevel))
	c.UrgencyIndicators = cleanList(c.UrgencyIndicators)
	c.MissingFacts = cleanList(c.MissingFacts)
	c.TopicKeywords = cleanList(c.TopicKeywords)
	return c
}
