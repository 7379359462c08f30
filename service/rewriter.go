package service

import (
	"context"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/prompts"
)

// Rewriter asks the model to fix an enumerated list of problems in a draft
type Rewriter struct {
	llm      llm.Completer
	prompts  *prompts.Library
	settings StageSettings
}

// NewRewriter creates a rewriter
func NewRewriter(c llm.Completer, lib *prompts.Library, settings StageSettings) *Rewriter {
	return &Rewriter{llm: c, prompts: lib, settings: settings}
}

// Rewrite returns the revised draft. It makes exactly one call.
func (r *Rewriter) Rewrite(ctx context.Context, question, draft string, violations []string, rules models.BehaviorRules) (string, error) {
	p, err := render(r.prompts, StageRewrite, prompts.Rewriter, prompts.RewriteData{
		Question:   question,
		Draft:      draft,
		Violations: violations,
		Rules:      rules,
	})
	if err != nil {
		return "", err
	}
	out, err := callLLM(ctx, r.llm, StageRewrite, p, r.settings, false)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", upstream(StageRewrite, llm.ErrEmptyResponse)
	}
	return out, nil
}

// ReviewFindings lists what the rewriter must fix: every gate finding plus
// the weak scoring dimensions when the score asks for a rewrite.
func ReviewFindings(v models.VerificationResult, card models.ScoreCard) []string {
	findings := append([]string{}, v.RequiredFixes...)
	if card.Recommendation != models.RecommendRewrite {
		return findings
	}
	dims := []struct {
		name string
		s    models.Subscore
	}{
		{"Authority awareness", card.AuthorityAwareness},
		{"Procedural realism", card.ProceduralRealism},
		{"Human tone", card.HumanTone},
		{"Strategic value", card.StrategicValue},
		{"Safety compliance", card.SafetyCompliance},
	}
	for _, d := range dims {
		if d.s.Score < 7 {
			findings = append(findings, "Weak "+d.name+": "+d.s.Feedback)
		}
	}
	return findings
}
