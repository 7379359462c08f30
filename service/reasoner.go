package service

import (
	"context"
	"log/slog"
	"strings"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/prompts"
)

// Reasoner maps the question, its classification and the evidence into the
// four-layer analysis. The variant picks which reasoning prompt is used;
// every variant returns the same shape.
type Reasoner struct {
	llm      llm.Completer
	prompts  *prompts.Library
	variant  string
	settings StageSettings
}

// NewReasoner creates a reasoner for one prompt variant
func NewReasoner(c llm.Completer, lib *prompts.Library, variant string, settings StageSettings) *Reasoner {
	if variant == "" {
		variant = prompts.ReasonerFourLayer
	}
	return &Reasoner{llm: c, prompts: lib, variant: variant, settings: settings}
}

// Reason returns the analysis. Unparseable output yields the empty skeleton
// with fallback set.
func (r *Reasoner) Reason(ctx context.Context, question string, cls models.Classification, evidence models.RetrievalResult) (out models.ReasoningOutput, fallback bool, err error) {
	p, err := render(r.prompts, StageReason, r.variant, prompts.ReasonerData{
		Question:       question,
		Classification: cls,
		Evidence:       FormatEvidence(evidence.Chunks),
		MustCover:      evidence.MustCover,
	})
	if err != nil {
		return models.EmptyReasoning(), false, err
	}

	raw, err := callLLM(ctx, r.llm, StageReason, p, r.settings, true)
	if err != nil {
		return models.EmptyReasoning(), false, err
	}

	parsed := models.EmptyReasoning()
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		slog.Warn("reasoner output not parseable, using empty analysis", "stage", StageReason, "variant", r.variant, "error", err)
		return models.EmptyReasoning(), true, nil
	}
	return normalizeReasoning(parsed), false, nil
}

// normalizeReasoning replaces nulls with empty lists and cleans the citation map
func normalizeReasoning(r models.ReasoningOutput) models.ReasoningOutput {
	s := &r.StatutoryLayer
	s.GoverningLaws = cleanList(s.GoverningLaws)

	p := &r.ProceduralLayer
	p.FormsRequired = cleanList(p.FormsRequired)
	p.Deadlines = cleanList(p.Deadlines)
	p.ServiceRequirements = cleanList(p.ServiceRequirements)
	p.EligibilityThresholds = cleanList(p.EligibilityThresholds)
	p.CommonProceduralFailures = cleanList(p.CommonProceduralFailures)

	d := &r.DefenceExceptionLayer
	d.Exemptions = cleanList(d.Exemptions)
	d.CreditsRefunds = cleanList(d.CreditsRefunds)
	d.Defences = cleanList(d.Defences)
	d.Offsets = cleanList(d.Offsets)
	d.WhatFactsChangeOutcome = cleanList(d.WhatFactsChangeOutcome)

	o := &r.PracticalOutcomeLayer
	o.WhatUsuallyHappens = cleanList(o.WhatUsuallyHappens)
	o.CommonUserMistakes = cleanList(o.CommonUserMistakes)
	o.StrategicConsiderations = cleanList(o.StrategicConsiderations)

	e := &r.EvidenceRequirements
	e.DocumentsNeeded = cleanList(e.DocumentsNeeded)
	e.WitnessTypes = cleanList(e.WitnessTypes)
	e.ProofOfService = cleanList(e.ProofOfService)

	cm := make([]models.CitationMapping, 0, len(r.CitationMap))
	for _, m := range r.CitationMap {
		m.Claim = strings.TrimSpace(m.Claim)
		if m.Claim == "" {
			continue
		}
		m.SupportingChunkIDs = cleanList(m.SupportingChunkIDs)
		m.AuthorityLevel = models.ParseAuthorityLevel(string(m.AuthorityLevel))
		cm = append(cm, m)
	}
	r.CitationMap = cm
	r.MissingInSources = cleanList(r.MissingInSources)
	r.AnxietyFactors = cleanList(r.AnxietyFactors)
	return r
}
