package service

import (
	"context"
	"errors"
	"testing"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ParsesAndNormalizes(t *testing.T) {
	fake := newFakeLLM().on(StageClassify, "```json\n"+classificationJSON+"\n```")
	c := NewClassifier(fake, prompts.Default(), DefaultPolicy().Classify)

	cls, fallback, err := c.Classify(context.Background(), models.NewQuestion("I was arrested", models.QuestionContext{JurisdictionHint: "Ontario"}))

	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, "Canada", cls.Jurisdiction.Country)
	assert.Equal(t, "Ontario", cls.Jurisdiction.Region)
	assert.Equal(t, 0.9, cls.Jurisdiction.Confidence)
	assert.Equal(t, "Criminal Law", cls.PracticeArea)
	assert.Equal(t, models.UrgencyCritical, cls.UrgencyLevel)
	assert.Equal(t, []string{"breath test result"}, cls.MissingFacts)

	req := fake.lastRequest(StageClassify)
	assert.True(t, req.JSONMode)
	assert.Equal(t, float32(0.1), req.Temperature)
	assert.Contains(t, req.Messages[1].Content, "Ontario")
}

func TestClassify_UnparseableUsesDefault(t *testing.T) {
	fake := newFakeLLM().on(StageClassify, "Sorry, I can only answer in prose.")
	c := NewClassifier(fake, prompts.Default(), DefaultPolicy().Classify)

	cls, fallback, err := c.Classify(context.Background(), models.NewQuestion("help", models.QuestionContext{}))

	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, models.DefaultClassification(), cls)
	assert.Equal(t, "unspecified", cls.Jurisdiction.Country)
	assert.Equal(t, "General Legal", cls.PracticeArea)
	assert.Equal(t, models.UrgencyMedium, cls.UrgencyLevel)
	assert.Equal(t, 0.5, cls.Jurisdiction.Confidence)
}

func TestClassify_ClampsAndFillsFields(t *testing.T) {
	fake := newFakeLLM().on(StageClassify, `{"jurisdiction": {"confidence": 4}, "urgency_level": "panic", "missing_facts": [" ", "date"]}`)
	c := NewClassifier(fake, prompts.Default(), DefaultPolicy().Classify)

	cls, fallback, err := c.Classify(context.Background(), models.NewQuestion("help", models.QuestionContext{}))

	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, "unspecified", cls.Jurisdiction.Country)
	assert.Equal(t, 1.0, cls.Jurisdiction.Confidence)
	assert.Equal(t, "General Legal", cls.PracticeArea)
	assert.Equal(t, models.UrgencyMedium, cls.UrgencyLevel)
	assert.Equal(t, []string{"date"}, cls.MissingFacts)
}

func TestClassify_UpstreamFailure(t *testing.T) {
	cause := errors.New("gemini unavailable")
	c := NewClassifier(newFakeLLM().fail(StageClassify, cause), prompts.Default(), DefaultPolicy().Classify)

	_, _, err := c.Classify(context.Background(), models.NewQuestion("help", models.QuestionContext{}))

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
}

func TestReason_ParsesCitationMap(t *testing.T) {
	fake := newFakeLLM().on(StageReason, reasoningJSON)
	r := NewReasoner(fake, prompts.Default(), prompts.ReasonerFourLayer, DefaultPolicy().Reason)
	evidence := models.RetrievalResult{Chunks: breathChunks()}

	out, fallback, err := r.Reason(context.Background(), "q", models.DefaultClassification(), evidence)

	require.NoError(t, err)
	assert.False(t, fallback)
	require.Len(t, out.CitationMap, 1)
	assert.Equal(t, breathTestClaim, out.CitationMap[0].Claim)
	assert.Equal(t, []string{"chunk-1"}, out.CitationMap[0].SupportingChunkIDs)
	assert.Equal(t, models.AuthorityPrimary, out.CitationMap[0].AuthorityLevel)
	assert.Equal(t, []string{"Criminal Code s. 320.14"}, out.StatutoryLayer.GoverningLaws)

	assert.Contains(t, fake.lastRequest(StageReason).Messages[1].Content, "[chunk-1 - Criminal Code] (primary)")
}

func TestReason_PromptListsMustCover(t *testing.T) {
	fake := newFakeLLM().on(StageReason, reasoningJSON)
	r := NewReasoner(fake, prompts.Default(), prompts.ReasonerFiveFilter, DefaultPolicy().Reason)
	evidence := models.RetrievalResult{MustCover: []string{"breath test timing", "licence suspension"}}

	_, _, err := r.Reason(context.Background(), "q", models.DefaultClassification(), evidence)

	require.NoError(t, err)
	assert.Contains(t, fake.lastRequest(StageReason).Messages[1].Content,
		"The analysis must address: breath test timing; licence suspension")
}

func TestReason_UnparseableUsesEmptySkeleton(t *testing.T) {
	fake := newFakeLLM().on(StageReason, "no analysis available")
	r := NewReasoner(fake, prompts.Default(), "", DefaultPolicy().Reason)

	out, fallback, err := r.Reason(context.Background(), "q", models.DefaultClassification(), models.RetrievalResult{})

	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, models.EmptyReasoning(), out)
}

func TestReason_DropsBlankClaims(t *testing.T) {
	fake := newFakeLLM().on(StageReason, `{"citation_map": [{"claim": " ", "supporting_chunk_ids": ["chunk-1"]}, {"claim": "kept", "supporting_chunk_ids": null}]}`)
	r := NewReasoner(fake, prompts.Default(), prompts.ReasonerSevenLayer, DefaultPolicy().Reason)

	out, _, err := r.Reason(context.Background(), "q", models.DefaultClassification(), models.RetrievalResult{})

	require.NoError(t, err)
	require.Len(t, out.CitationMap, 1)
	assert.Equal(t, "kept", out.CitationMap[0].Claim)
	assert.NotNil(t, out.CitationMap[0].SupportingChunkIDs)
	assert.NotNil(t, out.ProceduralLayer.Deadlines)
}

func TestWrite_UsesSeverityTemperatureCeiling(t *testing.T) {
	fake := newFakeLLM().on(StageWrite, "  "+goodDraft+"\n")
	w := NewWriter(fake, prompts.Default(), DefaultPolicy().Write)
	req := DraftRequest{
		Question:       "I was arrested",
		Classification: models.DefaultClassification(),
		Reasoning:      models.EmptyReasoning(),
		Severity:       ClassifySeverity("I was arrested"),
	}

	draft, err := w.Write(context.Background(), req, prompts.Writer, StageWrite)

	require.NoError(t, err)
	assert.Equal(t, goodDraft, draft)
	sent := fake.lastRequest(StageWrite)
	assert.Equal(t, float32(0.18), sent.Temperature)
	assert.False(t, sent.JSONMode)
	assert.Equal(t, 3000, sent.MaxTokens)
}

func TestWrite_EmptyDraftIsUpstream(t *testing.T) {
	w := NewWriter(newFakeLLM().on(StageWrite, "   "), prompts.Default(), DefaultPolicy().Write)

	_, err := w.Write(context.Background(), DraftRequest{Reasoning: models.EmptyReasoning()}, prompts.Writer, StageWrite)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestWrite_TemplateFailureIsConfigError(t *testing.T) {
	fake := newFakeLLM().on(StageWrite, goodDraft)
	w := NewWriter(fake, prompts.Default(), DefaultPolicy().Write)

	_, err := w.Write(context.Background(), DraftRequest{Reasoning: models.EmptyReasoning()}, "writer_missing", StageWrite)

	require.ErrorIs(t, err, ErrPromptTemplate)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), StageWrite)
}

func TestRewrite_SendsFindings(t *testing.T) {
	fake := newFakeLLM().on(StageRewrite, goodDraft)
	r := NewRewriter(fake, prompts.Default(), DefaultPolicy().Rewrite)

	out, err := r.Rewrite(context.Background(), "q", badDraft, []string{"Banned pattern: 'Quick Take' in line 1"}, RulesFor(models.UrgencyHigh))

	require.NoError(t, err)
	assert.Equal(t, goodDraft, out)
	assert.Equal(t, 1, fake.count(StageRewrite))
	assert.Contains(t, fake.lastRequest(StageRewrite).Messages[1].Content, "Banned pattern: 'Quick Take' in line 1")
}

func TestReviewFindings_AddsWeakDimensionsOnRewrite(t *testing.T) {
	v := Verify(badDraft, nil, nil)
	card := Grade(badDraft)

	findings := ReviewFindings(v, card)

	assert.Equal(t, v.RequiredFixes, findings[:len(v.RequiredFixes)])
	assert.Contains(t, findings, "Weak Authority awareness: No authority awareness detected")
	assert.Contains(t, findings, "Weak Procedural realism: No procedural reality")
	assert.NotContains(t, findings, "Weak Safety compliance: No safety issues")
}

func TestReviewFindings_NoScoreFindingsWhenScorePasses(t *testing.T) {
	v := models.VerificationResult{RequiredFixes: []string{"Tone issue: overly academic"}}
	findings := ReviewFindings(v, Grade(goodDraft))
	assert.Equal(t, []string{"Tone issue: overly academic"}, findings)
}

func TestShadowCompare_ComparatorPicksB(t *testing.T) {
	fake := newFakeLLM().
		on(StageShadowA, badDraft).
		on(StageShadowB, goodDraft).
		on(StageCompare, `{"scores": {"A": {"human_tone": 2}, "B": {"human_tone": 9}}, "winner": "B", "reason": "B reads like a person", "final_answer": ""}`)
	p := DefaultPolicy()
	s := NewShadowComparator(fake, prompts.Default(), p.WriterVariant, p.ShadowVariantB, p.Shadow, p.Compare)

	out, err := s.Compare(context.Background(), DraftRequest{Question: "q", Reasoning: models.EmptyReasoning()})

	require.NoError(t, err)
	assert.Equal(t, WinnerB, out.Winner)
	assert.Equal(t, goodDraft, out.Answer)
	assert.False(t, out.Fallback)
	assert.Equal(t, 9, out.Scores["B"]["human_tone"])
	assert.True(t, fake.lastRequest(StageCompare).JSONMode)
}

func TestShadowCompare_HybridUsesFinalAnswer(t *testing.T) {
	fake := newFakeLLM().
		on(StageShadowA, badDraft).
		on(StageShadowB, goodDraft).
		on(StageCompare, `{"winner": "hybrid", "reason": "merged", "final_answer": "merged text"}`)
	p := DefaultPolicy()
	s := NewShadowComparator(fake, prompts.Default(), p.WriterVariant, p.ShadowVariantB, p.Shadow, p.Compare)

	out, err := s.Compare(context.Background(), DraftRequest{Reasoning: models.EmptyReasoning()})

	require.NoError(t, err)
	assert.Equal(t, WinnerHybrid, out.Winner)
	assert.Equal(t, "merged text", out.Answer)
}

func TestShadowCompare_UnparseableFallsBackToLocalScore(t *testing.T) {
	fake := newFakeLLM().
		on(StageShadowA, goodDraft).
		on(StageShadowB, badDraft).
		on(StageCompare, "both are fine")
	p := DefaultPolicy()
	s := NewShadowComparator(fake, prompts.Default(), p.WriterVariant, p.ShadowVariantB, p.Shadow, p.Compare)

	out, err := s.Compare(context.Background(), DraftRequest{Reasoning: models.EmptyReasoning()})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, WinnerA, out.Winner)
	assert.Equal(t, goodDraft, out.Answer)
}

func TestShadowCompare_DraftFailureIsUpstream(t *testing.T) {
	fake := newFakeLLM().
		on(StageShadowA, goodDraft).
		fail(StageShadowB, errors.New("timeout"))
	p := DefaultPolicy()
	s := NewShadowComparator(fake, prompts.Default(), p.WriterVariant, p.ShadowVariantB, p.Shadow, p.Compare)

	_, err := s.Compare(context.Background(), DraftRequest{Reasoning: models.EmptyReasoning()})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, StageShadowB, ue.Stage)
	assert.Zero(t, fake.count(StageCompare))
}
