package service

import (
	"context"
	"log/slog"
	"time"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/observability"
	"legid-backend/prompts"
	"legid-backend/retriever"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline answers legal questions. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	llm       llm.Completer
	retriever retriever.Retriever
	prompts   *prompts.Library
	policy    Policy
	metrics   *observability.Metrics
	followUps *FollowUpSuggester
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// PipelineWithLLM sets the completion backend
func PipelineWithLLM(c llm.Completer) PipelineOption {
	return func(p *Pipeline) {
		p.llm = c
	}
}

// PipelineWithRetriever sets the evidence backend. Without one every answer
// is written from the model's own knowledge.
func PipelineWithRetriever(r retriever.Retriever) PipelineOption {
	return func(p *Pipeline) {
		p.retriever = r
	}
}

// PipelineWithPrompts sets the template library
func PipelineWithPrompts(lib *prompts.Library) PipelineOption {
	return func(p *Pipeline) {
		p.prompts = lib
	}
}

// PipelineWithPolicy sets the policy knobs
func PipelineWithPolicy(policy Policy) PipelineOption {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// PipelineWithMetrics sets the metrics sink
func PipelineWithMetrics(m *observability.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// PipelineWithFollowUps sets the follow-up suggester
func PipelineWithFollowUps(s *FollowUpSuggester) PipelineOption {
	return func(p *Pipeline) {
		p.followUps = s
	}
}

// NewPipeline creates a new pipeline
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(p)
	}
	p.policy = p.policy.Normalize()
	if p.prompts == nil {
		p.prompts = prompts.Default()
	}
	if p.followUps == nil {
		p.followUps = NewFollowUpSuggester(nil)
	}
	return p
}

// Policy returns the effective policy
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// PipelineState accumulates the results of one request. It is owned by a
// single Run call and dropped when the response is built.
type PipelineState struct {
	RequestID      string
	Question       models.Question
	Severity       models.SeverityResult
	Classification models.Classification
	Evidence       models.RetrievalResult
	Reasoning      models.ReasoningOutput
	Draft          string
	Verification   models.VerificationResult
	Score          models.ScoreCard
	Escalation     EscalationMode
	Fallbacks      []string
}

func (s *PipelineState) fallback(stage string, m *observability.Metrics) {
	s.Fallbacks = append(s.Fallbacks, stage)
	m.Fallback(stage)
}

// Run answers one question. Only upstream failures and cancellation are
// returned as errors; a draft that never passes the gate is returned with
// QualityGatePassed=false.
func (p *Pipeline) Run(ctx context.Context, question string, qctx *models.QuestionContext) (*models.Response, error) {
	if p.llm == nil {
		return nil, ErrNoCompleter
	}
	var hints models.QuestionContext
	if qctx != nil {
		hints = *qctx
	}
	q := models.NewQuestion(question, hints)
	if q.Text == "" {
		return nil, ErrEmptyQuestion
	}

	state := &PipelineState{RequestID: uuid.New().String(), Question: q}
	log := slog.With("request_id", state.RequestID)
	start := time.Now()

	resp, err := p.run(ctx, state, log)
	if err != nil {
		p.metrics.Request("error")
		log.Error("pipeline failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	outcome := "ok"
	if !resp.Metadata.QualityGatePassed || len(state.Fallbacks) > 0 {
		outcome = "degraded"
	}
	p.metrics.Request(outcome)
	log.Info("pipeline complete",
		"outcome", outcome,
		"practice_area", resp.Metadata.PracticeArea,
		"severity", resp.Metadata.Severity,
		"gate_passed", resp.Metadata.QualityGatePassed,
		"score", resp.Metadata.ScoreTotal,
		"escalation", resp.Metadata.Escalation,
		"confidence", resp.Confidence,
		"elapsed", time.Since(start),
	)
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, state *PipelineState, log *slog.Logger) (*models.Response, error) {
	// Severity and classification are independent of each other
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer p.timeStage(StageSeverity)()
		state.Severity = ClassifySeverity(state.Question.Text)
		return nil
	})
	g.Go(func() error {
		defer p.timeStage(StageClassify)()
		cls, fallback, err := NewClassifier(p.llm, p.prompts, p.policy.Classify).Classify(gctx, state.Question)
		if err != nil {
			return err
		}
		state.Classification = cls
		if fallback {
			state.fallback(StageClassify, p.metrics)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("question classified",
		"severity", state.Severity.Level,
		"practice_area", state.Classification.PracticeArea,
		"jurisdiction", state.Classification.Jurisdiction.String(),
	)

	if err := p.retrieve(ctx, state); err != nil {
		return nil, err
	}
	if err := p.reason(ctx, state); err != nil {
		return nil, err
	}

	req := DraftRequest{
		Question:       state.Question.Text,
		Classification: state.Classification,
		Reasoning:      state.Reasoning,
		Severity:       state.Severity,
	}
	done := p.timeStage(StageWrite)
	draft, err := NewWriter(p.llm, p.prompts, p.policy.Write).Write(ctx, req, p.policy.WriterVariant, StageWrite)
	done()
	if err != nil {
		return nil, err
	}
	state.Draft = draft
	p.review(state, "initial")

	if needsEscalation(state) {
		if err := p.escalate(ctx, state, req, log); err != nil {
			return nil, err
		}
	}

	return p.respond(state), nil
}

func (p *Pipeline) retrieve(ctx context.Context, state *PipelineState) error {
	defer p.timeStage(StageRetrieve)()
	res, fallback, err := NewRetrievalOrchestrator(p.llm, p.retriever, p.prompts, p.policy).
		Retrieve(ctx, state.Question.Text, state.Classification)
	if err != nil {
		return err
	}
	state.Evidence = res
	if fallback {
		state.fallback(StagePlan, p.metrics)
	}
	return nil
}

func (p *Pipeline) reason(ctx context.Context, state *PipelineState) error {
	defer p.timeStage(StageReason)()
	out, fallback, err := NewReasoner(p.llm, p.prompts, p.policy.ReasonerVariant, p.policy.Reason).
		Reason(ctx, state.Question.Text, state.Classification, state.Evidence)
	if err != nil {
		return err
	}
	state.Reasoning = out
	if fallback {
		state.fallback(StageReason, p.metrics)
	}
	return nil
}

// review runs the gate and the scoring harness on the current draft
func (p *Pipeline) review(state *PipelineState, attempt string) {
	defer p.timeStage(StageVerify)()
	state.Verification = Verify(state.Draft, state.Reasoning.CitationMap, state.Evidence.Chunks)
	state.Score = Grade(state.Draft)
	p.metrics.Gate(attempt, state.Verification.PassesGate, len(state.Verification.BannedPatternHits))
}

func needsEscalation(state *PipelineState) bool {
	return !state.Verification.PassesGate || state.Score.Recommendation == models.RecommendRewrite
}

// escalationMode picks the strategy the remaining call budget can pay for.
// Shadow needs three extra calls and degrades to rewrite when short.
func (p *Pipeline) escalationMode() EscalationMode {
	mode := p.policy.Escalation
	if mode == EscalateShadow && p.policy.ExtraCallBudget < extraCallsFor(EscalateShadow) {
		mode = EscalateRewrite
	}
	if mode == EscalateRewrite && p.policy.ExtraCallBudget < extraCallsFor(EscalateRewrite) {
		mode = EscalateNone
	}
	return mode
}

// escalate performs at most one escalation round, then re-reviews
func (p *Pipeline) escalate(ctx context.Context, state *PipelineState, req DraftRequest, log *slog.Logger) error {
	mode := p.escalationMode()
	if mode == EscalateNone {
		log.Warn("draft failed review and no escalation budget is left",
			"gate_passed", state.Verification.PassesGate,
			"score", state.Score.Total,
		)
		return nil
	}
	state.Escalation = mode
	log.Info("escalating draft",
		"mode", mode,
		"gate_passed", state.Verification.PassesGate,
		"score", state.Score.Total,
		"findings", len(state.Verification.RequiredFixes),
	)

	switch mode {
	case EscalateShadow:
		done := p.timeStage(StageCompare)
		out, err := NewShadowComparator(p.llm, p.prompts, p.policy.WriterVariant, p.policy.ShadowVariantB, p.policy.Shadow, p.policy.Compare).
			Compare(ctx, req)
		done()
		if err != nil {
			return err
		}
		if out.Fallback {
			state.fallback(StageCompare, p.metrics)
		}
		log.Debug("shadow comparison decided", "winner", out.Winner, "reason", out.Reason)
		state.Draft = out.Answer
	default:
		done := p.timeStage(StageRewrite)
		findings := ReviewFindings(state.Verification, state.Score)
		revised, err := NewRewriter(p.llm, p.prompts, p.policy.Rewrite).
			Rewrite(ctx, state.Question.Text, state.Draft, findings, state.Severity.Rules)
		done()
		if err != nil {
			return err
		}
		state.Draft = revised
	}

	p.review(state, "escalated")
	p.metrics.Escalation(string(mode), state.Verification.PassesGate)
	if !state.Verification.PassesGate {
		log.Warn("escalated draft still fails the quality gate",
			"mode", mode,
			"required_fixes", state.Verification.RequiredFixes,
		)
	}
	return nil
}

func (p *Pipeline) respond(state *PipelineState) *models.Response {
	v := state.Verification
	followUps := p.followUps.Suggest(state.Question.Text, state.Classification.Jurisdiction.Country)
	used := UsedCitations(state.Draft, state.Reasoning.CitationMap)
	p.metrics.Score(state.Score.Total)

	return &models.Response{
		Answer:    state.Draft,
		FollowUps: followUps.Suggestions,
		Citations: citationsFor(used, state.Evidence),
		Metadata: models.ResponseMetadata{
			RequestID:              state.RequestID,
			PracticeArea:           state.Classification.PracticeArea,
			Jurisdiction:           state.Classification.Jurisdiction,
			Urgency:                state.Classification.UrgencyLevel,
			Severity:               state.Severity.Level,
			SeverityConfidence:     state.Severity.Confidence,
			QualityGatePassed:      v.PassesGate,
			BannedPatternsDetected: len(v.BannedPatternHits),
			CitationViolations:     len(v.CitationViolations),
			ChunksUsed:             len(state.Evidence.Chunks),
			QueriesUsed:            len(state.Evidence.QueriesUsed),
			ScoreTotal:             state.Score.Total,
			Recommendation:         state.Score.Recommendation,
			Escalation:             string(state.Escalation),
			CaseCitations:          CountCaseCitations(state.Draft),
			FollowUpTopic:          followUps.Topic,
			Fallbacks:              state.Fallbacks,
		},
		Confidence: Confidence(ConfidenceInputs{
			JurisdictionConfidence: state.Classification.Jurisdiction.Confidence,
			ChunksFound:            state.Evidence.TotalChunksFound,
			GatePassed:             v.PassesGate,
			BannedHits:             len(v.BannedPatternHits),
			CitationViolations:     len(v.CitationViolations),
		}),
	}
}

func (p *Pipeline) timeStage(stage string) func() {
	start := time.Now()
	return func() {
		p.metrics.ObserveStage(stage, time.Since(start))
	}
}
