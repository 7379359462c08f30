package service

import (
	"fmt"

	"legid-backend/prompts"

	"github.com/hashicorp/go-multierror"
)

// EscalationMode selects what happens when a draft fails review
type EscalationMode string

const (
	EscalateRewrite EscalationMode = "rewrite"
	EscalateShadow  EscalationMode = "shadow"
	EscalateNone    EscalationMode = "none"
)

// Stage names used for logging, metrics and LLM routing
const (
	StageSeverity = "severity"
	StageClassify = "classify"
	StagePlan     = "retrieval_plan"
	StageRetrieve = "retrieve"
	StageReason   = "reason"
	StageWrite    = "write"
	StageVerify   = "verify"
	StageRewrite  = "rewrite"
	StageShadowA  = "shadow_a"
	StageShadowB  = "shadow_b"
	StageCompare  = "compare"
)

// StageSettings is the sampling configuration of one LLM call
type StageSettings struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Policy holds the deployment knobs of the pipeline. Zero values are
// replaced by DefaultPolicy values in Normalize.
type Policy struct {
	MaxQueries           int `yaml:"max_queries"`
	HitsPerQuery         int `yaml:"hits_per_query"`
	ChunkLimit           int `yaml:"chunk_limit"`
	DedupPrefix          int `yaml:"dedup_prefix"`
	RetrievalConcurrency int `yaml:"retrieval_concurrency"`

	Escalation      EscalationMode `yaml:"escalation"`
	ExtraCallBudget int            `yaml:"extra_call_budget"`

	ReasonerVariant string `yaml:"reasoner_variant"`
	WriterVariant   string `yaml:"writer_variant"`
	ShadowVariantB  string `yaml:"shadow_variant_b"`

	Classify StageSettings `yaml:"classify"`
	Plan     StageSettings `yaml:"plan"`
	Reason   StageSettings `yaml:"reason"`
	Write    StageSettings `yaml:"write"`
	Rewrite  StageSettings `yaml:"rewrite"`
	Shadow   StageSettings `yaml:"shadow"`
	Compare  StageSettings `yaml:"compare"`
}

// DefaultPolicy returns the production defaults. Write.Temperature is a
// ceiling; the severity rules usually pick a lower one.
func DefaultPolicy() Policy {
	return Policy{
		MaxQueries:           8,
		HitsPerQuery:         3,
		ChunkLimit:           8,
		DedupPrefix:          100,
		RetrievalConcurrency: 4,

		Escalation:      EscalateRewrite,
		ExtraCallBudget: 1,

		ReasonerVariant: prompts.ReasonerFourLayer,
		WriterVariant:   prompts.Writer,
		ShadowVariantB:  prompts.WriterAlt,

		Classify: StageSettings{Temperature: 0.1, MaxTokens: 1024},
		Plan:     StageSettings{Temperature: 0.1, MaxTokens: 1024},
		Reason:   StageSettings{Temperature: 0.15, MaxTokens: 4096},
		Write:    StageSettings{Temperature: 0.25, MaxTokens: 3000},
		Rewrite:  StageSettings{Temperature: 0.23, MaxTokens: 3500},
		Shadow:   StageSettings{Temperature: 0.22, MaxTokens: 3000},
		Compare:  StageSettings{Temperature: 0.2, MaxTokens: 3500},
	}
}

// Normalize fills zero fields from DefaultPolicy
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	fillInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fillInt(&p.MaxQueries, d.MaxQueries)
	fillInt(&p.HitsPerQuery, d.HitsPerQuery)
	fillInt(&p.ChunkLimit, d.ChunkLimit)
	fillInt(&p.DedupPrefix, d.DedupPrefix)
	fillInt(&p.RetrievalConcurrency, d.RetrievalConcurrency)
	if p.Escalation == "" {
		p.Escalation = d.Escalation
	}
	if p.ReasonerVariant == "" {
		p.ReasonerVariant = d.ReasonerVariant
	}
	if p.WriterVariant == "" {
		p.WriterVariant = d.WriterVariant
	}
	if p.ShadowVariantB == "" {
		p.ShadowVariantB = d.ShadowVariantB
	}
	fillStage := func(s *StageSettings, def StageSettings) {
		if s.Temperature == 0 {
			s.Temperature = def.Temperature
		}
		if s.MaxTokens == 0 {
			s.MaxTokens = def.MaxTokens
		}
	}
	fillStage(&p.Classify, d.Classify)
	fillStage(&p.Plan, d.Plan)
	fillStage(&p.Reason, d.Reason)
	fillStage(&p.Write, d.Write)
	fillStage(&p.Rewrite, d.Rewrite)
	fillStage(&p.Shadow, d.Shadow)
	fillStage(&p.Compare, d.Compare)
	return p
}

// Validate reports every invalid knob at once
func (p Policy) Validate() error {
	var result *multierror.Error
	knobs := []struct {
		name string
		v    int
	}{
		{"max_queries", p.MaxQueries},
		{"hits_per_query", p.HitsPerQuery},
		{"chunk_limit", p.ChunkLimit},
		{"dedup_prefix", p.DedupPrefix},
		{"retrieval_concurrency", p.RetrievalConcurrency},
	}
	for _, k := range knobs {
		if k.v <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s must be positive, got %d", k.name, k.v))
		}
	}
	switch p.Escalation {
	case EscalateRewrite, EscalateShadow, EscalateNone:
	default:
		result = multierror.Append(result, fmt.Errorf("escalation must be rewrite, shadow or none, got %q", p.Escalation))
	}
	if p.ExtraCallBudget < 0 {
		result = multierror.Append(result, fmt.Errorf("extra_call_budget must not be negative"))
	}
	switch p.ReasonerVariant {
	case prompts.ReasonerFourLayer, prompts.ReasonerFiveFilter, prompts.ReasonerSevenLayer:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown reasoner_variant %q", p.ReasonerVariant))
	}
	if p.WriterVariant != prompts.Writer && p.WriterVariant != prompts.WriterAlt {
		result = multierror.Append(result, fmt.Errorf("unknown writer_variant %q", p.WriterVariant))
	}
	if p.ShadowVariantB != prompts.Writer && p.ShadowVariantB != prompts.WriterAlt {
		result = multierror.Append(result, fmt.Errorf("unknown shadow_variant_b %q", p.ShadowVariantB))
	}
	stages := []struct {
		name string
		s    StageSettings
	}{
		{"classify", p.Classify}, {"plan", p.Plan}, {"reason", p.Reason}, {"write", p.Write},
		{"rewrite", p.Rewrite}, {"shadow", p.Shadow}, {"compare", p.Compare},
	}
	for _, st := range stages {
		if st.s.Temperature < 0 || st.s.Temperature > 1 {
			result = multierror.Append(result, fmt.Errorf("%s temperature must be within [0,1], got %.2f", st.name, st.s.Temperature))
		}
		if st.s.MaxTokens < 0 {
			result = multierror.Append(result, fmt.Errorf("%s max_tokens must not be negative", st.name))
		}
	}
	return result.ErrorOrNil()
}

// extraCallsFor is the number of LLM calls an escalation mode costs
func extraCallsFor(mode EscalationMode) int {
	switch mode {
	case EscalateShadow:
		return 3
	case EscalateRewrite:
		return 1
	default:
		return 0
	}
}
