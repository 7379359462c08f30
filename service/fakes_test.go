package service

import (
	"context"
	"fmt"
	"sync"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/retriever"
)

// fakeLLM answers by stage. Each stage has a queue of replies; the last one
// repeats once the queue is drained.
type fakeLLM struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	calls   map[string]int
	reqs    map[string][]llm.CompletionRequest
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		replies: make(map[string][]string),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		reqs:    make(map[string][]llm.CompletionRequest),
	}
}

func (f *fakeLLM) on(stage string, replies ...string) *fakeLLM {
	f.replies[stage] = replies
	return f
}

func (f *fakeLLM) fail(stage string, err error) *fakeLLM {
	f.errs[stage] = err
	return f
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	stage := llm.StageFrom(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.calls[stage]
	f.calls[stage]++
	f.reqs[stage] = append(f.reqs[stage], req)
	if err := f.errs[stage]; err != nil {
		return "", err
	}
	queue, ok := f.replies[stage]
	if !ok || len(queue) == 0 {
		return "", fmt.Errorf("no reply scripted for stage %q", stage)
	}
	if n >= len(queue) {
		n = len(queue) - 1
	}
	return queue[n], nil
}

func (f *fakeLLM) count(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeLLM) lastRequest(stage string) llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	reqs := f.reqs[stage]
	return reqs[len(reqs)-1]
}

// fakeRetriever returns scripted hits per query and counts searches
type fakeRetriever struct {
	mu      sync.Mutex
	hits    map[string][]models.SearchHit
	err     error
	queries []string
}

func (r *fakeRetriever) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.hits[query], nil
}

func (r *fakeRetriever) searched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

var _ retriever.Retriever = (*fakeRetriever)(nil)

const (
	breathTestClaim = "The breath test must be taken within two hours of driving"

	classificationJSON = `{
		"jurisdiction": {"country": "Canada", "region": "Ontario", "confidence": 0.9},
		"practice_area": "Criminal Law",
		"urgency_level": "CRITICAL",
		"urgency_indicators": ["arrested"],
		"missing_facts": ["breath test result"]
	}`

	planJSON = `{
		"queries": ["impaired driving breath test timing", "first appearance Ontario"],
		"preferred_source_types": ["primary_law"],
		"must_cover": ["breath test"],
		"chunk_limit": 8
	}`

	reasoningJSON = `{
		"statutory_layer": {"governing_laws": ["Criminal Code s. 320.14"], "authority": "federal", "federal_vs_provincial": "federal"},
		"procedural_layer": {"forms_required": [], "deadlines": ["first appearance"], "service_requirements": [], "eligibility_thresholds": [], "common_procedural_failures": []},
		"defence_exception_layer": {"exemptions": [], "credits_refunds": [], "defences": ["timing of the test"], "offsets": [], "what_facts_change_outcome": []},
		"practical_outcome_layer": {"what_usually_happens": ["licence suspension"], "institutional_behavior": "", "common_user_mistakes": [], "strategic_considerations": []},
		"evidence_requirements": {"documents_needed": ["test certificate"], "witness_types": [], "proof_of_service": []},
		"citation_map": [{"claim": "The breath test must be taken within two hours of driving", "supporting_chunk_ids": ["chunk-1"], "source_authority": "primary"}],
		"missing_in_sources": [],
		"anxiety_factors": ["jail"]
	}`

	goodDraft = "Right now, the biggest risk is what you say before you speak to a lawyer. The Crown's job is not to hear your side at this stage, and the court will look at what you said that night.\n" +
		"What usually happens next is a first appearance within 30 days. In practice the timeline depends on disclosure.\n" +
		"The most common mistake is talking to police without advice, and what not to say matters as much as what you do say. Written evidence matters more than memory.\n" +
		"You must disclose the charge if an insurer asks.\n" +
		"The breath test must be taken within two hours of driving."

	badDraft = "Quick Take: you are in trouble.\nOption A: plead guilty.\nOption B: fight it."
)

// dui retriever: two queries, three distinct hits each, the breath-test
// passage is the only primary source
func duiRetriever() *fakeRetriever {
	statute := map[string]interface{}{retriever.MetaAuthority: "statute", retriever.MetaURL: "https://laws.example/cc-320"}
	return &fakeRetriever{hits: map[string][]models.SearchHit{
		"impaired driving breath test timing": {
			{ID: "a1", Text: "Under the Criminal Code the breath test must be taken within two hours of driving.", Source: "Criminal Code s. 320.31", Score: 0.7, Metadata: statute},
			{ID: "a2", Text: "Roadside screening devices give a pass, warn or fail reading.", Source: "Police guide", Score: 0.9},
			{ID: "a3", Text: "A refusal to provide a sample is a separate offence.", Source: "Legal blog", Score: 0.8},
		},
		"first appearance Ontario": {
			{ID: "b1", Text: "The first appearance is usually a few weeks after the charge.", Source: "Court services", Score: 0.85},
			{ID: "b2", Text: "Disclosure is provided by the Crown before a plea is entered.", Source: "Legal aid", Score: 0.75},
			{ID: "b3", Text: "Licence suspensions start at the roadside and run separately from the charge.", Source: "Ministry of Transportation", Score: 0.6},
		},
	}}
}

func duiLLM() *fakeLLM {
	return newFakeLLM().
		on(StageClassify, classificationJSON).
		on(StagePlan, planJSON).
		on(StageReason, reasoningJSON).
		on(StageWrite, goodDraft)
}
