package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/prompts"
	"legid-backend/retriever"

	"golang.org/x/sync/errgroup"
)

// RetrievalOrchestrator expands a question into search queries, fans them
// out to the retriever and reduces the hits to a bounded evidence set.
type RetrievalOrchestrator struct {
	llm       llm.Completer
	retriever retriever.Retriever
	prompts   *prompts.Library
	policy    Policy
}

// NewRetrievalOrchestrator creates an orchestrator. r may be nil, in which
// case every retrieval returns an empty result.
func NewRetrievalOrchestrator(c llm.Completer, r retriever.Retriever, lib *prompts.Library, policy Policy) *RetrievalOrchestrator {
	return &RetrievalOrchestrator{llm: c, retriever: r, prompts: lib, policy: policy.Normalize()}
}

// Retrieve returns the evidence for a question. fallback reports that the
// query plan could not be parsed and the question itself was searched.
func (o *RetrievalOrchestrator) Retrieve(ctx context.Context, question string, cls models.Classification) (res models.RetrievalResult, fallback bool, err error) {
	empty := models.RetrievalResult{QueriesUsed: []string{}, Chunks: []models.EvidenceChunk{}}
	if o.retriever == nil {
		return empty, false, nil
	}

	plan, fallback, err := o.plan(ctx, question, cls)
	if err != nil {
		return empty, false, err
	}

	queries := o.selectQueries(question, plan.Queries)
	hits, err := o.search(ctx, queries)
	if err != nil {
		return empty, fallback, err
	}

	limit := o.policy.ChunkLimit
	if plan.ChunkLimit > 0 && plan.ChunkLimit < limit {
		limit = plan.ChunkLimit
	}

	unique := dedupHits(hits, o.policy.DedupPrefix)
	chunks := rankChunks(unique, plan.PreferredSourceTypes)
	total := len(chunks)
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("chunk-%d", i+1)
	}

	slog.Info("retrieval complete", "queries", len(queries), "hits", len(hits), "unique", total, "used", len(chunks))
	return models.RetrievalResult{
		QueriesUsed:      queries,
		Chunks:           chunks,
		TotalChunksFound: total,
		MustCover:        cleanList(plan.MustCover),
	}, fallback, nil
}

func (o *RetrievalOrchestrator) plan(ctx context.Context, question string, cls models.Classification) (models.RetrievalPlan, bool, error) {
	p, err := render(o.prompts, StagePlan, prompts.RetrievalPlan, prompts.PlanData{Question: question, Classification: cls})
	if err != nil {
		return models.RetrievalPlan{}, false, err
	}
	raw, err := callLLM(ctx, o.llm, StagePlan, p, o.policy.Plan, true)
	if err != nil {
		return models.RetrievalPlan{}, false, err
	}

	var plan models.RetrievalPlan
	if err := llm.DecodeJSON(raw, &plan); err != nil || len(cleanList(plan.Queries)) == 0 {
		slog.Warn("retrieval plan not parseable, searching the question directly", "stage", StagePlan, "error", err)
		return models.RetrievalPlan{Queries: []string{question}}, true, nil
	}
	return plan, false, nil
}

// selectQueries trims, drops duplicates and applies the query cap
func (o *RetrievalOrchestrator) selectQueries(question string, planned []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, o.policy.MaxQueries)
	for _, q := range cleanList(planned) {
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if len(out) == o.policy.MaxQueries {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, question)
	}
	return out
}

// search runs the queries concurrently. Results keep query order so the
// evidence set does not depend on scheduling.
func (o *RetrievalOrchestrator) search(ctx context.Context, queries []string) ([]models.SearchHit, error) {
	results := make([][]models.SearchHit, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.policy.RetrievalConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			hits, err := o.retriever.Search(gctx, q, o.policy.HitsPerQuery)
			if err != nil {
				return fmt.Errorf("query %q: %w", q, err)
			}
			if len(hits) > o.policy.HitsPerQuery {
				hits = hits[:o.policy.HitsPerQuery]
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstream(StageRetrieve, err)
	}

	var all []models.SearchHit
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// DedupKey is the first prefix characters of text, whitespace-normalized and
// lowercased. The cut is taken on the raw text so two passages sharing their
// first prefix characters always share a key.
func DedupKey(text string, prefix int) string {
	return normalizeSpace(firstRunes(text, prefix))
}

// dedupHits keeps the first hit for every dedup key and converts hits into
// unlabelled evidence chunks
func dedupHits(hits []models.SearchHit, prefix int) []models.EvidenceChunk {
	seen := make(map[string]bool, len(hits))
	out := make([]models.EvidenceChunk, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		key := DedupKey(h.Text, prefix)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, toChunk(h))
	}
	return out
}

func toChunk(h models.SearchHit) models.EvidenceChunk {
	c := models.EvidenceChunk{
		SourceID:       h.ID,
		Text:           strings.TrimSpace(h.Text),
		Source:         h.Source,
		RelevanceScore: h.Score,
		AuthorityLevel: models.AuthoritySecondary,
	}
	if c.Source == "" {
		c.Source = "unknown source"
	}
	st, _ := h.Metadata[retriever.MetaSourceType].(string)
	if st != "" {
		c.SourceType = models.ParseSourceType(st)
	}
	if a, ok := h.Metadata[retriever.MetaAuthority].(string); ok && a != "" {
		c.AuthorityLevel = models.ParseAuthorityLevel(a)
	} else if st != "" {
		c.AuthorityLevel = models.ParseAuthorityLevel(st)
	}
	if u, ok := h.Metadata[retriever.MetaURL].(string); ok && u != "" {
		c.URL = &u
	}
	return c
}

// rankChunks orders primary before official before secondary. Within one
// authority level, chunks of a preferred source type come first, then higher
// scores.
func rankChunks(chunks []models.EvidenceChunk, preferred []models.SourceType) []models.EvidenceChunk {
	prefer := make(map[models.SourceType]bool, len(preferred))
	for _, t := range preferred {
		prefer[models.ParseSourceType(string(t))] = true
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		ri, rj := chunks[i].AuthorityLevel.Rank(), chunks[j].AuthorityLevel.Rank()
		if ri != rj {
			return ri < rj
		}
		pi := chunks[i].SourceType != "" && prefer[chunks[i].SourceType]
		pj := chunks[j].SourceType != "" && prefer[chunks[j].SourceType]
		if pi != pj {
			return pi
		}
		return chunks[i].RelevanceScore > chunks[j].RelevanceScore
	})
	return chunks
}

// FormatEvidence renders chunks as the labelled block the reasoner reads
func FormatEvidence(chunks []models.EvidenceChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "[%s - %s] (%s)\n%s\n\n", c.ID, c.Source, c.AuthorityLevel, c.Text)
	}
	return strings.TrimSpace(b.String())
}
