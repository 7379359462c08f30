package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"legid-backend/models"
	"legid-backend/prompts"
	"legid-backend/retriever"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieve_NoRetrieverIsEmpty(t *testing.T) {
	fake := newFakeLLM()
	o := NewRetrievalOrchestrator(fake, nil, prompts.Default(), DefaultPolicy())

	res, fallback, err := o.Retrieve(context.Background(), "question", models.DefaultClassification())

	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Empty(t, res.Chunks)
	assert.NotNil(t, res.Chunks)
	assert.Zero(t, res.TotalChunksFound)
	assert.Zero(t, fake.count(StagePlan))
}

func TestRetrieve_RanksByAuthorityAndLabelsChunks(t *testing.T) {
	fake := newFakeLLM().on(StagePlan, planJSON)
	r := duiRetriever()
	o := NewRetrievalOrchestrator(fake, r, prompts.Default(), DefaultPolicy())

	res, fallback, err := o.Retrieve(context.Background(), "I was arrested for DUI", models.DefaultClassification())

	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, []string{"impaired driving breath test timing", "first appearance Ontario"}, res.QueriesUsed)
	require.Len(t, res.Chunks, 6)
	assert.Equal(t, 6, res.TotalChunksFound)

	first := res.Chunks[0]
	assert.Equal(t, "chunk-1", first.ID)
	assert.Equal(t, models.AuthorityPrimary, first.AuthorityLevel)
	assert.Equal(t, "a1", first.SourceID)
	require.NotNil(t, first.URL)
	assert.Equal(t, "https://laws.example/cc-320", *first.URL)

	// the rest are secondary and ordered by score
	assert.Equal(t, "a2", res.Chunks[1].SourceID)
	assert.Equal(t, "b1", res.Chunks[2].SourceID)
	for i, c := range res.Chunks {
		assert.Equal(t, fmt.Sprintf("chunk-%d", i+1), c.ID)
	}
}

func TestRetrieve_CapsAndDedupsQueries(t *testing.T) {
	queries := make([]string, 0, 12)
	for i := 0; i < 10; i++ {
		queries = append(queries, fmt.Sprintf(`"query %d"`, i))
	}
	queries = append([]string{`"Query 0"`, `"  "`}, queries...)
	plan := `{"queries": [` + strings.Join(queries, ",") + `]}`

	r := &fakeRetriever{}
	o := NewRetrievalOrchestrator(newFakeLLM().on(StagePlan, plan), r, prompts.Default(), DefaultPolicy())

	res, _, err := o.Retrieve(context.Background(), "q", models.DefaultClassification())

	require.NoError(t, err)
	assert.Len(t, res.QueriesUsed, 8)
	assert.Equal(t, "Query 0", res.QueriesUsed[0])
	assert.NotContains(t, res.QueriesUsed, "query 0")
	assert.Len(t, r.searched(), 8)
}

func TestRetrieve_DedupsByTextPrefix(t *testing.T) {
	shared := strings.Repeat("The limitation period is two years. ", 4)
	r := &fakeRetriever{hits: map[string][]models.SearchHit{
		"one": {{ID: "x", Text: shared + "First ending.", Source: "A", Score: 0.9}},
		"two": {
			{ID: "y", Text: strings.ToUpper(shared) + "Second ending.", Source: "B", Score: 0.95},
			{ID: "z", Text: "A different passage entirely.", Source: "C", Score: 0.5},
		},
	}}
	plan := `{"queries": ["one", "two"]}`
	o := NewRetrievalOrchestrator(newFakeLLM().on(StagePlan, plan), r, prompts.Default(), DefaultPolicy())

	res, _, err := o.Retrieve(context.Background(), "q", models.DefaultClassification())

	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "x", res.Chunks[0].SourceID, "first occurrence wins")
	assert.Equal(t, "z", res.Chunks[1].SourceID)
	assert.Equal(t, 2, res.TotalChunksFound)
}

func TestRetrieve_PreferredSourceTypeBreaksAuthorityTies(t *testing.T) {
	guidance := map[string]interface{}{retriever.MetaSourceType: "guidance"}
	decision := map[string]interface{}{retriever.MetaSourceType: "tribunal_decision"}
	r := &fakeRetriever{hits: map[string][]models.SearchHit{
		"notice": {
			{ID: "t1", Text: "The board found the notice defective.", Source: "LTB decision", Score: 0.9, Metadata: decision},
			{ID: "g1", Text: "A landlord must use the N12 form.", Source: "LTB brochure", Score: 0.5, Metadata: guidance},
			{ID: "s1", Text: "Notice rules in plain language.", Source: "Blog", Score: 0.99},
		},
	}}
	plan := `{"queries": ["notice"], "preferred_source_types": ["official_guidance"], "must_cover": [" notice period ", ""]}`
	o := NewRetrievalOrchestrator(newFakeLLM().on(StagePlan, plan), r, prompts.Default(), DefaultPolicy())

	res, _, err := o.Retrieve(context.Background(), "q", models.DefaultClassification())

	require.NoError(t, err)
	require.Len(t, res.Chunks, 3)
	assert.Equal(t, "g1", res.Chunks[0].SourceID)
	assert.Equal(t, models.SourceOfficialGuidance, res.Chunks[0].SourceType)
	assert.Equal(t, "t1", res.Chunks[1].SourceID)
	assert.Equal(t, models.SourceTribunalOrCourt, res.Chunks[1].SourceType)
	assert.Equal(t, "s1", res.Chunks[2].SourceID, "preference never lifts a chunk above a stronger authority")
	assert.Equal(t, []string{"notice period"}, res.MustCover)
}

func TestRetrieve_PlanMayLowerChunkLimit(t *testing.T) {
	plan := `{"queries": ["impaired driving breath test timing", "first appearance Ontario"], "chunk_limit": 2}`
	o := NewRetrievalOrchestrator(newFakeLLM().on(StagePlan, plan), duiRetriever(), prompts.Default(), DefaultPolicy())

	res, _, err := o.Retrieve(context.Background(), "q", models.DefaultClassification())

	require.NoError(t, err)
	assert.Len(t, res.Chunks, 2)
	assert.Equal(t, 6, res.TotalChunksFound)
}

func TestRetrieve_UnparseablePlanSearchesQuestion(t *testing.T) {
	r := &fakeRetriever{}
	o := NewRetrievalOrchestrator(newFakeLLM().on(StagePlan, "I cannot produce JSON today"), r, prompts.Default(), DefaultPolicy())

	res, fallback, err := o.Retrieve(context.Background(), "Can I be evicted in winter?", models.DefaultClassification())

	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, []string{"Can I be evicted in winter?"}, res.QueriesUsed)
	assert.Equal(t, []string{"Can I be evicted in winter?"}, r.searched())
}

func TestRetrieve_RetrieverFailureIsUpstream(t *testing.T) {
	cause := errors.New("connection refused")
	r := &fakeRetriever{err: cause}
	o := NewRetrievalOrchestrator(newFakeLLM().on(StagePlan, planJSON), r, prompts.Default(), DefaultPolicy())

	_, _, err := o.Retrieve(context.Background(), "q", models.DefaultClassification())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, StageRetrieve, ue.Stage)
}

func TestRetrieve_PlanFailureIsUpstream(t *testing.T) {
	o := NewRetrievalOrchestrator(newFakeLLM().fail(StagePlan, errors.New("503")), &fakeRetriever{}, prompts.Default(), DefaultPolicy())

	_, _, err := o.Retrieve(context.Background(), "q", models.DefaultClassification())

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, StagePlan, ue.Stage)
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "the rule applies", DedupKey("  The   rule\napplies ", 100))
	assert.Equal(t, "abc", DedupKey("ABCDEF", 3))
}

func TestDedupHits_WhitespacePaddedSharedPrefix(t *testing.T) {
	shared := "Section 253" + strings.Repeat(" ", 60)
	shared += strings.Repeat("x", 100-len(shared))
	hits := []models.SearchHit{
		{ID: "a", Text: shared + " impaired operation is an offence.", Score: 0.9},
		{ID: "b", Text: shared + " the penalty is a licence suspension.", Score: 0.8},
	}

	out := dedupHits(hits, 100)

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].SourceID)
}

func TestFormatEvidence(t *testing.T) {
	out := FormatEvidence([]models.EvidenceChunk{
		{ID: "chunk-1", Source: "Criminal Code", AuthorityLevel: models.AuthorityPrimary, Text: "Text one."},
		{ID: "chunk-2", Source: "Blog", AuthorityLevel: models.AuthoritySecondary, Text: "Text two."},
	})
	assert.Equal(t, "[chunk-1 - Criminal Code] (primary)\nText one.\n\n[chunk-2 - Blog] (secondary)\nText two.", out)
}
