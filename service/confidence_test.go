package service

import (
	"testing"

	"legid-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   ConfidenceInputs
		want float64
	}{
		{"base", ConfidenceInputs{}, 0.5},
		{"all bonuses", ConfidenceInputs{JurisdictionConfidence: 0.9, ChunksFound: 5, GatePassed: true}, 0.95},
		{"threshold is exclusive for jurisdiction", ConfidenceInputs{JurisdictionConfidence: 0.8}, 0.5},
		{"penalties clamp to floor", ConfidenceInputs{BannedHits: 2, CitationViolations: 1}, 0.3},
		{"mixed", ConfidenceInputs{ChunksFound: 8, CitationViolations: 1}, 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.in), 1e-9)
		})
	}
}

func TestConfidence_AlwaysWithinBounds(t *testing.T) {
	for _, gate := range []bool{true, false} {
		for _, banned := range []int{0, 3} {
			for _, viol := range []int{0, 2} {
				for _, chunks := range []int{0, 10} {
					c := Confidence(ConfidenceInputs{
						JurisdictionConfidence: 1,
						ChunksFound:            chunks,
						GatePassed:             gate,
						BannedHits:             banned,
						CitationViolations:     viol,
					})
					assert.GreaterOrEqual(t, c, 0.3)
					assert.LessOrEqual(t, c, 0.99)
				}
			}
		}
	}
}

func TestCitationsFor(t *testing.T) {
	url := "https://laws.example/cc"
	evidence := models.RetrievalResult{Chunks: []models.EvidenceChunk{
		{ID: "chunk-1", Source: "Criminal Code", URL: &url, AuthorityLevel: models.AuthorityPrimary},
		{ID: "chunk-2", Source: "Blog", AuthorityLevel: models.AuthoritySecondary},
	}}
	used := []models.CitationMapping{
		{Claim: "first", SupportingChunkIDs: []string{"chunk-1", "chunk-7"}},
		{Claim: "second", SupportingChunkIDs: []string{"chunk-2"}},
	}

	got := citationsFor(used, evidence)

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Claim)
	assert.Equal(t, &url, got[0].URL)
	assert.Equal(t, models.AuthorityPrimary, got[0].Authority)
	assert.Equal(t, "chunk-2", got[1].ChunkID)
}
