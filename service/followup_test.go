package service

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTopic(t *testing.T) {
	tests := []struct {
		question string
		topic    string
	}{
		{"I was charged with DUI after a roadside stop", "dui_impaired_driving"},
		{"The police detained me for an hour", "criminal_arrest"},
		{"Do I need to file a T4 if I earned nothing?", "tax_canada_usa"},
		{"My landlord gave me an N4", "landlord_tenant_eviction"},
		{"I was laid off after ten years", "employment_termination"},
		{"How does spousal support work after divorce?", "family_law"},
		{"My work permit expires next month", "immigration"},
		{"Can I sue my contractor?", "small_claims"},
		{"My parent left me a house", TopicGeneral},
		{"I have an issue with my neighbour's tree", TopicGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.topic, DetectTopic(tt.question))
		})
	}
}

func TestSuggest_TwoToFourDistinctSuggestions(t *testing.T) {
	s := NewFollowUpSuggester(nil)
	sizes := make(map[int]bool)

	for i := 0; i < 200; i++ {
		res := s.Suggest("I was arrested for DUI", "")
		n := len(res.Suggestions)
		require.GreaterOrEqual(t, n, 2)
		require.LessOrEqual(t, n, 4)
		sizes[n] = true

		seen := make(map[string]bool)
		for _, sug := range res.Suggestions {
			assert.False(t, seen[sug.Label], "duplicate suggestion %q", sug.Label)
			seen[sug.Label] = true
			assert.Equal(t, "dui_impaired_driving", sug.Intent)
			assert.Equal(t, "Canada", sug.Jurisdiction)
			assert.Equal(t, 0.85, sug.Confidence)
		}
		assert.True(t, res.ProgressiveDisclosureAvailable)
	}
	assert.Len(t, sizes, 3, "every size from 2 to 4 should appear over 200 draws")
}

func TestSuggest_GeneralTopic(t *testing.T) {
	res := NewFollowUpSuggester(nil).Suggest("Tell me something", "Ontario")

	assert.Equal(t, TopicGeneral, res.Topic)
	assert.False(t, res.ProgressiveDisclosureAvailable)
	for _, sug := range res.Suggestions {
		assert.Contains(t, generalFollowUps, sug.Label)
		assert.Equal(t, "Ontario", sug.Jurisdiction)
	}
}

func TestSuggest_SeededIsReproducible(t *testing.T) {
	a := NewFollowUpSuggester(rand.NewPCG(1, 2)).Suggest("My landlord wants to evict me", "Canada")
	b := NewFollowUpSuggester(rand.NewPCG(1, 2)).Suggest("My landlord wants to evict me", "Canada")
	assert.Equal(t, a, b)
}
