package models

import "strings"

// AuthorityLevel represents how much weight a source carries
type AuthorityLevel string

const (
	AuthorityPrimary   AuthorityLevel = "primary"
	AuthorityOfficial  AuthorityLevel = "official"
	AuthoritySecondary AuthorityLevel = "secondary"
)

// ParseAuthorityLevel maps retriever metadata and source types onto the three
// authority levels. Anything unrecognised is secondary.
func ParseAuthorityLevel(s string) AuthorityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "primary_law", "statute", "regulation", "legislation":
		return AuthorityPrimary
	case "official", "official_guidance", "tribunal_or_court", "case_law", "tribunal_decision", "guidance":
		return AuthorityOfficial
	default:
		return AuthoritySecondary
	}
}

// Rank orders authority levels, lower is stronger
func (a AuthorityLevel) Rank() int {
	switch a {
	case AuthorityPrimary:
		return 0
	case AuthorityOfficial:
		return 1
	default:
		return 2
	}
}

// SearchHit is one raw result returned by a retriever backend
type SearchHit struct {
	ID       string                 `json:"id,omitempty"`
	Text     string                 `json:"text"`
	Source   string                 `json:"source"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EvidenceChunk represents a retrieved passage admitted into the evidence set.
// ID is the label the reasoner cites in its citation map.
type EvidenceChunk struct {
	ID             string         `json:"chunk_id"`
	SourceID       string         `json:"source_id,omitempty"`
	Text           string         `json:"text"`
	Source         string         `json:"source"`
	URL            *string        `json:"url,omitempty"`
	AuthorityLevel AuthorityLevel `json:"authority"`
	SourceType     SourceType     `json:"source_type,omitempty"`
	RelevanceScore float64        `json:"score"`
}

// SourceType names the kinds of evidence a retrieval plan may prefer
type SourceType string

const (
	SourcePrimaryLaw       SourceType = "primary_law"
	SourceOfficialGuidance SourceType = "official_guidance"
	SourceTribunalOrCourt  SourceType = "tribunal_or_court"
	SourceCaseLaw          SourceType = "case_law"
	SourceSecondary        SourceType = "secondary"
)

// ParseSourceType maps a stored source type (statute, guidance, ...) onto the
// plan vocabulary. Anything unrecognised is secondary.
func ParseSourceType(s string) SourceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary_law", "statute", "regulation", "legislation":
		return SourcePrimaryLaw
	case "official_guidance", "guidance":
		return SourceOfficialGuidance
	case "tribunal_or_court", "tribunal_decision", "court_decision":
		return SourceTribunalOrCourt
	case "case_law":
		return SourceCaseLaw
	default:
		return SourceSecondary
	}
}

// RetrievalPlan is the query expansion emitted by the LLM
type RetrievalPlan struct {
	Queries              []string     `json:"queries"`
	PreferredSourceTypes []SourceType `json:"preferred_source_types"`
	MustCover            []string     `json:"must_cover"`
	ChunkLimit           int          `json:"chunk_limit"`
}

// RetrievalResult is the bounded evidence set handed to the reasoner
type RetrievalResult struct {
	QueriesUsed      []string        `json:"queries_used"`
	Chunks           []EvidenceChunk `json:"chunks"`
	TotalChunksFound int             `json:"total_chunks_found"`
	MustCover        []string        `json:"must_cover,omitempty"`
}

// ChunkByID returns the chunk with the given label
func (r RetrievalResult) ChunkByID(id string) (EvidenceChunk, bool) {
	for _, c := range r.Chunks {
		if c.ID == id {
			return c, true
		}
	}
	return EvidenceChunk{}, false
}
