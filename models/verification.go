package models

// Severity values used in verification findings
const (
	FindingCritical = "critical"
	FindingHigh     = "high"
)

// BannedPatternHit records one banned pattern found on one line of a draft
type BannedPatternHit struct {
	Pattern    string `json:"pattern"`
	Line       string `json:"line"`
	LineNumber int    `json:"line_number"`
	Severity   string `json:"severity"`
}

// CitationViolation records a claim that the cited evidence does not support
type CitationViolation struct {
	Claim    string   `json:"claim"`
	Problem  string   `json:"problem"`
	ChunkIDs []string `json:"chunk_ids,omitempty"`
	Severity string   `json:"severity"`
}

// ToneIssue records an academic or robotic phrasing signal
type ToneIssue struct {
	Issue      string `json:"issue"`
	Phrase     string `json:"phrase,omitempty"`
	Suggestion string `json:"suggestion"`
}

// VerificationResult represents the deterministic quality gate outcome. It is
// derived only from the draft, the citation map and the evidence chunks.
type VerificationResult struct {
	BannedPatternHits  []BannedPatternHit  `json:"banned_pattern_hits"`
	CitationViolations []CitationViolation `json:"citation_violations"`
	ToneIssues         []ToneIssue         `json:"tone_issues"`
	PassesGate         bool                `json:"passes_gate"`
	RequiredFixes      []string            `json:"required_fixes"`
}
