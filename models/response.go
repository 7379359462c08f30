package models

// FollowUpSuggestion is one suggested next question
type FollowUpSuggestion struct {
	Label        string  `json:"label"`
	Intent       string  `json:"intent"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// FollowUpResult is the output of the follow-up suggester
type FollowUpResult struct {
	Suggestions                    []FollowUpSuggestion `json:"suggestions"`
	ProgressiveDisclosureAvailable bool                 `json:"progressive_disclosure_available"`
	Topic                          string               `json:"topic"`
}

// Citation is a used claim joined with the chunk that supports it
type Citation struct {
	Claim     string         `json:"claim"`
	ChunkID   string         `json:"chunk_id"`
	Source    string         `json:"source"`
	URL       *string        `json:"url,omitempty"`
	Authority AuthorityLevel `json:"authority"`
}

// ResponseMetadata carries the diagnostic signals of one pipeline run
type ResponseMetadata struct {
	RequestID              string         `json:"request_id"`
	PracticeArea           string         `json:"practice_area"`
	Jurisdiction           Jurisdiction   `json:"jurisdiction"`
	Urgency                UrgencyLevel   `json:"urgency"`
	Severity               UrgencyLevel   `json:"severity"`
	SeverityConfidence     float64        `json:"severity_confidence"`
	QualityGatePassed      bool           `json:"quality_gate_passed"`
	BannedPatternsDetected int            `json:"banned_patterns_detected"`
	CitationViolations     int            `json:"citation_violations"`
	ChunksUsed             int            `json:"chunks_used"`
	QueriesUsed            int            `json:"queries_used"`
	ScoreTotal             int            `json:"score_total"`
	Recommendation         Recommendation `json:"recommendation"`
	Escalation             string         `json:"escalation,omitempty"`
	CaseCitations          int            `json:"case_citations"`
	FollowUpTopic          string         `json:"follow_up_topic"`
	Fallbacks              []string       `json:"fallbacks,omitempty"`
}

// Response is the public result of one pipeline run
type Response struct {
	Answer     string               `json:"answer"`
	FollowUps  []FollowUpSuggestion `json:"follow_ups"`
	Citations  []Citation           `json:"citations"`
	Metadata   ResponseMetadata     `json:"metadata"`
	Confidence float64              `json:"confidence"`
}
