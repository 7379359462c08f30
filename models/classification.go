package models

import "strings"

// UrgencyLevel represents the coarse urgency of a legal situation. The same
// scale is used by the severity classifier and by the LLM classifier.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

// ParseUrgencyLevel normalizes free-form model output ("high", " Critical ")
// into an UrgencyLevel. Unknown values map to MEDIUM.
func ParseUrgencyLevel(s string) UrgencyLevel {
	switch UrgencyLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case UrgencyLow:
		return UrgencyLow
	case UrgencyHigh:
		return UrgencyHigh
	case UrgencyCritical:
		return UrgencyCritical
	default:
		return UrgencyMedium
	}
}

// Jurisdiction represents where the question is governed
type Jurisdiction struct {
	Country    string  `json:"country"`
	Region     string  `json:"region,omitempty"`
	Confidence float64 `json:"confidence"`
}

// String renders "Region, Country" or just the country
func (j Jurisdiction) String() string {
	if j.Region == "" || strings.EqualFold(j.Region, "unknown") {
		return j.Country
	}
	return j.Region + ", " + j.Country
}

// Classification represents the structured reading of a question produced by
// the classifier stage. Produced once per question, never mutated.
type Classification struct {
	Jurisdiction      Jurisdiction `json:"jurisdiction"`
	PracticeArea      string       `json:"practice_area"`
	UrgencyLevel      UrgencyLevel `json:"urgency_level"`
	UrgencyIndicators []string     `json:"urgency_indicators"`
	MissingFacts      []string     `json:"missing_facts"`
	TopicKeywords     []string     `json:"topic_keywords,omitempty"`
}

// DefaultClassification is substituted when the classifier output cannot be parsed
func DefaultClassification() Classification {
	return Classification{
		Jurisdiction: Jurisdiction{
			Country:    "unspecified",
			Confidence: 0.5,
		},
		PracticeArea:      "General Legal",
		UrgencyLevel:      UrgencyMedium,
		UrgencyIndicators: []string{},
		MissingFacts:      []string{},
	}
}
