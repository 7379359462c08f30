package models

// BehaviorRules is the writing policy attached to a severity level
type BehaviorRules struct {
	NoQuestionsFirst bool    `json:"no_questions_first"`
	NoTemplates      bool    `json:"no_templates"`
	NoCasualLanguage bool    `json:"no_casual_language"`
	Tone             string  `json:"tone"`
	OpeningStyle     string  `json:"opening_style"`
	Focus            string  `json:"focus"`
	Temperature      float32 `json:"temperature"`
}

// SeverityResult is the pattern-based urgency reading of a question
type SeverityResult struct {
	Level      UrgencyLevel  `json:"level"`
	Confidence float64       `json:"confidence"`
	Indicators []string      `json:"indicators"`
	Rules      BehaviorRules `json:"rules"`
}
