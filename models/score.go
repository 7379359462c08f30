package models

// Recommendation is the scoring harness verdict on a draft
type Recommendation string

const (
	RecommendPass    Recommendation = "pass"
	RecommendWarning Recommendation = "warning"
	RecommendRewrite Recommendation = "rewrite"
)

// Subscore is one 1-10 scoring dimension with its feedback line
type Subscore struct {
	Score    int    `json:"score"`
	Max      int    `json:"max"`
	Feedback string `json:"feedback"`
}

// ScoreCard represents the five-dimension heuristic grade of a draft
type ScoreCard struct {
	AuthorityAwareness Subscore       `json:"authority_awareness"`
	ProceduralRealism  Subscore       `json:"procedural_realism"`
	HumanTone          Subscore       `json:"human_tone"`
	StrategicValue     Subscore       `json:"strategic_value"`
	SafetyCompliance   Subscore       `json:"safety_compliance"`
	Total              int            `json:"total_score"`
	MaxTotal           int            `json:"max_score"`
	Percentage         float64        `json:"percentage"`
	Grade              string         `json:"grade"`
	PassesThreshold    bool           `json:"passes_threshold"`
	Recommendation     Recommendation `json:"recommendation"`
}

// Feedback lists the per-dimension feedback lines in a fixed order
func (s ScoreCard) Feedback() []string {
	return []string{
		"Authority: " + s.AuthorityAwareness.Feedback,
		"Procedural: " + s.ProceduralRealism.Feedback,
		"Human: " + s.HumanTone.Feedback,
		"Strategic: " + s.StrategicValue.Feedback,
		"Safety: " + s.SafetyCompliance.Feedback,
	}
}
