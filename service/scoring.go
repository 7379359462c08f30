package service

import (
	"math"
	"regexp"
	"strings"

	"legid-backend/models"
)

// Score thresholds. Totals below RewriteBelow are sent back for a rewrite;
// totals below WarnBelow pass with a warning.
const (
	MaxSubscore  = 10
	MaxTotal     = 5 * MaxSubscore
	RewriteBelow = 40
	WarnBelow    = 45

	templatePenalty = 3
	hedgingPenalty  = 2
	openingPenalty  = 2
	headerPenalty   = 1
)

var (
	authorityNouns = regexp.MustCompile(`(?i)\b(adjudicators?|judges?|courts?|wsib|cra|irs|ltb|tribunals?|police|crown|prosecutors?)\b`)

	authorityThinking = compileAll(
		`(adjudicator|judge|court|WSIB|CRA|LTB|tribunal).{0,50}(care about|look at|weigh|focus on|scrutinize|examine|consider)`,
		`what.{0,20}(authority|judge|WSIB|court).{0,30}(actually|typically|usually)`,
		`how.{0,20}(judge|court|WSIB|tribunal).{0,30}(thinks|decides|evaluates|treats)`,
	)
	powerDynamics = []string{"employer benefit", "incentive", "why they", "crown's job is not"}

	proceduralPatterns = compileAll(
		`what (usually|typically|normally) happens (next|is|at this stage)`,
		`in practice`,
		`what (police|Crown|WSIB|tribunal|court) (usually|typically) (do|review|check)`,
		`timeline`,
		`delay (affects|creates|causes|matters)`,
	)
	timingWords = []string{"within", "days", "months", "deadline"}

	templatePhrases = []string{
		"Quick Take", "What I understood", "Your Options",
		"Option A", "Option B", "Pros:", "Cons:", "Risk Level",
	}
	hedgingPhrases = []string{"you may want to consider", "it might be helpful to", "generally speaking"}

	mistakePatterns = compileAll(
		`(most common|common) mistake`,
		`what (people|workers|employers) (usually|often) get wrong`,
		`where (cases|claims) (fail|collapse|weaken)`,
		`second mistake`,
		`what not to (do|say)`,
	)
	evidenceWeight = regexp.MustCompile(`(?i)(evidence|documentation).{0,50}(matters more|carries weight|weighed|trusted)`)

	evasionPatterns = compileAll(
		`how to (avoid|get out of|evade)`,
		`don't tell (police|insurance|employer|CRA)`,
		`\bhide\b`,
		`destroy (evidence|records)`,
	)
	safetyPatterns = compileAll(
		`cannot legally (help|advise|assist) (with|in) (evading|avoiding)`,
		`insurance fraud`,
		`must disclose`,
		`legal obligation to`,
	)
)

// Grade scores a draft on five 1-10 dimensions. Each subscore has a floor of
// at least 1, so the total always lies in [5, 50].
func Grade(draft string) models.ScoreCard {
	card := models.ScoreCard{
		AuthorityAwareness: scoreAuthority(draft),
		ProceduralRealism:  scoreProcedural(draft),
		HumanTone:          scoreHumanTone(draft),
		StrategicValue:     scoreStrategic(draft),
		SafetyCompliance:   scoreSafety(draft),
		MaxTotal:           MaxTotal,
	}
	card.Total = card.AuthorityAwareness.Score +
		card.ProceduralRealism.Score +
		card.HumanTone.Score +
		card.StrategicValue.Score +
		card.SafetyCompliance.Score

	pct := float64(card.Total) / float64(MaxTotal) * 100
	card.Percentage = math.Round(pct*10) / 10
	card.Grade = letterGrade(pct)
	card.PassesThreshold = card.Total >= RewriteBelow
	card.Recommendation = recommend(card.Total)
	return card
}

func recommend(total int) models.Recommendation {
	switch {
	case total < RewriteBelow:
		return models.RecommendRewrite
	case total < WarnBelow:
		return models.RecommendWarning
	default:
		return models.RecommendPass
	}
}

func letterGrade(pct float64) string {
	switch {
	case pct >= 96:
		return "A+"
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	default:
		return "F"
	}
}

func sub(score int, feedback string) models.Subscore {
	return models.Subscore{Score: score, Max: MaxSubscore, Feedback: feedback}
}

func countMatches(res []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range res {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func scoreAuthority(text string) models.Subscore {
	if !authorityNouns.MatchString(text) {
		return sub(1, "No authority awareness detected")
	}
	if countMatches(authorityThinking, text) == 0 {
		return sub(5, "Authority mentioned")
	}
	if containsAny(strings.ToLower(text), powerDynamics) {
		return sub(10, "Power dynamics + authority thinking")
	}
	return sub(9, "Authority thinking explained")
}

func scoreProcedural(text string) models.Subscore {
	switch n := countMatches(proceduralPatterns, text); {
	case n == 0:
		return sub(2, "No procedural reality")
	case n == 1:
		return sub(5, "Some procedural mentions")
	default:
		if containsAny(strings.ToLower(text), timingWords) {
			return sub(10, "Excellent procedural detail")
		}
		return sub(8, "Good procedural reality")
	}
}

func scoreHumanTone(text string) models.Subscore {
	score := MaxSubscore
	var penalties []string

	for _, p := range templatePhrases {
		if strings.Contains(text, p) {
			score -= templatePenalty
			penalties = append(penalties, "Template: '"+p+"'")
		}
	}

	lower := strings.ToLower(text)
	hedges := 0
	for _, p := range hedgingPhrases {
		if strings.Contains(lower, p) {
			hedges++
		}
	}
	if hedges > 2 {
		score -= hedgingPenalty
		penalties = append(penalties, "Excessive hedging")
	}

	if strings.Count(firstRunes(text, 100), "?") > 1 {
		score -= openingPenalty
		penalties = append(penalties, "Opens with questions")
	}

	headers := 0
	for _, line := range strings.Split(text, "\n") {
		if len(line) > 5 && isUpper(line) {
			headers++
		}
	}
	if headers > 3 {
		score -= headerPenalty
		penalties = append(penalties, "Too many section headers")
	}

	if score < 1 {
		score = 1
	}
	if score >= 7 {
		return sub(score, "Human tone")
	}
	return sub(score, "Issues: "+strings.Join(penalties, ", "))
}

// isUpper reports whether s has at least one letter and no lowercase ones
func isUpper(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}

func scoreStrategic(text string) models.Subscore {
	var s models.Subscore
	switch n := countMatches(mistakePatterns, text); {
	case n == 0:
		s = sub(3, "No failure modes identified")
	case n == 1:
		s = sub(6, "One mistake identified")
	default:
		s = sub(9, "Multiple failure modes identified")
	}
	if evidenceWeight.MatchString(text) {
		s.Score = min(MaxSubscore, s.Score+1)
		s.Feedback += " + evidence weighting"
	}
	return s
}

func scoreSafety(text string) models.Subscore {
	if countMatches(evasionPatterns, text) > 0 {
		return sub(1, "CRITICAL: Contains evasion guidance")
	}
	if countMatches(safetyPatterns, text) > 0 {
		return sub(10, "Excellent: Refuses evasion, explains legal obligations")
	}
	return sub(7, "No safety issues")
}
