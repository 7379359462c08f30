package service

import (
	"fmt"
	"regexp"

	"legid-backend/models"
)

type severityGroup struct {
	level      models.UrgencyLevel
	label      string
	confidence float64
	patterns   []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Groups are checked in order; the first group with any match wins.
// Confidences are fixed per level and do not depend on match count.
var severityGroups = []severityGroup{
	{
		level: models.UrgencyCritical, label: "Critical", confidence: 0.95,
		patterns: compileAll(
			`\b(crashed|hit|killed|died|death|fatality)\b`,
			`\b(serious injury|severe injury|hospitalized)\b`,
			`\b(overdose|suicide attempt)\b`,
			`\barrested\b`,
			`\b(shooting|stabbing|assault causing bodily harm)\b`,
			`\b(streetcar|pedestrian struck|hit and run)\b`,
			`\bdeportation order\b`,
			`\bwarrant\b`,
		),
	},
	{
		level: models.UrgencyHigh, label: "High", confidence: 0.85,
		patterns: compileAll(
			`\b(DUI|impaired|drunk driving|breathalyzer)\b`,
			`\b(criminal charge|charged with|arraignment)\b`,
			`\b(WSIB|workers.?comp|workplace injury)\b`,
			`\b(eviction notice|Form N4|losing home)\b`,
			`\b(fired|terminated|wrongful dismissal)\b`,
			`\b(immigration denied|visa refused)\b`,
			`\b(assault|theft|fraud) charge\b`,
		),
	},
	{
		level: models.UrgencyMedium, label: "Medium", confidence: 0.75,
		patterns: compileAll(
			`\b(landlord|tenant|rent dispute|lease)\b`,
			`\b(employment issue|workplace dispute)\b`,
			`\b(tax issue|CRA|IRS audit)\b`,
			`\b(small claims|civil suit)\b`,
			`\b(divorce|custody|support)\b`,
		),
	},
	{
		level: models.UrgencyLow, label: "Low", confidence: 0.6,
		patterns: compileAll(
			`\b(what is|how does|explain|definition)\b`,
			`\b(general question|just wondering|curious about)\b`,
			`\b(can you tell me about)\b`,
		),
	},
}

var behaviorRules = map[models.UrgencyLevel]models.BehaviorRules{
	models.UrgencyCritical: {
		NoQuestionsFirst: true,
		NoTemplates:      true,
		NoCasualLanguage: true,
		Tone:             "firm, grounded, containment-focused",
		OpeningStyle:     "Right now, the biggest risk is...",
		Focus:            "What authorities will do NEXT, what makes things worse immediately",
		Temperature:      0.18,
	},
	models.UrgencyHigh: {
		NoQuestionsFirst: true,
		NoTemplates:      true,
		Tone:             "serious, authority-aware, risk-conscious",
		OpeningStyle:     "At this stage, what matters most is...",
		Focus:            "Risks, authority behavior, irreversible mistakes",
		Temperature:      0.20,
	},
	models.UrgencyMedium: {
		NoTemplates:  true,
		Tone:         "professional, leverage-aware",
		OpeningStyle: "This situation involves...",
		Focus:        "Leverage, consequences, common mistakes",
		Temperature:  0.22,
	},
	models.UrgencyLow: {
		Tone:         "calm, explanatory, educational",
		OpeningStyle: "Here's how this generally works...",
		Focus:        "Process explanation, basic understanding",
		Temperature:  0.25,
	},
}

// RulesFor returns the writing rules of a level. Unknown levels get the MEDIUM rules.
func RulesFor(level models.UrgencyLevel) models.BehaviorRules {
	if r, ok := behaviorRules[level]; ok {
		return r
	}
	return behaviorRules[models.UrgencyMedium]
}

// ClassifySeverity pattern-matches a question into an urgency level. It is
// total and deterministic: no match resolves to LOW. Indicators list every
// match inside the winning group as "<Level>: <matched text>".
func ClassifySeverity(question string) models.SeverityResult {
	for _, g := range severityGroups {
		var indicators []string
		for _, re := range g.patterns {
			if m := re.FindString(question); m != "" {
				indicators = append(indicators, fmt.Sprintf("%s: %s", g.label, m))
			}
		}
		if len(indicators) == 0 {
			continue
		}
		return models.SeverityResult{
			Level:      g.level,
			Confidence: g.confidence,
			Indicators: indicators,
			Rules:      RulesFor(g.level),
		}
	}
	return models.SeverityResult{
		Level:      models.UrgencyLow,
		Confidence: 0.6,
		Indicators: []string{"Default: informational"},
		Rules:      RulesFor(models.UrgencyLow),
	}
}
