package service

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"legid-backend/models"
)

const (
	TopicGeneral = "general"

	minFollowUps       = 2
	maxFollowUps       = 4
	followUpConfidence = 0.85
)

type followUpTopic struct {
	name       string
	keywords   *regexp.Regexp
	candidates []string
}

func keywordMatcher(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	// word start only, so "rent" matches "rental" but not "parent"
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)`)
}

// Checked in order; the first topic with a keyword hit wins.
var followUpTopics = []followUpTopic{
	{
		name:     "dui_impaired_driving",
		keywords: keywordMatcher("dui", "impaired", "drunk driving", "breathalyzer", "roadside"),
		candidates: []string{
			"What happens immediately to my licence?",
			"Can I challenge the breath/blood test?",
			"Was the traffic stop lawful?",
			"What are first-offence consequences?",
			"What should I do before court?",
			"What evidence usually decides these cases?",
		},
	},
	{
		name:     "criminal_arrest",
		keywords: keywordMatcher("arrested", "police", "charter", "detained", "custody"),
		candidates: []string{
			"What should I say (or not say) right now?",
			"How does the right to counsel work in practice?",
			"What's the difference between detention and arrest?",
			"Can police search my phone/car?",
			"What happens at first appearance/bail?",
			"How do Charter/constitutional breaches get raised later?",
		},
	},
	{
		name:     "tax_canada_usa",
		keywords: keywordMatcher("tax", "file", "refund", "credit", "t4", "w-2", "cra", "irs"),
		candidates: []string{
			"Do I need to file even if I owe nothing?",
			"Which refundable credits could I qualify for?",
			"Why would I get a refund on low income?",
			"What if I didn't file for a few years?",
			"T4/T4A vs W-2/1099: what changes?",
			"Self-employed vs employee: what's different?",
		},
	},
	{
		name:     "landlord_tenant_eviction",
		keywords: keywordMatcher("evict", "landlord", "tenant", "n4", "n5", "ltb", "rent"),
		candidates: []string{
			"What notices/forms apply to my situation?",
			"What mistakes get applications dismissed?",
			"What evidence should I keep (logs, receipts, messages)?",
			"How long do timelines usually take?",
			"What tenant defences commonly come up?",
			"Can rent issues and repair issues interact (abatement)?",
		},
	},
	{
		name:     "employment_termination",
		keywords: keywordMatcher("fired", "termination", "severance", "wrongful dismissal", "laid off"),
		candidates: []string{
			"Just cause vs without cause: what's the difference?",
			"What am I entitled to (notice, severance, pay in lieu)?",
			"Can I be fired while on sick leave?",
			"What is constructive dismissal?",
			"How do I calculate what I'm owed?",
			"What evidence should I gather now?",
		},
	},
	{
		name:     "family_law",
		keywords: keywordMatcher("custody", "support", "divorce", "separation", "spousal"),
		candidates: []string{
			"How is child support calculated?",
			"What's the difference between legal and physical custody?",
			"Do I need court approval to move with the children?",
			"Can support orders be changed later?",
			"What happens if support isn't paid?",
			"How long does the process usually take?",
		},
	},
	{
		name:     "immigration",
		keywords: keywordMatcher("immigration", "visa", "work permit", "citizenship", "refugee"),
		candidates: []string{
			"What documents do I need?",
			"How long does processing usually take?",
			"What happens if my application is refused?",
			"Can I work/study while waiting?",
			"What are common reasons for rejection?",
			"Should I use an immigration consultant or lawyer?",
		},
	},
	{
		name:     "small_claims",
		keywords: keywordMatcher("small claims", "sue", "lawsuit", "court claim"),
		candidates: []string{
			"What's the monetary limit in my province/state?",
			"What evidence do I need to prove my case?",
			"How do I serve the defendant?",
			"What happens if they don't respond?",
			"Can I get a lawyer for small claims?",
			"What if I win but they don't pay?",
		},
	},
}

var generalFollowUps = []string{
	"Can you explain the process step-by-step?",
	"What are common mistakes to avoid?",
	"What evidence or documents matter?",
	"What usually happens in practice?",
}

// Topics where the next answer can go one level deeper
var progressiveTopics = map[string]bool{
	"criminal_arrest":          true,
	"landlord_tenant_eviction": true,
	"dui_impaired_driving":     true,
}

// FollowUpSuggester samples suggested next questions from a topic bucket.
// Sampling is random on purpose; repeated calls may differ.
type FollowUpSuggester struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFollowUpSuggester creates a suggester. src may be nil for the global
// random source; tests pass a seeded one.
func NewFollowUpSuggester(src rand.Source) *FollowUpSuggester {
	s := &FollowUpSuggester{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

// DetectTopic returns the follow-up bucket of a question
func DetectTopic(question string) string {
	for _, t := range followUpTopics {
		if t.keywords.MatchString(question) {
			return t.name
		}
	}
	return TopicGeneral
}

func candidatesFor(topic string) []string {
	for _, t := range followUpTopics {
		if t.name == topic {
			return t.candidates
		}
	}
	return generalFollowUps
}

// Suggest returns 2 to 4 suggestions drawn without replacement
func (s *FollowUpSuggester) Suggest(question, jurisdiction string) models.FollowUpResult {
	topic := DetectTopic(question)
	pool := append([]string(nil), candidatesFor(topic)...)
	if jurisdiction == "" || strings.EqualFold(jurisdiction, "unspecified") {
		jurisdiction = "Canada"
	}

	n := s.intN(maxFollowUps-minFollowUps+1) + minFollowUps
	if n > len(pool) {
		n = len(pool)
	}
	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	suggestions := make([]models.FollowUpSuggestion, 0, n)
	for _, label := range pool[:n] {
		suggestions = append(suggestions, models.FollowUpSuggestion{
			Label:        label,
			Intent:       topic,
			Jurisdiction: jurisdiction,
			Confidence:   followUpConfidence,
		})
	}
	return models.FollowUpResult{
		Suggestions:                    suggestions,
		ProgressiveDisclosureAvailable: progressiveTopics[topic],
		Topic:                          topic,
	}
}

func (s *FollowUpSuggester) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *FollowUpSuggester) shuffle(n int, swap func(i, j int)) {
	if s.rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}
