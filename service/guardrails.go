package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"legid-backend/models"
)

// MinCitationOverlap is the share of claim words that must also appear in at
// least one cited chunk.
const MinCitationOverlap = 0.30

const (
	msgNoSupportingChunks = "No supporting chunks provided"
	msgWeakSupport        = "Chunks do not sufficiently support this claim"
)

type bannedPattern struct {
	label string
	re    *regexp.Regexp
}

// Scanned in this order, line by line. Labels are what verification reports.
// Heading phrases match anywhere in a line, including inside longer words.
var bannedPatterns = []bannedPattern{
	{"Quick Take", regexp.MustCompile(`(?i)quick take`)},
	{"What I Understood", regexp.MustCompile(`(?i)what i understood`)},
	{"Your Options", regexp.MustCompile(`(?i)your options?`)},
	{"Option A/B", regexp.MustCompile(`(?i)\boption [ab12]\b`)},
	{"Pros:", regexp.MustCompile(`(?i)\bpros\s*:`)},
	{"Cons:", regexp.MustCompile(`(?i)\bcons\s*:`)},
	{"Risk Level", regexp.MustCompile(`(?i)risk level`)},
	{"TITLE:", regexp.MustCompile(`(?i)\btitle\s*:`)},
	{"Option N:", regexp.MustCompile(`(?i)\boption \d+\s*[-:]`)},
	{"Choice A/B", regexp.MustCompile(`(?i)\bchoice [ab12]\b`)},
	{"Path A/B", regexp.MustCompile(`(?i)\bpath [ab12]\b`)},
	{"Advantages:", regexp.MustCompile(`(?i)\badvantages?:`)},
	{"Disadvantages:", regexp.MustCompile(`(?i)\bdisadvantages?:`)},
	{"Benefits:", regexp.MustCompile(`(?i)\bbenefits?:`)},
	{"Drawbacks:", regexp.MustCompile(`(?i)\bdrawbacks?:`)},
	{"⚖", regexp.MustCompile(`\x{2696}`)},
	{"\U0001F4CB", regexp.MustCompile(`\x{1F4CB}`)},
	{"✅", regexp.MustCompile(`\x{2705}`)},
	{"❌", regexp.MustCompile(`\x{274C}`)},
	{"\U0001F50D", regexp.MustCompile(`\x{1F50D}`)},
	{"⚠", regexp.MustCompile(`\x{26A0}`)},
	{"\U0001F4A1", regexp.MustCompile(`\x{1F4A1}`)},
	{"\U0001F4CA", regexp.MustCompile(`\x{1F4CA}`)},
	{"\U0001F3DB", regexp.MustCompile(`\x{1F3DB}`)},
}

var academicPhrases = []string{
	"it is important to note that",
	"it should be noted that",
	"it is worth noting",
	"pursuant to",
	"heretofore",
	"aforementioned",
}

var clarifyingOpeners = []string{
	"could you clarify",
	"can you provide",
	"what province",
	"which jurisdiction",
}

var caseLawPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bR\s+v\.?\s+\w+`),
	regexp.MustCompile(`\w+\s+v\.?\s+\w+\s+\(\d{4}\)`),
	regexp.MustCompile(`\[20\d{2}\]\s+SCC\s+\d+`),
	regexp.MustCompile(`\d+\s+S\.?C\.?R\.?\s+\d+`),
}

// DetectBannedPatterns scans every line for template headings, menu framing
// and emojis. Line numbers are 1-based; every hit is critical.
func DetectBannedPatterns(text string) []models.BannedPatternHit {
	hits := make([]models.BannedPatternHit, 0)
	lines := strings.Split(text, "\n")
	for _, p := range bannedPatterns {
		for i, line := range lines {
			if p.re.MatchString(line) {
				hits = append(hits, models.BannedPatternHit{
					Pattern:    p.label,
					Line:       strings.TrimSpace(line),
					LineNumber: i + 1,
					Severity:   models.FindingCritical,
				})
			}
		}
	}
	return hits
}

// ValidateCitations checks every citation claim that appears in the draft
// against the chunks it cites. Claims missing from the draft are skipped.
func ValidateCitations(draft string, citations []models.CitationMapping, chunks []models.EvidenceChunk) []models.CitationViolation {
	violations := make([]models.CitationViolation, 0)
	normDraft := normalizeSpace(draft)

	byID := make(map[string]models.EvidenceChunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	for _, cm := range citations {
		claim := strings.TrimSpace(cm.Claim)
		if claim == "" || !strings.Contains(normDraft, normalizeSpace(claim)) {
			continue
		}
		if len(cm.SupportingChunkIDs) == 0 {
			violations = append(violations, models.CitationViolation{
				Claim:    claim,
				Problem:  msgNoSupportingChunks,
				Severity: models.FindingHigh,
			})
			continue
		}
		if !supported(claim, cm.SupportingChunkIDs, byID) {
			violations = append(violations, models.CitationViolation{
				Claim:    claim,
				Problem:  msgWeakSupport,
				ChunkIDs: append([]string(nil), cm.SupportingChunkIDs...),
				Severity: models.FindingHigh,
			})
		}
	}
	return violations
}

func supported(claim string, ids []string, byID map[string]models.EvidenceChunk) bool {
	claimWords := wordSet(claim)
	denom := len(claimWords)
	if denom == 0 {
		denom = 1
	}
	for _, id := range ids {
		chunk, ok := byID[strings.TrimSpace(id)]
		if !ok {
			continue
		}
		chunkWords := wordSet(chunk.Text)
		shared := 0
		for w := range claimWords {
			if _, ok := chunkWords[w]; ok {
				shared++
			}
		}
		if float64(shared)/float64(denom) >= MinCitationOverlap {
			return true
		}
	}
	return false
}

// CheckTone flags academic filler, an opening that asks the reader to
// clarify, and repeated identical line starts.
func CheckTone(text string) []models.ToneIssue {
	issues := make([]models.ToneIssue, 0)
	lower := strings.ToLower(text)

	for _, phrase := range academicPhrases {
		if strings.Contains(lower, phrase) {
			issues = append(issues, models.ToneIssue{
				Issue:      "overly academic",
				Phrase:     phrase,
				Suggestion: "Use simpler language",
			})
		}
	}

	opening := firstRunes(strings.TrimSpace(lower), 100)
	for _, phrase := range clarifyingOpeners {
		if strings.Contains(opening, phrase) {
			issues = append(issues, models.ToneIssue{
				Issue:      "opens with a clarifying question",
				Phrase:     phrase,
				Suggestion: "Answer with what is known first",
			})
			break
		}
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		start := firstRunes(line, 20)
		if seen[start] {
			issues = append(issues, models.ToneIssue{
				Issue:      "repetitive sentence starts",
				Phrase:     start,
				Suggestion: "Vary sentence structure",
			})
			break
		}
		seen[start] = true
	}
	return issues
}

// Verify runs the three deterministic checks. It has no side effects and
// returns the same result for the same input.
func Verify(draft string, citations []models.CitationMapping, chunks []models.EvidenceChunk) models.VerificationResult {
	res := models.VerificationResult{
		BannedPatternHits:  DetectBannedPatterns(draft),
		CitationViolations: ValidateCitations(draft, citations, chunks),
		ToneIssues:         CheckTone(draft),
		RequiredFixes:      make([]string, 0),
	}

	for _, h := range res.BannedPatternHits {
		res.RequiredFixes = append(res.RequiredFixes, fmt.Sprintf("Banned pattern: '%s' in line %d", h.Pattern, h.LineNumber))
	}
	for _, v := range res.CitationViolations {
		res.RequiredFixes = append(res.RequiredFixes, fmt.Sprintf("Citation issue: %s for claim '%s...'", v.Problem, firstRunes(v.Claim, 50)))
	}
	for _, t := range res.ToneIssues {
		res.RequiredFixes = append(res.RequiredFixes, fmt.Sprintf("Tone issue: %s", t.Issue))
	}

	res.PassesGate = len(res.BannedPatternHits) == 0 &&
		len(res.CitationViolations) == 0 &&
		len(res.ToneIssues) == 0
	return res
}

// CountCaseCitations counts case-law style references. Advisory only.
func CountCaseCitations(text string) int {
	n := 0
	for _, re := range caseLawPatterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// UsedCitations keeps the citation entries whose claim appears in the draft
func UsedCitations(draft string, citations []models.CitationMapping) []models.CitationMapping {
	normDraft := normalizeSpace(draft)
	used := make([]models.CitationMapping, 0, len(citations))
	for _, cm := range citations {
		claim := strings.TrimSpace(cm.Claim)
		if claim != "" && strings.Contains(normDraft, normalizeSpace(claim)) {
			used = append(used, cm)
		}
	}
	return used
}

func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func normalizeSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
