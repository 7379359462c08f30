package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSON parses model output into v. Models wrap JSON in code fences,
// add prose around it or drop the final brace, so after a plain parse fails
// it isolates the outermost object, retries with a closing brace, and finally
// runs the text through jsonrepair. The first error is returned when every
// attempt fails.
func DecodeJSON(raw string, v interface{}) error {
	text := strings.TrimSpace(raw)
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	originalErr := err

	text = extractObject(stripFences(text))
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(text+"}"), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil || !isContainer(repaired) {
		return originalErr
	}
	if err := json.Unmarshal([]byte(repaired), v); err == nil {
		return nil
	}
	return originalErr
}

// isContainer rejects repairs that turned prose into a bare string or null
func isContainer(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line ("json")
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}
