package llm

import (
	"regexp"
	"strings"
)

// StripFences removes a surrounding ``` or ```json fence from model output.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// SalvageObject finds the outermost {...} span in raw that mentions key.
// It is the fallback when the whole reply is not valid JSON.
func SalvageObject(raw, key string) (string, bool) {
	re := regexp.MustCompile(`(?s)\{.*"` + regexp.QuoteMeta(key) + `".*\}`)
	m := re.FindString(raw)
	return m, m != ""
}
