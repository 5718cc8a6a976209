// Package ranker orders web search hits, favouring recent pages for
// questions about current events.
package ranker

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"prism-workers/internal/models"
)

const (
	AnswerTitle   = "AI-Generated Answer"
	SnippetLength = 500
	minYear       = 2020
)

var (
	yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

	recencyKeywords = []string{"latest", "current", "recent", "new", "updated", "now", "today"}
)

// Hit is one organic result as the provider returned it.
type Hit struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
}

// IsTimeSensitive reports whether query asks for current information. The
// current and previous years count as recency keywords.
func IsTimeSensitive(query string, now time.Time) bool {
	lower := strings.ToLower(query)
	for _, kw := range recencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	current, previous := strconv.Itoa(now.Year()), strconv.Itoa(now.Year()-1)
	for _, m := range yearPattern.FindAllStringSubmatch(lower, -1) {
		if m[1] == current || m[1] == previous {
			return true
		}
	}
	return false
}

// ExtractYear returns the latest plausible year mentioned in text, or 0.
func ExtractYear(text string, now time.Time) int {
	best := 0
	limit := now.Year() + 1
	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil || y < minYear || y > limit {
			continue
		}
		if y > best {
			best = y
		}
	}
	return best
}

// Rank sorts hits and keeps the first count. A non-empty answer is placed
// ahead of them at position 0 and does not count against count.
func Rank(hits []Hit, answer string, timeSensitive bool, count int, now time.Time) []models.SearchResult {
	type scored struct {
		Hit
		year int
	}

	ordered := make([]scored, len(hits))
	for i, h := range hits {
		ordered[i] = scored{Hit: h}
		if timeSensitive {
			ordered[i].year = ExtractYear(h.Title+" "+h.Content, now)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if timeSensitive && ordered[i].year != ordered[j].year {
			return ordered[i].year > ordered[j].year
		}
		return ordered[i].Score > ordered[j].Score
	})

	if count >= 0 && len(ordered) > count {
		ordered = ordered[:count]
	}

	results := make([]models.SearchResult, 0, len(ordered)+1)
	if answer != "" {
		results = append(results, models.SearchResult{
			Title:    AnswerTitle,
			Snippet:  answer,
			Position: 0,
			Kind:     models.ResultKindAnswer,
		})
	}

	for i, h := range ordered {
		snippet := truncate(h.Content, SnippetLength)
		if timeSensitive && h.year > 0 {
			snippet = fmt.Sprintf("[Year: %d] %s", h.year, snippet)
		}
		title := h.Title
		if title == "" {
			title = "No title"
		}
		results = append(results, models.SearchResult{
			Title:         title,
			Snippet:       snippet,
			Link:          h.URL,
			Position:      i + 1,
			Score:         h.Score,
			ExtractedYear: h.year,
			Kind:          models.ResultKindOrganic,
		})
	}
	return results
}

// Format renders ranked results as the text block handed to the student.
func Format(results []models.SearchResult) string {
	var b strings.Builder
	b.WriteString("Internet Search Results:\n\n")
	for _, r := range results {
		if r.IsAnswer() {
			fmt.Fprintf(&b, "[AI Answer] %s\n%s\n\n", r.Title, r.Snippet)
			continue
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n", r.Position, r.Title, r.Snippet)
		if r.Link != "" {
			fmt.Fprintf(&b, "Source: %s\n", r.Link)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Citations lists the organic results as source/url pairs.
func Citations(results []models.SearchResult) []models.WebCitation {
	out := make([]models.WebCitation, 0, len(results))
	for _, r := range results {
		if r.IsAnswer() {
			continue
		}
		out = append(out, models.WebCitation{Source: r.Title, URL: r.Link})
	}
	return out
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
