// Package classifier flags passages that look like bibliography or
// reference-list noise rather than course content.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LeadingWindow is how many characters of a passage the opening rules look at.
const LeadingWindow = 200

// Rule is one independent reference heuristic. Rules must be pure.
type Rule interface {
	Name() string
	Match(passage, documentName string) bool
}

type Thresholds struct {
	MaxCitationMarkers int
	MaxLinks           int
	ShortPassageLength int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxCitationMarkers: 3,
		MaxLinks:           2,
		ShortPassageLength: 500,
	}
}

type Result struct {
	IsReference bool
	Matched     []string // names of every rule that fired, in rule order
}

// FirstMatch is the name of the first rule that fired, or "".
func (r Result) FirstMatch() string {
	if len(r.Matched) == 0 {
		return ""
	}
	return r.Matched[0]
}

type Classifier struct {
	rules []Rule
}

func New(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Default builds the five stock rules. Zero thresholds fall back to
// DefaultThresholds.
func Default(t Thresholds) *Classifier {
	d := DefaultThresholds()
	if t.MaxCitationMarkers == 0 {
		t.MaxCitationMarkers = d.MaxCitationMarkers
	}
	if t.MaxLinks == 0 {
		t.MaxLinks = d.MaxLinks
	}
	if t.ShortPassageLength == 0 {
		t.ShortPassageLength = d.ShortPassageLength
	}

	return New(
		LeadingCitation(),
		CitationDensity(t.MaxCitationMarkers),
		ReferenceHeader(),
		ReferenceDocument(),
		LinkDense(t.MaxLinks, t.ShortPassageLength),
	)
}

// Classify runs every rule; any single match flags the passage.
func (c *Classifier) Classify(passage, documentName string) Result {
	var res Result
	for _, r := range c.rules {
		if r.Match(passage, documentName) {
			res.IsReference = true
			res.Matched = append(res.Matched, r.Name())
		}
	}
	return res
}

func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

type ruleFunc struct {
	name string
	fn   func(passage, documentName string) bool
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Match(passage, documentName string) bool { return r.fn(passage, documentName) }

// NewRule adapts a plain function into a Rule.
func NewRule(name string, fn func(passage, documentName string) bool) Rule {
	return ruleFunc{name: name, fn: fn}
}

var (
	authorYearPattern   = regexp.MustCompile(`^[A-Z][A-Za-z'\-]+,\s*(?:[A-Z]\.\s*)+.*\(\d{4}\)`)
	citationMarker      = regexp.MustCompile(`\[\d+\]|\([\p{L}\p{N}_]+,\s*\d{4}\)`)
	referenceHeaderLine = regexp.MustCompile(`(?m)^(references|bibliography)\s*$`)
	linkToken           = regexp.MustCompile(`https?://|doi:`)
)

// leading returns the first LeadingWindow characters of s, trimmed.
func leading(s string) string {
	if utf8.RuneCountInString(s) > LeadingWindow {
		s = string([]rune(s)[:LeadingWindow])
	}
	return strings.TrimSpace(s)
}

// LeadingCitation matches passages that open like a citation-list entry,
// e.g. "Smith, J., & Doe, A. (2024). Title".
func LeadingCitation() Rule {
	return NewRule("leading-citation", func(passage, _ string) bool {
		return authorYearPattern.MatchString(leading(passage))
	})
}

// CitationDensity matches passages with more than max "[n]" or "(Name, YEAR)" markers.
func CitationDensity(max int) Rule {
	return NewRule("citation-density", func(passage, _ string) bool {
		return len(citationMarker.FindAllStringIndex(strings.ToLower(passage), -1)) > max
	})
}

func ReferenceHeader() Rule {
	return NewRule("reference-header", func(passage, _ string) bool {
		return referenceHeaderLine.MatchString(strings.ToLower(leading(passage)))
	})
}

func ReferenceDocument() Rule {
	return NewRule("reference-document", func(_, documentName string) bool {
		name := strings.ToLower(documentName)
		return strings.Contains(name, "reference") || strings.Contains(name, "bibliography")
	})
}

// LinkDense matches short passages carrying more than maxLinks URL or DOI tokens.
func LinkDense(maxLinks, shortLength int) Rule {
	return NewRule("link-dense", func(passage, _ string) bool {
		if utf8.RuneCountInString(passage) >= shortLength {
			return false
		}
		return len(linkToken.FindAllStringIndex(strings.ToLower(passage), -1)) > maxLinks
	})
}
