package types

import (
	"fmt"
	"strings"
	"unicode"
)

// Section is a named, ordered group of checks shown together in the report.
type Section struct {
	// Title is the section heading.
	Title string `json:"title"`

	// ID is the URL-safe anchor derived from the title.
	ID string `json:"id"`

	// Results are the section's checks in execution order.
	Results []CheckResult `json:"results"`
}

// NewSection builds a section with its anchor ID derived from the title.
func NewSection(title string, results []CheckResult) Section {
	return Section{Title: title, ID: Slugify(title), Results: results}
}

// Slugify lowers a title to an anchor-safe identifier: alphanumeric runs
// survive, everything else collapses into single hyphens. Titles with no
// alphanumerics slug to "section".
func Slugify(title string) string {
	var out []rune
	for _, ch := range strings.ToLower(title) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			out = append(out, ch)
		} else if len(out) > 0 && out[len(out)-1] != '-' {
			out = append(out, '-')
		}
	}
	s := strings.Trim(string(out), "-")
	if s == "" {
		return "section"
	}
	return s
}

// Status is the worst status among the section's checks, where
// bad > warn > ok. An empty section is ok.
func (s Section) Status() Status {
	worst := StatusOK
	for _, r := range s.Results {
		switch st, _ := Classify(r); st {
		case StatusBad:
			return StatusBad
		case StatusWarn:
			worst = StatusWarn
		}
	}
	return worst
}

// Meta is the one-line section summary shown under the heading.
func (s Section) Meta() string {
	var ok, warn, bad int
	for _, r := range s.Results {
		switch st, _ := Classify(r); st {
		case StatusOK:
			ok++
		case StatusWarn:
			warn++
		case StatusBad:
			bad++
		}
	}
	return fmt.Sprintf("%d checks • %d ok • %d warn • %d bad", len(s.Results), ok, warn, bad)
}
