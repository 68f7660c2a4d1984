// Package heuristics holds the injection-sink pattern table shared by
// the DOM scanner and the sink aggregator. Patterns are data, not
// logic: traversal and aggregation never embed matching rules of their
// own, so the table can grow without touching either.
package heuristics

import "regexp"

// Pattern is one named matcher from the sink table.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// Matches reports whether s contains this pattern.
func (p Pattern) Matches(s string) bool {
	return p.re.MatchString(s)
}

// Find returns the matched portion of s, or "" when there is no match.
func (p Pattern) Find(s string) string {
	return p.re.FindString(s)
}

// Sink patterns: markup or attribute shapes through which attacker
// content can reach an execution context.
var patterns = []Pattern{
	{"script-tag", regexp.MustCompile(`(?i)<script\b`)},
	{"javascript-uri", regexp.MustCompile(`(?i)javascript:`)},
	{"event-handler", regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)},
	{"img-onerror", regexp.MustCompile(`(?i)<img\b[^>]*\bonerror\b`)},
	{"iframe-tag", regexp.MustCompile(`(?i)<iframe\b`)},
}

// Patterns returns the sink table. The returned slice is shared; do not
// mutate it.
func Patterns() []Pattern {
	return patterns
}

// IsSuspicious reports whether s matches any pattern in the sink table.
func IsSuspicious(s string) bool {
	for _, p := range patterns {
		if p.Matches(s) {
			return true
		}
	}
	return false
}

// Match returns the first matching pattern and the matched text.
func Match(s string) (Pattern, string, bool) {
	for _, p := range patterns {
		if m := p.Find(s); m != "" {
			return p, m, true
		}
	}
	return Pattern{}, "", false
}
