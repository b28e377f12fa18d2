package classify

import (
	"regexp"
	"strings"
)

// Pattern is a compiled, case-insensitive text test. The compiled
// regexp is immutable; every call produces a fresh match result, so a
// single Pattern is safe to share across detectors and goroutines.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile compiles a single case-insensitive pattern. The expression
// may be a plain substring or a regular expression.
func Compile(expr string) (Pattern, error) {
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{raw: expr, re: re}, nil
}

// MustCompile is Compile for patterns known to be valid (built-in
// detector tables).
func MustCompile(expr string) Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileAll compiles a pattern list, skipping invalid expressions.
// A detector with a bad pattern degrades rather than failing the run.
func CompileAll(exprs []string) []Pattern {
	out := make([]Pattern, 0, len(exprs))
	for _, expr := range exprs {
		p, err := Compile(expr)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// String returns the original pattern expression.
func (p Pattern) String() string { return p.raw }

// Matches reports whether the pattern matches the title.
func (p Pattern) Matches(title string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(title)
}

// Count returns the number of non-overlapping occurrences of the
// pattern in the title.
func (p Pattern) Count(title string) int {
	if p.re == nil {
		return 0
	}
	return len(p.re.FindAllStringIndex(title, -1))
}

// MatchAny reports whether any pattern in the list matches the title.
// A detector matches a title at most once regardless of how many of
// its patterns hit.
func MatchAny(patterns []Pattern, title string) bool {
	for _, p := range patterns {
		if p.Matches(title) {
			return true
		}
	}
	return false
}

// MatchIndicators returns the indicator strings contained in the
// title, case-insensitive, deduplicated, in configured order. The
// literal indicators are returned (not booleans) so callers can keep
// them as provenance.
func MatchIndicators(title string, indicators []string) []string {
	if title == "" || len(indicators) == 0 {
		return nil
	}
	lower := strings.ToLower(title)
	seen := make(map[string]bool, len(indicators))
	var out []string
	for _, ind := range indicators {
		if ind == "" {
			continue
		}
		key := strings.ToLower(ind)
		if seen[key] {
			continue
		}
		if strings.Contains(lower, key) {
			seen[key] = true
			out = append(out, ind)
		}
	}
	return out
}
