package subagent

import (
	"regexp"
	"strings"
)

// CompilePattern compiles a wildcard pattern into a match predicate.
//
// The pattern is trimmed and matched against the whole candidate. '*' matches
// any run of characters, including none; every other character is literal.
// Matching is case-insensitive. There is no escape syntax, so a literal '*'
// cannot be expressed.
func CompilePattern(pattern string) func(candidate string) bool {
	parts := strings.Split(strings.TrimSpace(pattern), "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re := regexp.MustCompile(`(?is)\A` + strings.Join(parts, ".*") + `\z`)
	return re.MatchString
}

// MatchPattern reports whether candidate matches the wildcard pattern.
func MatchPattern(pattern, candidate string) bool {
	return CompilePattern(pattern)(candidate)
}
