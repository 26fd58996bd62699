package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vibecodeauditor/vcaudit/domain"
)

// Rule is a classification rule with its pattern compiled for matching
type Rule struct {
	// Source is the original pattern text
	Source string

	// Pattern is the compiled case-insensitive expression
	Pattern *regexp.Regexp

	// Severity is the compliance severity implied by a match
	Severity domain.Severity
}

// Match is the result of classifying one issue against one framework's rules
type Match struct {
	// MatchedPatterns lists the source patterns of every rule that matched
	MatchedPatterns []string

	// Severity is the highest severity among all matched rules
	Severity domain.Severity
}

// CompileRules compiles a framework's rule list. Patterns are compiled
// case-insensitively; an invalid pattern fails the whole set.
func CompileRules(rules []domain.ClassificationRule) ([]Rule, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("invalid rule pattern: %s", r.Pattern), err)
		}
		compiled = append(compiled, Rule{Source: r.Pattern, Pattern: re, Severity: r.Severity})
	}
	return compiled, nil
}

// SearchText builds the lowercase search string for an issue from its
// title, description, and category. Missing fields contribute an empty
// string, never an error.
func SearchText(issue domain.RawIssue) string {
	return strings.ToLower(issue.Title + " " + issue.Description + " " + issue.Category)
}

// Classify decides whether an issue is relevant to a framework and at what
// severity. A framework matches when at least one rule matches the search
// text; the resulting severity is the maximum across all matched rules.
// Returns nil on no match. Pure: no I/O, no mutation, deterministic.
func Classify(issue domain.RawIssue, rules []Rule) *Match {
	text := SearchText(issue)

	var matched []string
	severity := domain.Severity("")
	for _, rule := range rules {
		if rule.Pattern.MatchString(text) {
			matched = append(matched, rule.Source)
			severity = domain.MaxSeverity(severity, rule.Severity)
		}
	}

	if len(matched) == 0 {
		return nil
	}
	return &Match{MatchedPatterns: matched, Severity: severity}
}
