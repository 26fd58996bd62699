package classifier

import (
	"testing"

	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/registry"
)

func mustRules(t *testing.T, code string) []Rule {
	t.Helper()
	raw, err := registry.Default().Rules(code)
	if err != nil {
		t.Fatalf("Rules(%s): %v", code, err)
	}
	rules, err := CompileRules(raw)
	if err != nil {
		t.Fatalf("CompileRules(%s): %v", code, err)
	}
	return rules
}

func TestCompileRules_InvalidPattern(t *testing.T) {
	_, err := CompileRules([]domain.ClassificationRule{
		{Pattern: "(unclosed", Severity: domain.SeverityHigh},
	})
	if err == nil {
		t.Fatal("Expected error for invalid pattern")
	}
	if !domain.IsErrorCode(err, domain.ErrCodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}

func TestSearchText(t *testing.T) {
	issue := domain.RawIssue{
		Title:       "SQL Injection",
		Description: "User input reaches the query",
		Category:    "Injection",
	}
	want := "sql injection user input reaches the query injection"
	if got := SearchText(issue); got != want {
		t.Errorf("SearchText = %q, want %q", got, want)
	}

	// Missing fields contribute empty strings
	empty := domain.RawIssue{Title: "Only Title"}
	if got := SearchText(empty); got != "only title  " {
		t.Errorf("SearchText with missing fields = %q", got)
	}
}

func TestClassify_GDPRPersonalData(t *testing.T) {
	rules := mustRules(t, registry.CodeGDPR)

	issue := domain.RawIssue{
		Title:       "Personal data stored without consent check",
		Description: "User records persisted before consent is verified",
		Severity:    "high",
	}

	match := Classify(issue, rules)
	if match == nil {
		t.Fatal("Expected GDPR match for personal data issue")
	}
	if match.Severity.Rank() < domain.SeverityHigh.Rank() {
		t.Errorf("Expected at least high severity, got %s", match.Severity)
	}
	if len(match.MatchedPatterns) == 0 {
		t.Error("Expected matched patterns to be recorded")
	}
}

func TestClassify_NoMatch(t *testing.T) {
	issue := domain.RawIssue{
		Title:       "Typo in README",
		Description: "The word 'recieve' is misspelled",
	}

	for _, code := range registry.Default().Codes() {
		rules := mustRules(t, code)
		if match := Classify(issue, rules); match != nil {
			t.Errorf("Expected no %s match for documentation typo, got %+v", code, match)
		}
	}
}

func TestClassify_MultiFramework(t *testing.T) {
	issue := domain.RawIssue{
		Title:       "Unencrypted storage of payment card and health record data",
		Description: "Cardholder data and health records are written to disk in plaintext",
		Severity:    "critical",
	}

	hipaa := Classify(issue, mustRules(t, registry.CodeHIPAA))
	if hipaa == nil {
		t.Fatal("Expected HIPAA match for health record data")
	}
	if hipaa.Severity != domain.SeverityCritical {
		t.Errorf("Expected critical HIPAA severity, got %s", hipaa.Severity)
	}

	pci := Classify(issue, mustRules(t, registry.CodePCIDSS))
	if pci == nil {
		t.Fatal("Expected PCI DSS match for payment card data")
	}
	if pci.Severity != domain.SeverityCritical {
		t.Errorf("Expected critical PCI DSS severity, got %s", pci.Severity)
	}
}

func TestClassify_MaxSeverityAcrossRules(t *testing.T) {
	rules, err := CompileRules([]domain.ClassificationRule{
		{Pattern: "alpha", Severity: domain.SeverityLow},
		{Pattern: "beta", Severity: domain.SeverityCritical},
		{Pattern: "gamma", Severity: domain.SeverityMedium},
	})
	if err != nil {
		t.Fatal(err)
	}

	issue := domain.RawIssue{Title: "alpha beta issue"}
	match := Classify(issue, rules)
	if match == nil {
		t.Fatal("Expected match")
	}
	if match.Severity != domain.SeverityCritical {
		t.Errorf("Expected critical (max of matched), got %s", match.Severity)
	}
	if len(match.MatchedPatterns) != 2 {
		t.Errorf("Expected 2 matched patterns, got %d", len(match.MatchedPatterns))
	}
}

func TestClassify_SeverityMonotonic(t *testing.T) {
	base := []domain.ClassificationRule{
		{Pattern: "alpha", Severity: domain.SeverityLow},
		{Pattern: "beta", Severity: domain.SeverityMedium},
	}
	issue := domain.RawIssue{Title: "alpha beta issue"}

	baseRules, err := CompileRules(base)
	if err != nil {
		t.Fatal(err)
	}
	before := Classify(issue, baseRules)
	if before == nil {
		t.Fatal("Expected match")
	}

	// Adding a rule never lowers the result
	for _, extra := range []domain.ClassificationRule{
		{Pattern: "unrelated", Severity: domain.SeverityCritical},
		{Pattern: "alpha", Severity: domain.SeverityLow},
		{Pattern: "beta", Severity: domain.SeverityCritical},
	} {
		extended, err := CompileRules(append(append([]domain.ClassificationRule{}, base...), extra))
		if err != nil {
			t.Fatal(err)
		}
		after := Classify(issue, extended)
		if after == nil {
			t.Fatalf("Extended rule set dropped the match (extra %q)", extra.Pattern)
		}
		if after.Severity.Rank() < before.Severity.Rank() {
			t.Errorf("Extra rule %q lowered severity: %s < %s", extra.Pattern, after.Severity, before.Severity)
		}
	}

	// A matching extra rule of severity S pins the result at S or above
	extended, err := CompileRules(append(append([]domain.ClassificationRule{}, base...),
		domain.ClassificationRule{Pattern: "issue", Severity: domain.SeverityHigh}))
	if err != nil {
		t.Fatal(err)
	}
	after := Classify(issue, extended)
	if after == nil {
		t.Fatal("Expected match")
	}
	if after.Severity.Rank() < domain.SeverityHigh.Rank() {
		t.Errorf("Matching high rule should raise the result to at least high, got %s", after.Severity)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	rules := mustRules(t, registry.CodePCIDSS)

	issue := domain.RawIssue{Title: "CREDIT CARD numbers logged in plaintext"}
	if Classify(issue, rules) == nil {
		t.Error("Classification should be case-insensitive")
	}
}

func TestClassify_Deterministic(t *testing.T) {
	rules := mustRules(t, registry.CodeGDPR)
	issue := domain.RawIssue{
		Title:       "Privacy policy not enforced on data export",
		Description: "Personal data leaves the system unencrypted",
	}

	first := Classify(issue, rules)
	if first == nil {
		t.Fatal("Expected match")
	}

	for i := 0; i < 10; i++ {
		again := Classify(issue, rules)
		if again == nil {
			t.Fatal("Classification became nil on repeat")
		}
		if again.Severity != first.Severity {
			t.Fatalf("Severity changed on repeat: %s vs %s", again.Severity, first.Severity)
		}
		if len(again.MatchedPatterns) != len(first.MatchedPatterns) {
			t.Fatal("Matched patterns changed on repeat")
		}
		for j := range again.MatchedPatterns {
			if again.MatchedPatterns[j] != first.MatchedPatterns[j] {
				t.Fatal("Matched pattern order changed on repeat")
			}
		}
	}
}

func TestClassify_CategoryParticipates(t *testing.T) {
	rules := mustRules(t, registry.CodeGDPR)

	// Only the category mentions privacy
	issue := domain.RawIssue{
		Title:       "Weak session token",
		Description: "Tokens are predictable",
		Category:    "Privacy",
	}
	if Classify(issue, rules) == nil {
		t.Error("Category text should participate in matching")
	}
}
