package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/registry"
	"github.com/vibecodeauditor/vcaudit/internal/store"
)

// fakeFrameworkStore lets tests control framework loading and counter updates
type fakeFrameworkStore struct {
	frameworks []domain.ComplianceFramework
	listErr    error
	countsErr  error
	deltas     map[string][]domain.IssueCountDelta
}

func (f *fakeFrameworkStore) ListFrameworks(ctx context.Context, userID string) ([]domain.ComplianceFramework, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.frameworks, nil
}

func (f *fakeFrameworkStore) AddIssueCounts(ctx context.Context, frameworkID string, delta domain.IssueCountDelta) error {
	if f.countsErr != nil {
		return f.countsErr
	}
	if f.deltas == nil {
		f.deltas = make(map[string][]domain.IssueCountDelta)
	}
	f.deltas[frameworkID] = append(f.deltas[frameworkID], delta)
	return nil
}

// fakeIssueStore lets tests fail individual writes
type fakeIssueStore struct {
	created   []domain.ComplianceIssue
	failTitle string
}

func (f *fakeIssueStore) CreateIssue(ctx context.Context, issue *domain.ComplianceIssue) error {
	if f.failTitle != "" && strings.Contains(issue.Title, f.failTitle) {
		return errors.New("simulated write failure")
	}
	f.created = append(f.created, *issue)
	return nil
}

func (f *fakeIssueStore) ListIssues(ctx context.Context, userID string) ([]domain.ComplianceIssue, error) {
	return f.created, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func activeFrameworks() []domain.ComplianceFramework {
	return []domain.ComplianceFramework{
		{ID: "fw-gdpr", Code: registry.CodeGDPR, Name: "GDPR", Status: domain.FrameworkStatusActive},
		{ID: "fw-hipaa", Code: registry.CodeHIPAA, Name: "HIPAA", Status: domain.FrameworkStatusActive},
		{ID: "fw-pci", Code: registry.CodePCIDSS, Name: "PCI DSS", Status: domain.FrameworkStatusActive},
	}
}

func TestMapIssuesToCompliance_GDPRScenario(t *testing.T) {
	frameworks := &fakeFrameworkStore{frameworks: []domain.ComplianceFramework{
		{ID: "fw-gdpr", Code: registry.CodeGDPR, Name: "GDPR", Status: domain.FrameworkStatusActive},
	}}
	issues := &fakeIssueStore{}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{
			Title:       "Personal data stored without consent",
			Description: "User records persisted before consent verification",
			Severity:    "high",
			Category:    "privacy",
			FilePath:    "src/users.go",
			LineNumber:  42,
		}},
	})
	if err != nil {
		t.Fatalf("MapIssuesToCompliance: %v", err)
	}

	if len(resp.ComplianceIssues) != 1 {
		t.Fatalf("Expected 1 compliance issue, got %d", len(resp.ComplianceIssues))
	}
	ci := resp.ComplianceIssues[0]

	if ci.Title != "GDPR Compliance Issue: Personal data stored without consent" {
		t.Errorf("Unexpected title: %s", ci.Title)
	}
	if ci.Severity != domain.SeverityHigh {
		t.Errorf("Expected high severity, got %s", ci.Severity)
	}
	if ci.Status != domain.IssueStatusOpen {
		t.Errorf("Expected open status, got %s", ci.Status)
	}
	if ci.IssueType != domain.IssueTypeScanFinding {
		t.Errorf("Unexpected issue type: %s", ci.IssueType)
	}
	if ci.DiscoveredDate != "2026-03-15" {
		t.Errorf("Unexpected discovered date: %s", ci.DiscoveredDate)
	}
	if ci.ReportedBy != "Security Scanner" {
		t.Errorf("Unexpected reporter: %s", ci.ReportedBy)
	}
	if ci.Evidence.ScanID != "scan-1" {
		t.Errorf("Evidence should carry scan id, got %s", ci.Evidence.ScanID)
	}
	if ci.Evidence.OriginalIssue.FilePath != "src/users.go" {
		t.Errorf("Evidence should carry the original issue: %+v", ci.Evidence.OriginalIssue)
	}
	if len(ci.Evidence.MatchedPatterns) == 0 {
		t.Error("Evidence should list matched patterns")
	}
	if len(ci.Tags) != 3 || ci.Tags[0] != registry.CodeGDPR || ci.Tags[1] != "automated_scan" || ci.Tags[2] != "privacy" {
		t.Errorf("Unexpected tags: %v", ci.Tags)
	}
	if !strings.Contains(ci.Description, "GDPR Relevance") {
		t.Error("Description should carry framework-specific guidance")
	}
	if !strings.Contains(ci.Description, "src/users.go:42") {
		t.Error("Description should carry the issue location")
	}

	// Persisted and counted
	if len(issues.created) != 1 {
		t.Fatalf("Expected 1 persisted issue, got %d", len(issues.created))
	}
	deltas := frameworks.deltas["fw-gdpr"]
	if len(deltas) != 1 || deltas[0].High != 1 || deltas[0].Critical != 0 {
		t.Errorf("Unexpected counter deltas: %+v", deltas)
	}

	// Summary mirrors the impact
	if resp.Summary[registry.CodeGDPR].Count != 1 || resp.Summary[registry.CodeGDPR].High != 1 {
		t.Errorf("Unexpected summary: %+v", resp.Summary)
	}
}

func TestMapIssuesToCompliance_NoActiveFrameworks(t *testing.T) {
	frameworks := &fakeFrameworkStore{frameworks: []domain.ComplianceFramework{
		{ID: "fw-gdpr", Code: registry.CodeGDPR, Name: "GDPR", Status: domain.FrameworkStatusInactive},
	}}
	issues := &fakeIssueStore{}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{Title: "Personal data leak", Severity: "high"}},
	})
	if err != nil {
		t.Fatalf("No active frameworks must not be an error: %v", err)
	}
	if len(resp.ComplianceIssues) != 0 {
		t.Errorf("Expected no compliance issues, got %d", len(resp.ComplianceIssues))
	}
	if len(issues.created) != 0 {
		t.Error("Nothing should be persisted without active frameworks")
	}
	if len(frameworks.deltas) != 0 {
		t.Error("No counters should change without active frameworks")
	}
}

func TestMapIssuesToCompliance_FrameworkLoadFailure(t *testing.T) {
	frameworks := &fakeFrameworkStore{listErr: errors.New("connection refused")}
	svc := NewComplianceService(registry.Default(), frameworks, &fakeIssueStore{}, quietLogger())

	_, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{Title: "anything"}},
	})
	if err == nil {
		t.Fatal("Framework load failure must surface")
	}
	if !domain.IsErrorCode(err, domain.ErrCodeFrameworkLoad) {
		t.Errorf("Expected FRAMEWORK_LOAD_ERROR, got %v", err)
	}
}

func TestMapIssuesToCompliance_MultiFramework(t *testing.T) {
	frameworks := &fakeFrameworkStore{frameworks: activeFrameworks()}
	issues := &fakeIssueStore{}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{
			Title:       "Unencrypted storage of payment card and health record data",
			Description: "Cardholder data and health records are written to disk in plaintext",
			Severity:    "critical",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	hipaa, ok := resp.FrameworkImpacts[registry.CodeHIPAA]
	if !ok {
		t.Fatal("Expected HIPAA impact")
	}
	if hipaa.Critical != 1 {
		t.Errorf("Expected 1 critical HIPAA issue, got %d", hipaa.Critical)
	}

	pci, ok := resp.FrameworkImpacts[registry.CodePCIDSS]
	if !ok {
		t.Fatal("Expected PCI DSS impact")
	}
	if pci.Critical != 1 {
		t.Errorf("Expected 1 critical PCI DSS issue, got %d", pci.Critical)
	}

	// One derived issue per (issue, framework) match
	var hipaaIssues, pciIssues int
	for _, ci := range resp.ComplianceIssues {
		switch ci.FrameworkID {
		case "fw-hipaa":
			hipaaIssues++
		case "fw-pci":
			pciIssues++
		}
	}
	if hipaaIssues != 1 || pciIssues != 1 {
		t.Errorf("Expected one derived issue per framework, got hipaa=%d pci=%d", hipaaIssues, pciIssues)
	}
}

func TestMapIssuesToCompliance_PersistFailureContinues(t *testing.T) {
	frameworks := &fakeFrameworkStore{frameworks: activeFrameworks()}
	issues := &fakeIssueStore{failTitle: "HIPAA"}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{
			Title:    "Unencrypted health record and payment card storage",
			Severity: "critical",
		}},
	})
	if err != nil {
		t.Fatalf("Persist failures must not fail the pass: %v", err)
	}

	// The HIPAA write failed; the others went through
	for _, ci := range issues.created {
		if strings.Contains(ci.Title, "HIPAA") {
			t.Error("Failed write should not be recorded")
		}
	}
	if len(issues.created) == 0 {
		t.Error("Other issues should still persist")
	}

	// The failure is reported as a warning
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, domain.ErrCodeIssuePersist) {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected ISSUE_PERSIST_ERROR warning, got %v", resp.Warnings)
	}

	// Counters still updated for every impacted framework
	if len(frameworks.deltas) == 0 {
		t.Error("Counter updates should proceed despite persist failures")
	}
}

func TestMapIssuesToCompliance_CounterFailureContinues(t *testing.T) {
	frameworks := &fakeFrameworkStore{
		frameworks: activeFrameworks(),
		countsErr:  errors.New("deadlock"),
	}
	issues := &fakeIssueStore{}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{Title: "Personal data exposure", Severity: "high"}},
	})
	if err != nil {
		t.Fatalf("Counter failures must not fail the pass: %v", err)
	}

	if len(issues.created) == 0 {
		t.Error("Issues should persist despite counter failures")
	}

	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, domain.ErrCodeCounterUpdate) {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected COUNTER_UPDATE_ERROR warning, got %v", resp.Warnings)
	}
}

func TestMapIssuesToCompliance_UnknownFrameworkSkipped(t *testing.T) {
	frameworks := &fakeFrameworkStore{frameworks: []domain.ComplianceFramework{
		{ID: "fw-nist", Code: "nist", Name: "NIST CSF", Status: domain.FrameworkStatusActive},
		{ID: "fw-gdpr", Code: registry.CodeGDPR, Name: "GDPR", Status: domain.FrameworkStatusActive},
	}}
	issues := &fakeIssueStore{}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{Title: "Personal data exposure", Severity: "high"}},
	})
	if err != nil {
		t.Fatalf("Unknown framework code must not fail the pass: %v", err)
	}

	if _, ok := resp.FrameworkImpacts["nist"]; ok {
		t.Error("Framework without a rule mapping should classify nothing")
	}
	if _, ok := resp.FrameworkImpacts[registry.CodeGDPR]; !ok {
		t.Error("Known frameworks should still classify")
	}
}

func TestMapIssuesToCompliance_CounterAccumulation(t *testing.T) {
	// Real store: deltas from consecutive passes must accumulate
	mem := store.NewMemoryStore()
	mem.SeedFrameworks("user-1", registry.Default().Frameworks(registry.CodeGDPR))
	svc := NewComplianceService(registry.Default(), mem, mem, quietLogger())

	pass1 := []domain.RawIssue{
		{Title: "Personal data exposure one", Severity: "high"},
		{Title: "Personal data exposure two", Severity: "high"},
		{Title: "Missing audit logging", Severity: "low"},
	}
	pass2 := []domain.RawIssue{
		{Title: "Privacy policy bypass", Severity: "high"},
	}

	for i, issues := range [][]domain.RawIssue{pass1, pass2} {
		_, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
			ScanID: fmt.Sprintf("scan-%d", i+1),
			UserID: "user-1",
			Issues: issues,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	frameworks, _ := mem.ListFrameworks(context.Background(), "user-1")
	fw := frameworks[0]
	if fw.HighIssues != 3 {
		t.Errorf("Expected 3 accumulated high issues, got %d", fw.HighIssues)
	}
	if fw.LowIssues != 1 {
		t.Errorf("Expected 1 accumulated low issue, got %d", fw.LowIssues)
	}
}

func TestGenerateComplianceSummary(t *testing.T) {
	svc := NewComplianceService(registry.Default(), &fakeFrameworkStore{}, &fakeIssueStore{}, quietLogger())

	impacts := map[string]*domain.FrameworkImpact{
		"gdpr":  {FrameworkName: "GDPR", Total: 3, Critical: 1, High: 2},
		"hipaa": {FrameworkName: "HIPAA", Total: 1, Medium: 1},
	}

	summary := svc.GenerateComplianceSummary(impacts)
	if len(summary) != 2 {
		t.Fatalf("Expected 2 summary entries, got %d", len(summary))
	}
	if summary["gdpr"].Count != 3 || summary["gdpr"].Critical != 1 || summary["gdpr"].High != 2 {
		t.Errorf("Unexpected gdpr summary: %+v", summary["gdpr"])
	}
	if summary["hipaa"].Name != "HIPAA" || summary["hipaa"].Medium != 1 {
		t.Errorf("Unexpected hipaa summary: %+v", summary["hipaa"])
	}

	// Pure: repeated calls agree
	again := svc.GenerateComplianceSummary(impacts)
	if again["gdpr"] != summary["gdpr"] || again["hipaa"] != summary["hipaa"] {
		t.Error("Summary generation should be deterministic")
	}

	empty := svc.GenerateComplianceSummary(map[string]*domain.FrameworkImpact{})
	if len(empty) != 0 {
		t.Errorf("Empty impacts should give empty summary, got %+v", empty)
	}
}

func TestGetFrameworkRecommendations(t *testing.T) {
	svc := NewComplianceService(registry.Default(), &fakeFrameworkStore{}, &fakeIssueStore{}, quietLogger())

	tests := []struct {
		name   string
		issues []domain.RawIssue
		want   []string
	}{
		{
			name:   "empty input",
			issues: nil,
			want:   nil,
		},
		{
			name:   "personal data suggests gdpr",
			issues: []domain.RawIssue{{Title: "Personal data in logs"}},
			want:   []string{registry.CodeGDPR},
		},
		{
			name:   "health data suggests hipaa",
			issues: []domain.RawIssue{{Description: "Health information sent unencrypted"}},
			want:   []string{registry.CodeHIPAA},
		},
		{
			name:   "payment data suggests pci",
			issues: []domain.RawIssue{{Title: "Credit card numbers in database"}},
			want:   []string{registry.CodePCIDSS},
		},
		{
			name: "many issues add iso27001",
			issues: []domain.RawIssue{
				{Title: "Payment endpoint missing auth"},
				{Title: "XSS in search"}, {Title: "CSRF on form"},
				{Title: "Weak ciphers"}, {Title: "Open redirect"},
				{Title: "Path traversal"},
			},
			want: []string{registry.CodePCIDSS, registry.CodeISO27001},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := svc.GetFrameworkRecommendations(tt.issues)

			if len(recs) != len(tt.want) {
				t.Fatalf("Expected %d recommendations, got %d: %+v", len(tt.want), len(recs), recs)
			}
			got := make(map[string]bool)
			for _, r := range recs {
				got[r.Code] = true
				if r.Reason == "" || r.Priority == "" {
					t.Errorf("Recommendation %s missing reason or priority", r.Code)
				}
			}
			for _, code := range tt.want {
				if !got[code] {
					t.Errorf("Expected recommendation for %s, got %+v", code, recs)
				}
			}
		})
	}
}

func TestSetReportedBy(t *testing.T) {
	frameworks := &fakeFrameworkStore{frameworks: []domain.ComplianceFramework{
		{ID: "fw-gdpr", Code: registry.CodeGDPR, Name: "GDPR", Status: domain.FrameworkStatusActive},
	}}
	issues := &fakeIssueStore{}
	svc := NewComplianceService(registry.Default(), frameworks, issues, quietLogger())
	svc.SetReportedBy("CI Pipeline")

	resp, err := svc.MapIssuesToCompliance(context.Background(), domain.MappingRequest{
		ScanID: "scan-1",
		UserID: "user-1",
		Issues: []domain.RawIssue{{Title: "Personal data exposure"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.ComplianceIssues) == 0 {
		t.Fatal("Expected a compliance issue")
	}
	if resp.ComplianceIssues[0].ReportedBy != "CI Pipeline" {
		t.Errorf("Unexpected reporter: %s", resp.ComplianceIssues[0].ReportedBy)
	}
}
