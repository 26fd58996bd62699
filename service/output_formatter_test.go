package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vibecodeauditor/vcaudit/domain"
)

func sampleResponse() *domain.MappingResponse {
	issue := domain.ComplianceIssue{
		FrameworkID: "fw-gdpr",
		Title:       "GDPR Compliance Issue: Personal data exposure",
		Severity:    domain.SeverityHigh,
		Status:      domain.IssueStatusOpen,
		IssueType:   domain.IssueTypeScanFinding,
		Evidence: domain.Evidence{
			ScanID:          "scan-1",
			OriginalIssue:   domain.RawIssue{Title: "Personal data exposure", FilePath: "src/users.go", LineNumber: 42},
			MatchedPatterns: []string{"personal.*data"},
		},
	}
	return &domain.MappingResponse{
		ComplianceIssues: []domain.ComplianceIssue{issue},
		FrameworkImpacts: map[string]*domain.FrameworkImpact{
			"gdpr": {FrameworkID: "fw-gdpr", FrameworkName: "GDPR", Total: 1, High: 1, Issues: []domain.ComplianceIssue{issue}},
		},
		Summary: domain.ComplianceSummary{
			"gdpr": {Name: "GDPR", Count: 1, High: 1},
		},
		ScanID:      "scan-1",
		GeneratedAt: "2026-03-15T12:00:00Z",
		Version:     "dev",
	}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter()

	if err := f.Write(sampleResponse(), domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Compliance Mapping Report", "scan-1", "GDPR", "total=1", "high=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Text output missing %q:\n%s", want, out)
		}
	}
	// Details are off by default
	if strings.Contains(out, "matched:") {
		t.Error("Text output should not include details by default")
	}
}

func TestWriteWithDetails_Text(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter()

	if err := f.WriteWithDetails(sampleResponse(), domain.OutputFormatText, &buf, true); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "src/users.go:42") {
		t.Errorf("Detailed output missing location:\n%s", out)
	}
	if !strings.Contains(out, "personal.*data") {
		t.Errorf("Detailed output missing matched patterns:\n%s", out)
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter()

	if err := f.Write(sampleResponse(), domain.OutputFormatJSON, &buf); err != nil {
		t.Fatal(err)
	}

	var decoded domain.MappingResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.ScanID != "scan-1" {
		t.Errorf("Unexpected scan id: %s", decoded.ScanID)
	}
	if len(decoded.ComplianceIssues) != 1 {
		t.Errorf("Expected 1 issue, got %d", len(decoded.ComplianceIssues))
	}
	if decoded.ComplianceIssues[0].Evidence.OriginalIssue.LineNumber != 42 {
		t.Error("Evidence should round-trip through JSON")
	}
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter()

	if err := f.Write(sampleResponse(), domain.OutputFormatCSV, &buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d records", len(records))
	}
	row := records[1]
	if row[0] != "fw-gdpr" {
		t.Errorf("Unexpected framework id: %s", row[0])
	}
	if row[2] != "high" {
		t.Errorf("Unexpected severity: %s", row[2])
	}
	if row[7] != "42" {
		t.Errorf("Unexpected line number: %s", row[7])
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter()

	err := f.Write(sampleResponse(), domain.OutputFormat("html"), &buf)
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
	if !domain.IsErrorCode(err, domain.ErrCodeUnsupportedFormat) {
		t.Errorf("Expected UNSUPPORTED_FORMAT, got %v", err)
	}
}

func TestWrite_EmptyResponse(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter()

	resp := &domain.MappingResponse{
		ComplianceIssues: []domain.ComplianceIssue{},
		FrameworkImpacts: map[string]*domain.FrameworkImpact{},
		ScanID:           "scan-1",
	}
	if err := f.Write(resp, domain.OutputFormatText, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No compliance issues identified") {
		t.Errorf("Empty response should say so:\n%s", buf.String())
	}
}

func TestWriteRecommendations(t *testing.T) {
	recs := []domain.FrameworkRecommendation{
		{Framework: "GDPR", Code: "gdpr", Reason: "Personal data issues detected", Priority: "high"},
	}
	f := NewOutputFormatter()

	var text bytes.Buffer
	if err := f.WriteRecommendations(recs, domain.OutputFormatText, &text); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "gdpr") || !strings.Contains(text.String(), "high priority") {
		t.Errorf("Unexpected text output:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := f.WriteRecommendations(recs, domain.OutputFormatJSON, &js); err != nil {
		t.Fatal(err)
	}
	var decoded []domain.FrameworkRecommendation
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Code != "gdpr" {
		t.Errorf("Unexpected decoded recommendations: %+v", decoded)
	}

	var empty bytes.Buffer
	if err := f.WriteRecommendations(nil, domain.OutputFormatText, &empty); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty.String(), "No framework recommendations") {
		t.Errorf("Empty recommendations should say so:\n%s", empty.String())
	}
}

func TestWriteFrameworks(t *testing.T) {
	frameworks := []domain.ComplianceFramework{
		{Code: "gdpr", Name: "GDPR", Status: domain.FrameworkStatusActive, HighIssues: 2},
	}
	f := NewOutputFormatter()

	var buf bytes.Buffer
	if err := f.WriteFrameworks(frameworks, domain.OutputFormatText, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "gdpr") || !strings.Contains(out, "high=2") {
		t.Errorf("Unexpected frameworks output:\n%s", out)
	}
}
