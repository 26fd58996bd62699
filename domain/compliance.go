package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
)

// Severity represents a compliance severity level
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank is the explicit total order over severities.
// Unknown values rank 0, below every known severity.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the position of the severity in the total order
// critical > high > medium > low. Unknown severities rank 0.
func (s Severity) Rank() int {
	return severityRank[s]
}

// IsValid reports whether the severity is one of the known levels
func (s Severity) IsValid() bool {
	return severityRank[s] > 0
}

// MaxSeverity returns the higher-ranked of two severities
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// NormalizeSeverity maps free-text scanner severities onto the known levels.
// Absent or unrecognized values default to medium.
func NormalizeSeverity(raw string) Severity {
	s := Severity(raw)
	if s.IsValid() {
		return s
	}
	return SeverityMedium
}

// FrameworkStatus represents the lifecycle state of a compliance framework
type FrameworkStatus string

const (
	FrameworkStatusActive   FrameworkStatus = "active"
	FrameworkStatusInactive FrameworkStatus = "inactive"
)

// IssueStatus represents the resolution state of a compliance issue
type IssueStatus string

const (
	IssueStatusOpen IssueStatus = "open"
)

// IssueTypeScanFinding marks compliance issues derived from automated scans
const IssueTypeScanFinding = "security_scan_finding"

// RawIssue is a security finding emitted by the external scanner.
// At least one of Title and Description is present; all other fields
// are optional free text from the scanner.
type RawIssue struct {
	// Title is the short finding headline
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Description is the detailed finding text
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Severity is the scanner-assigned severity (critical/high/medium/low)
	Severity string `json:"severity,omitempty" yaml:"severity,omitempty"`

	// Category is the scanner-assigned category
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// FilePath is the affected file, if the scanner located one
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`

	// LineNumber is the affected line within FilePath
	LineNumber int `json:"line_number,omitempty" yaml:"line_number,omitempty"`

	// Recommendation is the scanner's remediation advice
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// ClassificationRule maps a text pattern to the compliance severity it implies.
// Patterns are regular expressions matched case-insensitively against the
// issue search text. Rules are evaluated independently.
type ClassificationRule struct {
	// Pattern is the regular expression source
	Pattern string `json:"pattern" yaml:"pattern"`

	// Severity is the compliance severity implied by a match
	Severity Severity `json:"severity" yaml:"severity"`
}

// ComplianceFramework is a regulatory framework enabled for a user.
// The four issue counters are cumulative and only ever incremented by
// the mapping pass.
type ComplianceFramework struct {
	ID     string          `json:"id" yaml:"id"`
	Code   string          `json:"code" yaml:"code"`
	Name   string          `json:"name" yaml:"name"`
	Status FrameworkStatus `json:"status" yaml:"status"`

	CriticalIssues int `json:"critical_issues" yaml:"critical_issues"`
	HighIssues     int `json:"high_issues" yaml:"high_issues"`
	MediumIssues   int `json:"medium_issues" yaml:"medium_issues"`
	LowIssues      int `json:"low_issues" yaml:"low_issues"`
}

// IsActive reports whether the framework participates in classification
func (f *ComplianceFramework) IsActive() bool {
	return f.Status == FrameworkStatusActive
}

// IssueCountDelta is an additive update to a framework's cumulative counters
type IssueCountDelta struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// IsZero reports whether the delta carries no increments
func (d IssueCountDelta) IsZero() bool {
	return d.Critical == 0 && d.High == 0 && d.Medium == 0 && d.Low == 0
}

// Evidence is the traceability payload attached to a compliance issue.
// It round-trips losslessly through persistence.
type Evidence struct {
	// ScanID identifies the originating scan
	ScanID string `json:"scan_id"`

	// OriginalIssue is the raw finding the issue was derived from
	OriginalIssue RawIssue `json:"original_issue"`

	// MatchedPatterns lists the rule patterns that matched
	MatchedPatterns []string `json:"matched_patterns"`
}

// ComplianceIssue is a derived record asserting that a raw issue impacts
// a specific regulatory framework. One is produced per (issue, framework)
// match. The mapping pass never mutates an issue after creation.
type ComplianceIssue struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	UserID      string `json:"user_id" yaml:"user_id"`
	FrameworkID string `json:"framework_id" yaml:"framework_id"`

	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Severity    Severity    `json:"severity" yaml:"severity"`
	Status      IssueStatus `json:"status" yaml:"status"`
	IssueType   string      `json:"issue_type" yaml:"issue_type"`

	DiscoveredDate string `json:"discovered_date" yaml:"discovered_date"`
	ReportedBy     string `json:"reported_by" yaml:"reported_by"`

	Evidence Evidence `json:"evidence" yaml:"evidence"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// FrameworkImpact is the in-memory running tally for one framework during
// a single mapping pass. It is discarded after the summary is emitted.
type FrameworkImpact struct {
	FrameworkID   string `json:"framework_id"`
	FrameworkName string `json:"framework_name"`

	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`

	Issues []ComplianceIssue `json:"issues"`
}

// Add records one classified issue in the impact counters
func (fi *FrameworkImpact) Add(issue ComplianceIssue) {
	fi.Total++
	switch issue.Severity {
	case SeverityCritical:
		fi.Critical++
	case SeverityHigh:
		fi.High++
	case SeverityMedium:
		fi.Medium++
	case SeverityLow:
		fi.Low++
	}
	fi.Issues = append(fi.Issues, issue)
}

// Delta converts the impact counters into an additive counter update
func (fi *FrameworkImpact) Delta() IssueCountDelta {
	return IssueCountDelta{
		Critical: fi.Critical,
		High:     fi.High,
		Medium:   fi.Medium,
		Low:      fi.Low,
	}
}

// FrameworkSummary is the per-framework rollup within a compliance summary
type FrameworkSummary struct {
	Name     string `json:"name" yaml:"name"`
	Count    int    `json:"count" yaml:"count"`
	Critical int    `json:"critical" yaml:"critical"`
	High     int    `json:"high" yaml:"high"`
	Medium   int    `json:"medium" yaml:"medium"`
	Low      int    `json:"low" yaml:"low"`
}

// ComplianceSummary maps framework codes to their rollups. It is attached
// to the originating scan record for display and is immutable once written.
type ComplianceSummary map[string]FrameworkSummary

// FrameworkRecommendation suggests a framework the user may want to enable
type FrameworkRecommendation struct {
	Framework string `json:"framework" yaml:"framework"`
	Code      string `json:"code" yaml:"code"`
	Reason    string `json:"reason" yaml:"reason"`
	Priority  string `json:"priority" yaml:"priority"`
}

// MappingRequest represents a request to map one scan's issues onto the
// user's active compliance frameworks
type MappingRequest struct {
	// ScanID identifies the originating scan (opaque)
	ScanID string

	// UserID selects whose active frameworks participate (opaque)
	UserID string

	// Issues is the scan's raw issue batch
	Issues []RawIssue

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	ShowDetails  bool

	// ConfigPath is an optional configuration file path
	ConfigPath string

	// RulesPath is an optional YAML rules file extending the registry
	RulesPath string
}

// MappingResponse is the complete result of one mapping pass
type MappingResponse struct {
	// ComplianceIssues are all synthesized issue drafts, across frameworks
	ComplianceIssues []ComplianceIssue `json:"compliance_issues" yaml:"compliance_issues"`

	// FrameworkImpacts maps framework codes to their tallies, filtered to
	// frameworks that matched at least one issue
	FrameworkImpacts map[string]*FrameworkImpact `json:"framework_impacts" yaml:"framework_impacts"`

	// Summary is the per-framework rollup derived from FrameworkImpacts
	Summary ComplianceSummary `json:"summary" yaml:"summary"`

	// Warnings lists absorbed per-record failures (persist, counter update)
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Metadata
	ScanID      string `json:"scan_id" yaml:"scan_id"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Version     string `json:"version" yaml:"version"`
}

// ComplianceService defines the core business logic for compliance mapping
type ComplianceService interface {
	// MapIssuesToCompliance classifies a scan's issue batch against every
	// active framework, persists the derived issues, and updates counters
	MapIssuesToCompliance(ctx context.Context, req MappingRequest) (*MappingResponse, error)

	// GenerateComplianceSummary derives the per-framework rollup from the
	// impacts of one mapping pass. Pure and order-preserving.
	GenerateComplianceSummary(impacts map[string]*FrameworkImpact) ComplianceSummary

	// GetFrameworkRecommendations suggests frameworks based on issue content.
	// Best-effort and advisory; empty input yields an empty slice.
	GetFrameworkRecommendations(issues []RawIssue) []FrameworkRecommendation
}

// RuleSource supplies classification rules per framework code
type RuleSource interface {
	// Rules returns the ordered rule list for a framework code, or an
	// UNKNOWN_FRAMEWORK error when no mapping is registered
	Rules(code string) ([]ClassificationRule, error)
}

// FrameworkStore is the persistence boundary for compliance frameworks
type FrameworkStore interface {
	// ListFrameworks returns all frameworks for a user, any status
	ListFrameworks(ctx context.Context, userID string) ([]ComplianceFramework, error)

	// AddIssueCounts atomically adds the delta to a framework's cumulative
	// counters. Implementations backed by a database must increment in the
	// store, not read-modify-write in application code.
	AddIssueCounts(ctx context.Context, frameworkID string, delta IssueCountDelta) error
}

// ComplianceIssueStore is the persistence boundary for derived issues
type ComplianceIssueStore interface {
	// CreateIssue persists one compliance issue record
	CreateIssue(ctx context.Context, issue *ComplianceIssue) error

	// ListIssues returns all persisted issues for a user
	ListIssues(ctx context.Context, userID string) ([]ComplianceIssue, error)
}

// OutputFormatter defines the interface for rendering mapping results
type OutputFormatter interface {
	// Write writes the formatted response to the writer
	Write(response *MappingResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*MappingRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *MappingRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *MappingRequest, override *MappingRequest) *MappingRequest
}
