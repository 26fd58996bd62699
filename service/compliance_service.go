package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/classifier"
	"github.com/vibecodeauditor/vcaudit/internal/constants"
	"github.com/vibecodeauditor/vcaudit/internal/registry"
	"github.com/vibecodeauditor/vcaudit/internal/version"
)

// recommendISOIssueThreshold is the issue count above which a comprehensive
// ISMS (ISO 27001) is recommended
const recommendISOIssueThreshold = 5

// ComplianceServiceImpl implements the ComplianceService interface
type ComplianceServiceImpl struct {
	rules          domain.RuleSource
	frameworkStore domain.FrameworkStore
	issueStore     domain.ComplianceIssueStore
	log            *logrus.Logger
	progress       domain.ProgressManager
	reportedBy     string

	// now is the clock used for discovered dates; replaceable in tests
	now func() time.Time
}

// NewComplianceService creates a new compliance service implementation
func NewComplianceService(rules domain.RuleSource, frameworks domain.FrameworkStore, issues domain.ComplianceIssueStore, log *logrus.Logger) *ComplianceServiceImpl {
	if log == nil {
		log = logrus.New()
	}
	return &ComplianceServiceImpl{
		rules:          rules,
		frameworkStore: frameworks,
		issueStore:     issues,
		log:            log,
		reportedBy:     "Security Scanner",
		now:            time.Now,
	}
}

// NewComplianceServiceWithProgress creates a compliance service with
// progress reporting
func NewComplianceServiceWithProgress(rules domain.RuleSource, frameworks domain.FrameworkStore, issues domain.ComplianceIssueStore, log *logrus.Logger, pm domain.ProgressManager) *ComplianceServiceImpl {
	s := NewComplianceService(rules, frameworks, issues, log)
	s.progress = pm
	return s
}

// SetReportedBy overrides the reporter recorded on synthesized issues
func (s *ComplianceServiceImpl) SetReportedBy(reportedBy string) {
	if reportedBy != "" {
		s.reportedBy = reportedBy
	}
}

// MapIssuesToCompliance classifies a scan's issue batch against every
// active framework for the user, persists the derived compliance issues,
// and adds the per-framework severity deltas to the stored counters.
//
// Only a framework-load failure is surfaced to the caller. Per-issue
// persist failures and per-framework counter failures are logged and
// absorbed: a partial compliance mapping is strictly better than none.
func (s *ComplianceServiceImpl) MapIssuesToCompliance(ctx context.Context, req domain.MappingRequest) (*domain.MappingResponse, error) {
	frameworks, err := s.frameworkStore.ListFrameworks(ctx, req.UserID)
	if err != nil {
		return nil, domain.NewFrameworkLoadError(fmt.Sprintf("failed to load frameworks for user %s", req.UserID), err)
	}

	active := make([]domain.ComplianceFramework, 0, len(frameworks))
	for _, fw := range frameworks {
		if fw.IsActive() {
			active = append(active, fw)
		}
	}

	response := &domain.MappingResponse{
		ComplianceIssues: []domain.ComplianceIssue{},
		FrameworkImpacts: map[string]*domain.FrameworkImpact{},
		ScanID:           req.ScanID,
		GeneratedAt:      s.now().Format(time.RFC3339),
		Version:          version.Version,
	}

	// Compliance mapping is optional; no active frameworks is not an error
	if len(active) == 0 {
		response.Summary = domain.ComplianceSummary{}
		return response, nil
	}

	// Resolve and compile rule sets up front. Frameworks without a rule
	// mapping classify nothing but still appear with zero counters.
	compiled := make(map[string][]classifier.Rule, len(active))
	impacts := make(map[string]*domain.FrameworkImpact, len(active))
	for _, fw := range active {
		impacts[fw.Code] = &domain.FrameworkImpact{
			FrameworkID:   fw.ID,
			FrameworkName: fw.Name,
		}

		ruleSet, err := s.rules.Rules(fw.Code)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"framework": fw.Code,
				"scan_id":   req.ScanID,
			}).Warn("no rule mapping for active framework, skipping")
			continue
		}
		rules, err := classifier.CompileRules(ruleSet)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"framework": fw.Code,
				"scan_id":   req.ScanID,
			}).WithError(err).Warn("failed to compile rules for framework, skipping")
			continue
		}
		compiled[fw.Code] = rules
	}

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Mapping issues to compliance frameworks", len(req.Issues))
	}
	defer task.Complete()

	for _, issue := range req.Issues {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, fw := range active {
			rules, ok := compiled[fw.Code]
			if !ok {
				continue
			}

			match := classifier.Classify(issue, rules)
			if match == nil {
				continue
			}

			complianceIssue := s.synthesizeIssue(req, issue, fw, match)
			response.ComplianceIssues = append(response.ComplianceIssues, complianceIssue)
			impacts[fw.Code].Add(complianceIssue)
		}
		task.Increment(1)
	}

	// Persist every synthesized issue. A failed write must not abort the
	// remaining writes.
	for i := range response.ComplianceIssues {
		ci := &response.ComplianceIssues[i]
		if err := s.issueStore.CreateIssue(ctx, ci); err != nil {
			persistErr := domain.NewIssuePersistError(
				fmt.Sprintf("failed to persist compliance issue %q", ci.Title), err)
			s.log.WithFields(logrus.Fields{
				"framework_id": ci.FrameworkID,
				"issue_title":  ci.Title,
				"scan_id":      req.ScanID,
			}).WithError(err).Error("failed to persist compliance issue")
			response.Warnings = append(response.Warnings, persistErr.Error())
		}
	}

	// Add counter deltas for every impacted framework. A failed update
	// must not abort the other frameworks' updates.
	for code, impact := range impacts {
		if impact.Total == 0 {
			continue
		}
		if err := s.frameworkStore.AddIssueCounts(ctx, impact.FrameworkID, impact.Delta()); err != nil {
			counterErr := domain.NewCounterUpdateError(
				fmt.Sprintf("failed to update counters for framework %s", code), err)
			s.log.WithFields(logrus.Fields{
				"framework": code,
				"scan_id":   req.ScanID,
			}).WithError(err).Error("failed to update framework counters")
			response.Warnings = append(response.Warnings, counterErr.Error())
		}
	}

	// Only frameworks that matched at least one issue are reported
	for code, impact := range impacts {
		if impact.Total > 0 {
			response.FrameworkImpacts[code] = impact
		}
	}
	response.Summary = s.GenerateComplianceSummary(response.FrameworkImpacts)

	return response, nil
}

// synthesizeIssue builds the framework-specific compliance issue for one
// classified raw issue
func (s *ComplianceServiceImpl) synthesizeIssue(req domain.MappingRequest, issue domain.RawIssue, fw domain.ComplianceFramework, match *classifier.Match) domain.ComplianceIssue {
	headline := issue.Title
	if headline == "" {
		headline = issue.Description
	}

	category := issue.Category
	if category == "" {
		category = constants.DefaultCategoryTag
	}

	return domain.ComplianceIssue{
		UserID:         req.UserID,
		FrameworkID:    fw.ID,
		Title:          fmt.Sprintf("%s Compliance Issue: %s", fw.Name, headline),
		Description:    generateComplianceDescription(issue, fw),
		Severity:       match.Severity,
		Status:         domain.IssueStatusOpen,
		IssueType:      domain.IssueTypeScanFinding,
		DiscoveredDate: s.now().Format("2006-01-02"),
		ReportedBy:     s.reportedBy,
		Evidence: domain.Evidence{
			ScanID:          req.ScanID,
			OriginalIssue:   issue,
			MatchedPatterns: match.MatchedPatterns,
		},
		Tags: []string{fw.Code, constants.TagAutomatedScan, category},
	}
}

// frameworkGuidance holds the framework-specific relevance paragraph added
// to every synthesized description
var frameworkGuidance = map[string]string{
	registry.CodeGDPR:     "**GDPR Relevance:** This issue may affect data protection requirements under GDPR Articles 25 (Data Protection by Design) and 32 (Security of Processing).",
	registry.CodeHIPAA:    "**HIPAA Relevance:** This security vulnerability may compromise Protected Health Information (PHI) and violate HIPAA Security Rule requirements.",
	registry.CodeSOC2:     "**SOC 2 Relevance:** This issue may impact the Security trust service criteria and affect system security controls.",
	registry.CodeISO27001: "**ISO 27001 Relevance:** This security issue may indicate non-compliance with information security management system (ISMS) requirements.",
	registry.CodePCIDSS:   "**PCI DSS Relevance:** This vulnerability may affect cardholder data security and PCI DSS compliance requirements.",
}

// generateComplianceDescription renders the framework-specific description
// for a classified issue. The exact wording is presentation; the original
// issue context, severity, location, and recommendation are load-bearing.
func generateComplianceDescription(issue domain.RawIssue, fw domain.ComplianceFramework) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Security issue identified during automated scan that may impact %s compliance.\n\n", fw.Name)

	original := issue.Description
	if original == "" {
		original = issue.Title
	}
	fmt.Fprintf(&sb, "**Original Issue:** %s\n", original)
	fmt.Fprintf(&sb, "**Severity:** %s\n", domain.NormalizeSeverity(issue.Severity))

	category := issue.Category
	if category == "" {
		category = "Security"
	}
	fmt.Fprintf(&sb, "**Category:** %s\n\n", category)

	if issue.FilePath != "" {
		fmt.Fprintf(&sb, "**Location:** %s", issue.FilePath)
		if issue.LineNumber > 0 {
			fmt.Fprintf(&sb, ":%d", issue.LineNumber)
		}
		sb.WriteString("\n\n")
	}

	if guidance, ok := frameworkGuidance[fw.Code]; ok {
		sb.WriteString(guidance)
		sb.WriteString("\n\n")
	}

	if issue.Recommendation != "" {
		fmt.Fprintf(&sb, "**Recommended Action:** %s\n\n", issue.Recommendation)
	}

	fmt.Fprintf(&sb, "**Compliance Impact:** Review and remediate this issue to maintain %s compliance posture.", fw.Name)

	return sb.String()
}

// GenerateComplianceSummary derives the per-framework rollup from the
// impacts of one mapping pass. Pure: same input, same output.
func (s *ComplianceServiceImpl) GenerateComplianceSummary(impacts map[string]*domain.FrameworkImpact) domain.ComplianceSummary {
	summary := make(domain.ComplianceSummary, len(impacts))
	for code, impact := range impacts {
		summary[code] = domain.FrameworkSummary{
			Name:     impact.FrameworkName,
			Count:    impact.Total,
			Critical: impact.Critical,
			High:     impact.High,
			Medium:   impact.Medium,
			Low:      impact.Low,
		}
	}
	return summary
}

// Keyword screens for framework recommendations
var (
	recommendGDPRPattern  = regexp.MustCompile(`personal.*data|privacy|gdpr|data.*protection`)
	recommendHIPAAPattern = regexp.MustCompile(`health.*information|medical.*data|\bphi\b|hipaa`)
	recommendPCIPattern   = regexp.MustCompile(`payment|credit.*card|financial|pci`)
)

// GetFrameworkRecommendations suggests compliance frameworks based on the
// content of a scan's issues. Best-effort and advisory only.
func (s *ComplianceServiceImpl) GetFrameworkRecommendations(issues []domain.RawIssue) []domain.FrameworkRecommendation {
	recommendations := []domain.FrameworkRecommendation{}
	if len(issues) == 0 {
		return recommendations
	}

	var sb strings.Builder
	for _, issue := range issues {
		sb.WriteString(classifier.SearchText(issue))
		sb.WriteString(" ")
	}
	text := sb.String()

	if recommendGDPRPattern.MatchString(text) {
		recommendations = append(recommendations, domain.FrameworkRecommendation{
			Framework: "GDPR",
			Code:      registry.CodeGDPR,
			Reason:    "Issues related to personal data protection detected",
			Priority:  "high",
		})
	}

	if recommendHIPAAPattern.MatchString(text) {
		recommendations = append(recommendations, domain.FrameworkRecommendation{
			Framework: "HIPAA",
			Code:      registry.CodeHIPAA,
			Reason:    "Healthcare data security issues detected",
			Priority:  "critical",
		})
	}

	if recommendPCIPattern.MatchString(text) {
		recommendations = append(recommendations, domain.FrameworkRecommendation{
			Framework: "PCI DSS",
			Code:      registry.CodePCIDSS,
			Reason:    "Payment card data security issues detected",
			Priority:  "critical",
		})
	}

	if len(issues) > recommendISOIssueThreshold {
		recommendations = append(recommendations, domain.FrameworkRecommendation{
			Framework: "ISO 27001",
			Code:      registry.CodeISO27001,
			Reason:    "Multiple security issues suggest need for comprehensive ISMS",
			Priority:  "medium",
		})
	}

	return recommendations
}
