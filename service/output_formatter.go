package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vibecodeauditor/vcaudit/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

// Write writes the mapping response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.MappingResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	case domain.OutputFormatText:
		return f.writeText(response, writer, false)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// WriteWithDetails writes the text format with per-issue details included.
// Other formats always carry full detail and ignore the flag.
func (f *OutputFormatterImpl) WriteWithDetails(response *domain.MappingResponse, format domain.OutputFormat, writer io.Writer, showDetails bool) error {
	if format == domain.OutputFormatText {
		return f.writeText(response, writer, showDetails)
	}
	return f.Write(response, format, writer)
}

// writeText renders the human-readable mapping report
func (f *OutputFormatterImpl) writeText(response *domain.MappingResponse, writer io.Writer, showDetails bool) error {
	var sb strings.Builder

	sb.WriteString("Compliance Mapping Report\n")
	sb.WriteString("=========================\n\n")
	fmt.Fprintf(&sb, "Scan ID:      %s\n", response.ScanID)
	fmt.Fprintf(&sb, "Generated At: %s\n", response.GeneratedAt)
	fmt.Fprintf(&sb, "Version:      %s\n\n", response.Version)

	if len(response.FrameworkImpacts) == 0 {
		sb.WriteString("No compliance issues identified.\n")
		_, err := writer.Write([]byte(sb.String()))
		return wrapOutputErr(err)
	}

	codes := make([]string, 0, len(response.FrameworkImpacts))
	for code := range response.FrameworkImpacts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	sb.WriteString("Framework Impact\n")
	sb.WriteString("----------------\n")
	for _, code := range codes {
		impact := response.FrameworkImpacts[code]
		fmt.Fprintf(&sb, "%-12s %-40s total=%d critical=%d high=%d medium=%d low=%d\n",
			code, impact.FrameworkName, impact.Total,
			impact.Critical, impact.High, impact.Medium, impact.Low)
	}
	sb.WriteString("\n")

	if showDetails {
		sb.WriteString("Compliance Issues\n")
		sb.WriteString("-----------------\n")
		for _, code := range codes {
			impact := response.FrameworkImpacts[code]
			for _, issue := range impact.Issues {
				fmt.Fprintf(&sb, "[%s] %s\n", strings.ToUpper(string(issue.Severity)), issue.Title)
				if issue.Evidence.OriginalIssue.FilePath != "" {
					fmt.Fprintf(&sb, "    at %s", issue.Evidence.OriginalIssue.FilePath)
					if issue.Evidence.OriginalIssue.LineNumber > 0 {
						fmt.Fprintf(&sb, ":%d", issue.Evidence.OriginalIssue.LineNumber)
					}
					sb.WriteString("\n")
				}
				fmt.Fprintf(&sb, "    matched: %s\n", strings.Join(issue.Evidence.MatchedPatterns, ", "))
			}
		}
		sb.WriteString("\n")
	}

	if len(response.Warnings) > 0 {
		sb.WriteString("Warnings\n")
		sb.WriteString("--------\n")
		for _, warning := range response.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warning)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Total compliance issues: %d\n", len(response.ComplianceIssues))

	_, err := writer.Write([]byte(sb.String()))
	return wrapOutputErr(err)
}

// writeCSV renders one row per compliance issue
func (f *OutputFormatterImpl) writeCSV(response *domain.MappingResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{"framework_id", "title", "severity", "status", "issue_type", "discovered_date", "file_path", "line_number", "matched_patterns"}
	if err := w.Write(header); err != nil {
		return wrapOutputErr(err)
	}

	for _, issue := range response.ComplianceIssues {
		line := ""
		if issue.Evidence.OriginalIssue.LineNumber > 0 {
			line = strconv.Itoa(issue.Evidence.OriginalIssue.LineNumber)
		}
		record := []string{
			issue.FrameworkID,
			issue.Title,
			string(issue.Severity),
			string(issue.Status),
			issue.IssueType,
			issue.DiscoveredDate,
			issue.Evidence.OriginalIssue.FilePath,
			line,
			strings.Join(issue.Evidence.MatchedPatterns, "|"),
		}
		if err := w.Write(record); err != nil {
			return wrapOutputErr(err)
		}
	}

	w.Flush()
	return wrapOutputErr(w.Error())
}

// WriteRecommendations writes framework recommendations in the given format
func (f *OutputFormatterImpl) WriteRecommendations(recommendations []domain.FrameworkRecommendation, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, recommendations)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, recommendations)
	case domain.OutputFormatText:
		var sb strings.Builder
		if len(recommendations) == 0 {
			sb.WriteString("No framework recommendations.\n")
		} else {
			sb.WriteString("Recommended Compliance Frameworks\n")
			sb.WriteString("---------------------------------\n")
			for _, rec := range recommendations {
				fmt.Fprintf(&sb, "%-10s %-12s (%s priority)\n", rec.Code, rec.Framework, rec.Priority)
				fmt.Fprintf(&sb, "           %s\n", rec.Reason)
			}
		}
		_, err := writer.Write([]byte(sb.String()))
		return wrapOutputErr(err)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// WriteFrameworks writes the framework list in the given format
func (f *OutputFormatterImpl) WriteFrameworks(frameworks []domain.ComplianceFramework, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, frameworks)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, frameworks)
	case domain.OutputFormatText:
		var sb strings.Builder
		if len(frameworks) == 0 {
			sb.WriteString("No compliance frameworks configured.\n")
		} else {
			sb.WriteString("Compliance Frameworks\n")
			sb.WriteString("---------------------\n")
			for _, fw := range frameworks {
				fmt.Fprintf(&sb, "%-12s %-40s %-8s critical=%d high=%d medium=%d low=%d\n",
					fw.Code, fw.Name, fw.Status,
					fw.CriticalIssues, fw.HighIssues, fw.MediumIssues, fw.LowIssues)
			}
		}
		_, err := writer.Write([]byte(sb.String()))
		return wrapOutputErr(err)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func wrapOutputErr(err error) error {
	if err == nil {
		return nil
	}
	return domain.NewOutputError("failed to write output", err)
}
