package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vibecodeauditor/vcaudit/domain"
)

// detailWriter is implemented by formatters that support a detailed text view
type detailWriter interface {
	WriteWithDetails(response *domain.MappingResponse, format domain.OutputFormat, writer io.Writer, showDetails bool) error
}

// MapUseCase orchestrates the compliance mapping workflow
type MapUseCase struct {
	service      domain.ComplianceService
	formatter    domain.OutputFormatter
	reportHelper *ReportHelper
}

// NewMapUseCase creates a new compliance mapping use case
func NewMapUseCase(service domain.ComplianceService, formatter domain.OutputFormatter) *MapUseCase {
	return &MapUseCase{
		service:      service,
		formatter:    formatter,
		reportHelper: NewReportHelper(),
	}
}

// Execute performs the complete compliance mapping workflow
func (uc *MapUseCase) Execute(ctx context.Context, req domain.MappingRequest) (*domain.MappingResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	response, err := uc.service.MapIssuesToCompliance(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.OutputWriter != nil {
		if dw, ok := uc.formatter.(detailWriter); ok {
			if err := dw.WriteWithDetails(response, req.OutputFormat, req.OutputWriter, req.ShowDetails); err != nil {
				return nil, err
			}
		} else if err := uc.formatter.Write(response, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, err
		}
	}

	return response, nil
}

// ExecuteReportFile maps the issues from a single scan report file
func (uc *MapUseCase) ExecuteReportFile(ctx context.Context, filePath string, req domain.MappingRequest) (*domain.MappingResponse, error) {
	exists, err := uc.reportHelper.FileExists(filePath)
	if err != nil {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}
	if !exists {
		return nil, domain.NewFileNotFoundError(filePath, fmt.Errorf("file does not exist"))
	}

	report, err := uc.reportHelper.LoadReport(filePath)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("failed to load scan report: %s", filePath), err)
	}

	if report.ScanID != "" {
		req.ScanID = report.ScanID
	}
	if report.UserID != "" && req.UserID == "" {
		req.UserID = report.UserID
	}
	req.Issues = report.Issues

	return uc.Execute(ctx, req)
}

// validateRequest validates the mapping request
func (uc *MapUseCase) validateRequest(req domain.MappingRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("no user id specified")
	}

	if req.ScanID == "" {
		return fmt.Errorf("no scan id specified")
	}

	for i, issue := range req.Issues {
		if issue.Title == "" && issue.Description == "" {
			return fmt.Errorf("issue %d has neither title nor description", i)
		}
	}

	return nil
}

// MapUseCaseBuilder provides a builder pattern for creating MapUseCase
type MapUseCaseBuilder struct {
	service      domain.ComplianceService
	formatter    domain.OutputFormatter
	reportHelper *ReportHelper
}

// NewMapUseCaseBuilder creates a new builder
func NewMapUseCaseBuilder() *MapUseCaseBuilder {
	return &MapUseCaseBuilder{}
}

// WithService sets the compliance service
func (b *MapUseCaseBuilder) WithService(service domain.ComplianceService) *MapUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the output formatter
func (b *MapUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *MapUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithReportHelper sets the report helper
func (b *MapUseCaseBuilder) WithReportHelper(helper *ReportHelper) *MapUseCaseBuilder {
	b.reportHelper = helper
	return b
}

// Build creates the MapUseCase with the configured dependencies
func (b *MapUseCaseBuilder) Build() (*MapUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("compliance service is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := &MapUseCase{
		service:      b.service,
		formatter:    b.formatter,
		reportHelper: b.reportHelper,
	}

	if uc.reportHelper == nil {
		uc.reportHelper = NewReportHelper()
	}

	return uc, nil
}
