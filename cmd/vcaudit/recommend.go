package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vibecodeauditor/vcaudit/app"
	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/registry"
	"github.com/vibecodeauditor/vcaudit/internal/store"
	"github.com/vibecodeauditor/vcaudit/service"
)

var (
	recommendFormat    string
	recommendRecursive bool
)

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend [report...]",
		Short: "Recommend compliance frameworks based on scan findings",
		Long: `Analyze scan report content and recommend which compliance frameworks
to enable. Recommendations are advisory; nothing is persisted.

Examples:
  vcaudit recommend scan-results.json
  vcaudit recommend --format json reports/`,
		RunE: runRecommend,
	}

	cmd.Flags().StringVarP(&recommendFormat, "format", "f", "text",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVarP(&recommendRecursive, "recursive", "r", true,
		"Recurse into directories when collecting reports")

	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no report paths specified")
	}

	reportHelper := app.NewReportHelper()
	files, err := reportHelper.CollectReportFiles(args, recommendRecursive, nil)
	if err != nil {
		return fmt.Errorf("failed to collect reports: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no scan report files found")
	}

	var issues []domain.RawIssue
	for _, file := range files {
		report, err := reportHelper.LoadReport(file)
		if err != nil {
			return err
		}
		issues = append(issues, report.Issues...)
	}

	// Recommendations need no persistence; a throwaway memory store backs
	// the service
	mem := store.NewMemoryStore()
	svc := service.NewComplianceService(registry.Default(), mem, mem, newLogger(false))
	recommendations := svc.GetFrameworkRecommendations(issues)

	formatter := service.NewOutputFormatter()
	return formatter.WriteRecommendations(recommendations, domain.OutputFormat(recommendFormat), os.Stdout)
}
