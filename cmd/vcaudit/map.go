package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vibecodeauditor/vcaudit/app"
	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/config"
	"github.com/vibecodeauditor/vcaudit/service"
)

var (
	mapOutputFormat string
	mapJSONOutput   bool
	mapShowDetails  bool
	mapConfigPath   string
	mapRulesPath    string
	mapUserID       string
	mapScanID       string
	mapRecursive    bool
)

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [report...]",
		Short: "Map scan report issues onto compliance frameworks",
		Long: `Map security scan report issues onto the active compliance frameworks.

Each report is a JSON file containing either a scan report object or a bare
issue array. Matched issues are persisted as compliance issues and added to
the per-framework counters.

Examples:
  vcaudit map scan-results.json
  vcaudit map --details scan-results.json
  vcaudit map --json reports/
  vcaudit map --rules custom-rules.yaml scan-results.json`,
		RunE: runMap,
	}

	cmd.Flags().StringVarP(&mapOutputFormat, "format", "f", "",
		"Output format: text, json, yaml, csv")
	cmd.Flags().BoolVar(&mapJSONOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVarP(&mapShowDetails, "details", "d", false,
		"Show per-issue details in text output")
	cmd.Flags().StringVarP(&mapConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().StringVar(&mapRulesPath, "rules", "",
		"Path to a YAML rules file extending the built-in frameworks")
	cmd.Flags().StringVarP(&mapUserID, "user", "u", "",
		"User scope for frameworks and persisted issues")
	cmd.Flags().StringVar(&mapScanID, "scan-id", "",
		"Scan identifier recorded on derived issues (default: report value or generated)")
	cmd.Flags().BoolVarP(&mapRecursive, "recursive", "r", true,
		"Recurse into directories when collecting reports")
	cmd.Flags().BoolP("verbose", "v", false,
		"Enable verbose logging")

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no report paths specified")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log := newLogger(verbose)

	loader := service.NewConfigurationLoader()
	base := loader.LoadDefaultConfig()
	if mapConfigPath != "" {
		loaded, err := loader.LoadConfig(mapConfigPath)
		if err != nil {
			return err
		}
		base = loaded
	}

	override := &domain.MappingRequest{
		ScanID:      mapScanID,
		UserID:      mapUserID,
		ShowDetails: mapShowDetails,
		RulesPath:   mapRulesPath,
	}
	if mapJSONOutput {
		override.OutputFormat = domain.OutputFormatJSON
	} else if mapOutputFormat != "" {
		override.OutputFormat = domain.OutputFormat(mapOutputFormat)
	}
	req := loader.MergeConfig(base, override)
	if req.UserID == "" {
		req.UserID = config.DefaultUserID
	}

	if err := loader.ValidateConfig(req); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(mapConfigPath)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(req.RulesPath)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, reg, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	reportHelper := app.NewReportHelper()
	files, err := reportHelper.CollectReportFiles(args, mapRecursive, nil)
	if err != nil {
		return fmt.Errorf("failed to collect reports: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no scan report files found")
	}

	// Progress bars are only useful for the interactive text view
	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText)
	defer pm.Close()

	svc := service.NewComplianceServiceWithProgress(reg, st, st, log, pm)
	if cfg.Mapping.ReportedBy != "" {
		svc.SetReportedBy(cfg.Mapping.ReportedBy)
	}

	uc, err := app.NewMapUseCaseBuilder().
		WithService(svc).
		WithFormatter(service.NewOutputFormatter()).
		Build()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if len(files) == 1 {
		fileReq := *req
		fileReq.OutputWriter = os.Stdout
		if fileReq.ScanID == "" {
			fileReq.ScanID = uuid.NewString()
		}
		_, err := uc.ExecuteReportFile(ctx, files[0], fileReq)
		return err
	}

	return runMapBatch(ctx, cfg, uc, req, files)
}

// runMapBatch maps several report files concurrently and writes their
// results in input order once all have finished
func runMapBatch(ctx context.Context, cfg *config.Config, uc *app.MapUseCase, req *domain.MappingRequest, files []string) error {
	tasks := make([]domain.ExecutableTask, len(files))
	results := make([]*domain.MappingResponse, len(files))
	var mu sync.Mutex

	for i, file := range files {
		tasks[i] = &mapReportTask{
			file: file,
			run: func(ctx context.Context, file string) (*domain.MappingResponse, error) {
				fileReq := *req
				fileReq.OutputWriter = nil
				fileReq.ScanID = uuid.NewString()
				return uc.ExecuteReportFile(ctx, file, fileReq)
			},
			store: func(resp *domain.MappingResponse) {
				mu.Lock()
				results[i] = resp
				mu.Unlock()
			},
		}
	}

	executor := service.NewParallelExecutorFromConfig(&cfg.Performance)
	execErr := executor.Execute(ctx, tasks)

	formatter := service.NewOutputFormatter()
	for i, resp := range results {
		if resp == nil {
			continue
		}
		if len(files) > 1 && req.OutputFormat == domain.OutputFormatText {
			fmt.Printf("== %s ==\n", filepath.Base(files[i]))
		}
		if err := formatter.WriteWithDetails(resp, req.OutputFormat, os.Stdout, req.ShowDetails); err != nil {
			return err
		}
	}

	return execErr
}

// mapReportTask adapts one report file to the parallel executor
type mapReportTask struct {
	file  string
	run   func(ctx context.Context, file string) (*domain.MappingResponse, error)
	store func(resp *domain.MappingResponse)
}

func (t *mapReportTask) Name() string { return t.file }

func (t *mapReportTask) IsEnabled() bool { return true }

func (t *mapReportTask) Execute(ctx context.Context) (interface{}, error) {
	resp, err := t.run(ctx, t.file)
	if err != nil {
		return nil, err
	}
	t.store(resp)
	return resp, nil
}
