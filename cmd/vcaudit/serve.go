package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibecodeauditor/vcaudit/internal/config"
	"github.com/vibecodeauditor/vcaudit/internal/server"
	"github.com/vibecodeauditor/vcaudit/service"
)

var (
	serveConfigPath string
	serveHost       string
	servePort       int
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compliance mapping HTTP API",
		Long: `Run the HTTP API exposing scan submission, compliance summaries,
framework listings, and framework recommendations.

Examples:
  vcaudit serve
  vcaudit serve --port 9000
  vcaudit serve --config vcaudit.yaml`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&serveConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().StringVar(&serveHost, "host", "",
		"Listen host (overrides config)")
	cmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Listen port (overrides config)")
	cmd.Flags().BoolP("verbose", "v", false,
		"Enable verbose logging")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	log := newLogger(verbose)
	// The server always logs startup and request failures
	if !verbose {
		log.SetLevel(logrus.InfoLevel)
	}

	cfg, err := config.LoadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	userID := cfg.Mapping.UserID
	if userID == "" {
		userID = config.DefaultUserID
	}

	reg, err := loadRegistry(cfg.Rules.Path)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, reg, userID)
	if err != nil {
		return err
	}

	svc := service.NewComplianceService(reg, st, st, log)
	if cfg.Mapping.ReportedBy != "" {
		svc.SetReportedBy(cfg.Mapping.ReportedBy)
	}

	srv := server.New(svc, reg, st, st, cfg.Server, userID, log)
	return srv.Run()
}
