package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/config"
	"github.com/vibecodeauditor/vcaudit/service"
)

var (
	frameworksFormat     string
	frameworksDetails    bool
	frameworksConfigPath string
	frameworksRulesPath  string
	frameworksUserID     string
)

func frameworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frameworks",
		Short: "List compliance frameworks and their issue counters",
		Long: `List the configured compliance frameworks with their cumulative issue
counters. With --details, also show each framework's classification rules
and reference clauses.

Examples:
  vcaudit frameworks
  vcaudit frameworks --details
  vcaudit frameworks --format json`,
		RunE: runFrameworks,
	}

	cmd.Flags().StringVarP(&frameworksFormat, "format", "f", "text",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVarP(&frameworksDetails, "details", "d", false,
		"Show classification rules and reference clauses")
	cmd.Flags().StringVarP(&frameworksConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().StringVar(&frameworksRulesPath, "rules", "",
		"Path to a YAML rules file extending the built-in frameworks")
	cmd.Flags().StringVarP(&frameworksUserID, "user", "u", "",
		"User scope")

	return cmd
}

func runFrameworks(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(frameworksConfigPath)
	if err != nil {
		return err
	}

	userID := frameworksUserID
	if userID == "" {
		userID = cfg.Mapping.UserID
	}
	if userID == "" {
		userID = config.DefaultUserID
	}

	rulesPath := frameworksRulesPath
	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}
	reg, err := loadRegistry(rulesPath)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, reg, userID)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	frameworks, err := st.ListFrameworks(context.Background(), userID)
	if err != nil {
		return fmt.Errorf("failed to list frameworks: %w", err)
	}

	formatter := service.NewOutputFormatter()
	format := domain.OutputFormat(frameworksFormat)
	if err := formatter.WriteFrameworks(frameworks, format, os.Stdout); err != nil {
		return err
	}

	if frameworksDetails && format == domain.OutputFormatText {
		fmt.Println()
		for _, def := range reg.Definitions() {
			fmt.Printf("%s (%s)\n", def.Name, def.Code)
			fmt.Println("  Rules:")
			for _, rule := range def.Rules {
				fmt.Printf("    %-8s %s\n", rule.Severity, rule.Pattern)
			}
			if len(def.References) > 0 {
				fmt.Println("  References:")
				for clause, topics := range def.References {
					fmt.Printf("    %s:", clause)
					for _, topic := range topics {
						fmt.Printf(" %s;", topic)
					}
					fmt.Println()
				}
			}
			fmt.Println()
		}
	}

	return nil
}
