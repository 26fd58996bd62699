package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vibecodeauditor/vcaudit/internal/version"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vcaudit",
		Short: "vcaudit - compliance mapping for security scan results",
		Long: `vcaudit maps security scan findings onto regulatory compliance frameworks.
It classifies issues against GDPR, HIPAA, SOC 2, ISO 27001, and PCI DSS,
tracks per-framework issue counters, and recommends frameworks to enable.`,
		Version: Version,
	}

	// Add subcommands
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(frameworksCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Println(version.GetFullVersion())
			} else {
				fmt.Printf("vcaudit version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
