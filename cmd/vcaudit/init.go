package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/vibecodeauditor/vcaudit/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a vcaudit configuration file",
		Long: `Generate a documented vcaudit configuration file with sensible defaults.

By default, creates vcaudit.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create vcaudit.yaml in current directory
  vcaudit init

  # Custom output path
  vcaudit init --config custom.yaml

  # Overwrite existing file
  vcaudit init --force

  # Generate smaller config with essential options only
  vcaudit init --minimal

  # Interactive setup wizard
  vcaudit init --interactive
  vcaudit init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", "vcaudit.yaml",
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")

	preset := config.PresetAll
	outputFormat := "text"

	if interactive {
		var err error
		var interactiveConfigPath string
		preset, outputFormat, interactiveConfigPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
		configPath = interactiveConfigPath
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(preset, outputFormat)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'vcaudit map <report.json>' to map your scan results.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (config.FrameworkPreset, string, string, error) {
	fmt.Println()
	fmt.Println("vcaudit Configuration Setup")
	fmt.Println("===========================")
	fmt.Println()

	// Framework preset selection
	presets := []struct {
		Label       string
		Description string
		Value       config.FrameworkPreset
	}{
		{"All frameworks", "GDPR, HIPAA, SOC 2, ISO 27001, PCI DSS", config.PresetAll},
		{"Privacy", "GDPR and SOC 2", config.PresetPrivacy},
		{"Healthcare", "HIPAA, GDPR, and ISO 27001", config.PresetHealthcare},
		{"Payments", "PCI DSS and SOC 2", config.PresetPayments},
	}

	presetTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	presetPrompt := promptui.Select{
		Label:     "Which compliance frameworks apply to this project?",
		Items:     presets,
		Templates: presetTemplates,
	}

	presetIdx, _, err := presetPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("framework selection cancelled: %w", err)
	}
	selectedPreset := presets[presetIdx].Value

	fmt.Println()

	// Output format selection
	formats := []struct {
		Label       string
		Description string
		Value       string
	}{
		{"Text", "Human-readable report", "text"},
		{"JSON", "Machine-readable, for pipelines", "json"},
		{"YAML", "Machine-readable, for review", "yaml"},
		{"CSV", "One row per compliance issue", "csv"},
	}

	formatTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	formatPrompt := promptui.Select{
		Label:     "Default output format?",
		Items:     formats,
		Templates: formatTemplates,
	}

	formatIdx, _, err := formatPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("format selection cancelled: %w", err)
	}
	selectedFormat := formats[formatIdx].Value

	fmt.Println()

	// Output path prompt
	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("output path input cancelled: %w", err)
	}

	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return selectedPreset, selectedFormat, outputPath, nil
}
