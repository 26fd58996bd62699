package config

import (
	"fmt"
	"strings"
)

// FrameworkPreset selects which frameworks the generated config activates
type FrameworkPreset string

const (
	PresetAll        FrameworkPreset = "all"
	PresetPrivacy    FrameworkPreset = "privacy"
	PresetHealthcare FrameworkPreset = "healthcare"
	PresetPayments   FrameworkPreset = "payments"
)

// GetPresetFrameworks returns the framework codes activated by a preset
func GetPresetFrameworks() map[FrameworkPreset][]string {
	return map[FrameworkPreset][]string{
		PresetAll:        {"gdpr", "hipaa", "soc2", "iso27001", "pci_dss"},
		PresetPrivacy:    {"gdpr", "soc2"},
		PresetHealthcare: {"hipaa", "gdpr", "iso27001"},
		PresetPayments:   {"pci_dss", "soc2"},
	}
}

// GetFullConfigTemplate generates a documented configuration file
func GetFullConfigTemplate(preset FrameworkPreset, format string) string {
	frameworks := GetPresetFrameworks()[preset]
	if len(frameworks) == 0 {
		frameworks = GetPresetFrameworks()[PresetAll]
	}

	var sb strings.Builder
	sb.WriteString("# vcaudit configuration\n")
	sb.WriteString("#\n")
	sb.WriteString("# Generated by 'vcaudit init'. All values shown are defaults unless noted.\n\n")

	sb.WriteString("mapping:\n")
	sb.WriteString("  # User scope for frameworks and persisted issues\n")
	sb.WriteString(fmt.Sprintf("  user_id: %q\n", DefaultUserID))
	sb.WriteString("  # Reporter recorded on synthesized compliance issues\n")
	sb.WriteString(fmt.Sprintf("  reported_by: %q\n", DefaultReportedBy))
	sb.WriteString("  # Frameworks seeded as active (empty activates all built-ins)\n")
	sb.WriteString("  frameworks:\n")
	for _, code := range frameworks {
		sb.WriteString(fmt.Sprintf("    - %s\n", code))
	}
	sb.WriteString("\n")

	sb.WriteString("rules:\n")
	sb.WriteString("  # Optional YAML file extending the built-in framework rules.\n")
	sb.WriteString("  # See 'vcaudit frameworks --details' for the built-in rule sets.\n")
	sb.WriteString("  path: \"\"\n\n")

	sb.WriteString("output:\n")
	sb.WriteString("  # Output format: text, json, yaml, csv\n")
	sb.WriteString(fmt.Sprintf("  format: %q\n", format))
	sb.WriteString("  # Show per-issue details in text output\n")
	sb.WriteString("  show_details: false\n\n")

	sb.WriteString("storage:\n")
	sb.WriteString("  # Store backend: memory, file\n")
	sb.WriteString("  backend: \"file\"\n")
	sb.WriteString(fmt.Sprintf("  data_dir: %q\n\n", DefaultDataDir))

	sb.WriteString("server:\n")
	sb.WriteString(fmt.Sprintf("  host: %q\n", DefaultServerHost))
	sb.WriteString(fmt.Sprintf("  port: %d\n\n", DefaultServerPort))

	sb.WriteString("performance:\n")
	sb.WriteString("  # Concurrent report files processed by 'vcaudit map'\n")
	sb.WriteString(fmt.Sprintf("  max_goroutines: %d\n", DefaultMaxGoroutines))
	sb.WriteString(fmt.Sprintf("  timeout_seconds: %d\n", DefaultTimeoutSeconds))

	return sb.String()
}

// GetMinimalConfigTemplate generates a minimal configuration file
func GetMinimalConfigTemplate() string {
	var sb strings.Builder
	sb.WriteString("# vcaudit configuration (minimal)\n\n")
	sb.WriteString("mapping:\n")
	sb.WriteString(fmt.Sprintf("  user_id: %q\n\n", DefaultUserID))
	sb.WriteString("output:\n")
	sb.WriteString("  format: \"text\"\n\n")
	sb.WriteString("storage:\n")
	sb.WriteString("  backend: \"file\"\n")
	sb.WriteString(fmt.Sprintf("  data_dir: %q\n", DefaultDataDir))
	return sb.String()
}
