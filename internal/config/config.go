package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default mapping settings
const (
	// DefaultUserID is the user scope used by the CLI when none is given
	DefaultUserID = "local"

	// DefaultReportedBy is the reporter recorded on synthesized issues
	DefaultReportedBy = "Security Scanner"

	// DefaultDataDir is where the file-backed store keeps its records
	DefaultDataDir = ".vcaudit/data"
)

// Default server settings
const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8000
)

// Default performance settings
const (
	DefaultMaxGoroutines  = 4
	DefaultTimeoutSeconds = 300
)

// Config represents the main configuration structure
type Config struct {
	// Mapping holds compliance mapping configuration
	Mapping MappingConfig `json:"mapping" mapstructure:"mapping" yaml:"mapping"`

	// Rules holds the rule registry configuration
	Rules RulesConfig `json:"rules" mapstructure:"rules" yaml:"rules"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Storage holds persistence configuration
	Storage StorageConfig `json:"storage" mapstructure:"storage" yaml:"storage"`

	// Server holds the HTTP API configuration
	Server ServerConfig `json:"server" mapstructure:"server" yaml:"server"`

	// Performance holds parallel execution configuration
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// MappingConfig holds configuration for the compliance mapping pass
type MappingConfig struct {
	// UserID is the user whose active frameworks participate
	UserID string `json:"user_id" mapstructure:"user_id" yaml:"user_id"`

	// ReportedBy is recorded as the reporter on synthesized issues
	ReportedBy string `json:"reported_by" mapstructure:"reported_by" yaml:"reported_by"`

	// Frameworks lists the framework codes seeded as active for the user.
	// Empty activates every registered framework.
	Frameworks []string `json:"frameworks" mapstructure:"frameworks" yaml:"frameworks"`
}

// RulesConfig holds the rule registry configuration
type RulesConfig struct {
	// Path is an optional YAML rules file extending the built-in registry
	Path string `json:"path" mapstructure:"path" yaml:"path"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether per-issue details are shown
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	// Backend selects the store implementation: memory, file
	Backend string `json:"backend" mapstructure:"backend" yaml:"backend"`

	// DataDir is the root directory for the file backend
	DataDir string `json:"data_dir" mapstructure:"data_dir" yaml:"data_dir"`
}

// ServerConfig holds the HTTP API configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host" yaml:"host"`
	Port int    `json:"port" mapstructure:"port" yaml:"port"`
}

// PerformanceConfig holds parallel execution configuration
type PerformanceConfig struct {
	// MaxGoroutines bounds concurrent report processing
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds one batch of report processing
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Mapping: MappingConfig{
			UserID:     DefaultUserID,
			ReportedBy: DefaultReportedBy,
		},
		Rules: RulesConfig{},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
		Storage: StorageConfig{
			Backend: "file",
			DataDir: DefaultDataDir,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  DefaultMaxGoroutines,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// configFileNames are searched in order when no path is given
var configFileNames = []string{
	"vcaudit.config.json",
	".vcauditrc.json",
	"vcaudit.yaml",
	"vcaudit.yml",
	".vcaudit.toml",
	".vcaudit.yml",
}

// LoadConfig loads configuration from file or returns the default config.
// An empty path triggers discovery in the working directory and its parents.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig()
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// New viper instance per load to avoid shared state
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findDefaultConfig searches the working directory and its parents for a
// config file
func findDefaultConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json", "yaml", "csv":
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml, csv)", c.Output.Format)
	}

	switch c.Storage.Backend {
	case "memory", "file":
	default:
		return fmt.Errorf("invalid storage backend: %s (must be one of: memory, file)", c.Storage.Backend)
	}

	if c.Storage.Backend == "file" && c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the file backend")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines cannot be negative")
	}

	if c.Rules.Path != "" {
		if _, err := os.Stat(c.Rules.Path); err != nil {
			return fmt.Errorf("rules file not found: %s", c.Rules.Path)
		}
	}

	return nil
}
