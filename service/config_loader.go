package service

import (
	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.MappingRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}

	return c.convertToMappingRequest(cfg), nil
}

// LoadDefaultConfig loads the default configuration, discovering a config
// file in the working directory and its parents when one exists
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.MappingRequest {
	cfg, err := config.LoadConfig("")
	if err != nil {
		// Fall back to hardcoded default configuration
		cfg = config.DefaultConfig()
	}
	return c.convertToMappingRequest(cfg)
}

// MergeConfig merges CLI flags with configuration file
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.MappingRequest, override *domain.MappingRequest) *domain.MappingRequest {
	merged := *base

	// Scan identity always comes from command arguments
	if override.ScanID != "" {
		merged.ScanID = override.ScanID
	}

	if override.UserID != "" {
		merged.UserID = override.UserID
	}

	if len(override.Issues) > 0 {
		merged.Issues = override.Issues
	}

	// Output configuration
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}

	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}

	if override.ShowDetails {
		merged.ShowDetails = override.ShowDetails
	}

	// Config and rules paths are always from override if provided
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	if override.RulesPath != "" {
		merged.RulesPath = override.RulesPath
	}

	return &merged
}

// convertToMappingRequest converts a Config to MappingRequest
func (c *ConfigurationLoaderImpl) convertToMappingRequest(cfg *config.Config) *domain.MappingRequest {
	return &domain.MappingRequest{
		// Issues are set by the caller, not from config
		Issues: []domain.RawIssue{},

		UserID: cfg.Mapping.UserID,

		// Output settings
		OutputFormat: domain.OutputFormat(cfg.Output.Format),
		ShowDetails:  cfg.Output.ShowDetails,

		// Rule registry settings
		RulesPath: cfg.Rules.Path,
	}
}

// ValidateConfig validates the merged mapping request
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.MappingRequest) error {
	if req.UserID == "" {
		return domain.NewValidationError("user id is required")
	}

	validFormats := map[domain.OutputFormat]bool{
		domain.OutputFormatText: true,
		domain.OutputFormatJSON: true,
		domain.OutputFormatYAML: true,
		domain.OutputFormatCSV:  true,
	}

	if !validFormats[req.OutputFormat] {
		return domain.NewUnsupportedFormatError(string(req.OutputFormat))
	}

	return nil
}
