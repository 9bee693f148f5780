package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Normalizer  NormalizerConfig `toml:"normalizer"`
	Wizard      WizardConfig     `toml:"wizard"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// NormalizerConfig controls how backend job rows are reconciled
type NormalizerConfig struct {
	DefaultJobName string `toml:"default_job_name"` // Name used when a row carries none
	LogDegraded    bool   `toml:"log_degraded"`     // Log missing fields at debug level (malformed fields always warn)
}

// WizardConfig holds the limits enforced by the wizard step predicates
type WizardConfig struct {
	MaxNameLength              int  `toml:"max_name_length"`               // default: 128
	MaxDescriptionLength       int  `toml:"max_description_length"`        // default: 1024
	RequireCredentialsForAgent bool `toml:"require_credentials_for_agent"` // Agent jobs normally deploy without credentials
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "warn",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Normalizer: NormalizerConfig{
			DefaultJobName: "Untitled Deployment",
			LogDegraded:    false,
		},
		Wizard: WizardConfig{
			MaxNameLength:              128,
			MaxDescriptionLength:       1024,
			RequireCredentialsForAgent: false,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> files (in order) -> env.
// Later files override earlier ones. Empty paths are skipped.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: FLEETJOBS_ENV, fallback: GO_ENV)
	if env := os.Getenv("FLEETJOBS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("FLEETJOBS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FLEETJOBS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if timeFormat := os.Getenv("FLEETJOBS_LOG_TIME_FORMAT"); timeFormat != "" {
		config.Logging.TimeFormat = timeFormat
	}

	// Normalizer configuration
	if name := os.Getenv("FLEETJOBS_NORMALIZER_DEFAULT_JOB_NAME"); name != "" {
		config.Normalizer.DefaultJobName = name
	}
	if logDegraded := os.Getenv("FLEETJOBS_NORMALIZER_LOG_DEGRADED"); logDegraded != "" {
		if b, err := strconv.ParseBool(logDegraded); err == nil {
			config.Normalizer.LogDegraded = b
		}
	}

	// Wizard configuration
	if maxName := os.Getenv("FLEETJOBS_WIZARD_MAX_NAME_LENGTH"); maxName != "" {
		if n, err := strconv.Atoi(maxName); err == nil {
			config.Wizard.MaxNameLength = n
		}
	}
	if maxDesc := os.Getenv("FLEETJOBS_WIZARD_MAX_DESCRIPTION_LENGTH"); maxDesc != "" {
		if n, err := strconv.Atoi(maxDesc); err == nil {
			config.Wizard.MaxDescriptionLength = n
		}
	}
	if requireCreds := os.Getenv("FLEETJOBS_WIZARD_REQUIRE_CREDENTIALS_FOR_AGENT"); requireCreds != "" {
		if b, err := strconv.ParseBool(requireCreds); err == nil {
			config.Wizard.RequireCredentialsForAgent = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string, logDegraded bool) {
	// Command-line flags have highest priority
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if logDegraded {
		config.Normalizer.LogDegraded = true
	}
}

// Validate checks the limits that would make every draft invalid
func (c *Config) Validate() error {
	if c.Wizard.MaxNameLength <= 0 {
		return fmt.Errorf("wizard.max_name_length must be positive, got %d", c.Wizard.MaxNameLength)
	}
	if c.Wizard.MaxDescriptionLength < 0 {
		return fmt.Errorf("wizard.max_description_length must not be negative, got %d", c.Wizard.MaxDescriptionLength)
	}
	return nil
}
