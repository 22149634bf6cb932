// Package config loads the tool-level pbmerge configuration from
// .pbmerge.yaml, PBMERGE_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sentinel validation errors.
var (
	ErrInvalidLineEnding   = errors.New("line ending must be lf or crlf")
	ErrEmptyContainerName  = errors.New("container name must not be empty")
	ErrInvalidCacheEntries = errors.New("cache entries must be positive")
	ErrInvalidLogLevel     = errors.New("unknown log level")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0,1]")
	ErrInvalidTimeout      = errors.New("shutdown timeout must not be negative")
)

// Config is the top-level configuration struct for pbmerge.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Output    OutputConfig    `mapstructure:"output"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// OutputConfig controls where and how scripts are written.
type OutputConfig struct {
	// Root replaces "auto" project output paths. Empty selects the game's local scripts folder.
	Root              string `mapstructure:"root"`
	DirectoryTemplate string `mapstructure:"directory_template"`
	LineEnding        string `mapstructure:"line_ending"`
}

// AnalysisConfig holds source analysis settings.
type AnalysisConfig struct {
	ContainerName   string `mapstructure:"container_name"`
	DirectivePrefix string `mapstructure:"directive_prefix"`
	CacheEntries    int    `mapstructure:"cache_entries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	MetricsFile     string  `mapstructure:"metrics_file"`
	ShutdownTimeout int     `mapstructure:"shutdown_timeout_sec"`
}

// Validate checks the config and returns the first error found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.LineEnding) {
	case "", "lf", "crlf":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLineEnding, c.Output.LineEnding)
	}

	if strings.TrimSpace(c.Analysis.ContainerName) == "" {
		return ErrEmptyContainerName
	}

	if c.Analysis.CacheEntries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheEntries, c.Analysis.CacheEntries)
	}

	if c.Logging.Level != "" {
		var level slog.Level

		err := level.UnmarshalText([]byte(c.Logging.Level))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
		}
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.Telemetry.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, c.Telemetry.ShutdownTimeout)
	}

	return nil
}
