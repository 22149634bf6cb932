package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
)

// FileName is the config file name searched in the working and home directories.
const FileName = ".pbmerge.yaml"

// configName is the config file name without extension.
const configName = ".pbmerge"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for pbmerge settings.
const envPrefix = "PBMERGE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values.
const (
	DefaultLineEnding  = build.LineEndingLF
	DefaultLogLevel    = "info"
	DefaultSampleRatio = 1.0
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("output.root", "")
	viperCfg.SetDefault("output.directory_template", build.DefaultDirectoryTemplate)
	viperCfg.SetDefault("output.line_ending", DefaultLineEnding)

	viperCfg.SetDefault("analysis.container_name", csharp.DefaultContainerName)
	viperCfg.SetDefault("analysis.directive_prefix", parts.DefaultDirectivePrefix)
	viperCfg.SetDefault("analysis.cache_entries", csharp.DefaultCacheEntries)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.metrics_file", "")
	viperCfg.SetDefault("telemetry.shutdown_timeout_sec", 0)
}
