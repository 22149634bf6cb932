package config

import (
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
)

// BuildSettings maps the config onto builder settings.
func (c *Config) BuildSettings() build.Settings {
	return build.Settings{
		OutputRoot:        c.Output.Root,
		DirectoryTemplate: c.Output.DirectoryTemplate,
		LineEnding:        c.Output.LineEnding,
		ContainerName:     c.Analysis.ContainerName,
		DirectivePrefix:   c.Analysis.DirectivePrefix,
		CacheEntries:      c.Analysis.CacheEntries,
	}
}

// Observability maps the config onto telemetry settings. Zero values keep
// the observability defaults.
func (c *Config) Observability(version string, mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()

	obs.ServiceVersion = version
	obs.Mode = mode
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.MetricsFile = c.Telemetry.MetricsFile
	obs.LogLevel = observability.ParseLevel(c.Logging.Level)
	obs.LogJSON = c.Logging.JSON

	if c.Telemetry.ShutdownTimeout > 0 {
		obs.ShutdownTimeoutSec = c.Telemetry.ShutdownTimeout
	}

	return obs
}
