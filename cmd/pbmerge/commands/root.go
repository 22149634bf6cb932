// Package commands implements the pbmerge CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/internal/config"
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
	"github.com/Sumatoshi-tech/pbmerge/pkg/version"
)

// Globals holds the persistent flags shared by all commands.
type Globals struct {
	ConfigPath string
	LogLevel   string
	Quiet      bool
}

// NewRootCommand creates the pbmerge command tree.
func NewRootCommand() *cobra.Command {
	globals := &Globals{}

	rootCmd := &cobra.Command{
		Use:   "pbmerge",
		Short: "pbmerge - merge programmable block projects into a single script",
		Long: `pbmerge merges the C# files of Space Engineers programmable block projects
into one script.cs per project, ready to be loaded in game.

Commands:
  build     Build every project of a solution
  diff      Compare fresh builds with the deployed scripts
  init      Write default build options for a project
  options   Show the build options of a project
  config    Validate the tool configuration
  mcp       Serve builds to AI agents over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "",
		"tool config file (default: "+config.FileName+" in the working or home directory)")
	rootCmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(
		NewBuildCommand(globals),
		NewDiffCommand(globals),
		NewInitCommand(),
		NewOptionsCommand(globals),
		NewConfigCommand(globals),
		NewMCPCommand(globals),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// session is the configuration and telemetry of one command invocation.
type session struct {
	cfg       *config.Config
	providers observability.Providers
}

func openSession(globals *Globals, mode observability.AppMode, logOut io.Writer) (*session, error) {
	cfg, err := config.LoadConfig(globals.ConfigPath)
	if err != nil {
		return nil, err
	}

	if globals.LogLevel != "" {
		cfg.Logging.Level = globals.LogLevel
	}

	if globals.Quiet {
		cfg.Logging.Level = "error"
	}

	obsCfg := cfg.Observability(version.Version, mode)
	if mode == observability.ModeMCP {
		obsCfg.LogJSON = true
	}

	providers, err := observability.InitWithWriter(obsCfg, logOut)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{cfg: cfg, providers: providers}, nil
}

func (s *session) close() {
	err := s.providers.Shutdown(context.Background())
	if err != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func (s *session) newBuilder(registry *modules.Registry) (*build.Builder, error) {
	metrics, err := observability.NewBuildMetrics(s.providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create build metrics: %w", err)
	}

	return build.New(s.cfg.BuildSettings(),
		build.WithLogger(s.providers.Logger),
		build.WithTracer(s.providers.Tracer),
		build.WithMetrics(metrics),
		build.WithRegistry(registry),
	)
}

// inputPath returns the build input argument, defaulting to the working directory.
func inputPath(args []string) string {
	if len(args) == 0 {
		return "."
	}

	return args[0]
}
