package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/internal/mcp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
	"github.com/Sumatoshi-tech/pbmerge/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(globals *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes pbmerge as tools that AI agents can discover and invoke:
  - pbmerge_build: build a solution or project and return the build report
  - pbmerge_options: read the mdk.options of a project
  - pbmerge_modules: list the registered minifier and publisher modules`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(globals, observability.ModeMCP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			registry := modules.DefaultRegistry()

			builder, err := sess.newBuilder(registry)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Version:  version.Version,
				Logger:   sess.providers.Logger,
				Metrics:  red,
				Tracer:   sess.providers.Tracer,
				Builder:  builder,
				Registry: registry,
			})
			if err != nil {
				return err
			}

			return srv.Run(cmd.Context())
		},
	}
}
