package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/internal/report"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// NewOptionsCommand creates the options command.
func NewOptionsCommand(globals *Globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "options [solution|project|dir]",
		Short: "Show the build options of every project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := report.NewPrinter(format, false)
			if err != nil {
				return err
			}

			sess, err := openSession(globals, observability.ModeCLI, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()

			loader := project.NewLoader(sess.providers.Logger)

			views, err := report.CollectOptions(cmd.Context(), loader, options.Load, inputPath(args))
			if err != nil {
				return err
			}

			return printer.Encode(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatYAML, "output format: json or yaml")

	return cmd
}
