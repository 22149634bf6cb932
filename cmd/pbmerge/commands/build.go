package commands

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/internal/report"
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
)

// BuildCommand holds the flags of the build command.
type BuildCommand struct {
	globals *Globals
	project string
	format  string
	dryRun  bool
	noColor bool
	silent  bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand(globals *Globals) *cobra.Command {
	bc := &BuildCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   "build [solution|project|dir]",
		Short: "Merge every project of a solution into script.cs files",
		Long: `Build discovers the projects of a solution (or a single project) and merges
each project with valid mdk.options into one script.cs. Projects build
concurrently; a failing project does not stop the others.

Examples:
  pbmerge build
  pbmerge build Scripts.sln --project Miner
  pbmerge build Miner/Miner.csproj --dry-run --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return bc.run(cmd, inputPath(args))
		},
	}

	cmd.Flags().StringVarP(&bc.project, "project", "p", "", "build only the project with this name or path")
	cmd.Flags().StringVarP(&bc.format, "format", "f", report.FormatText, "report format: text, json or yaml")
	cmd.Flags().BoolVar(&bc.dryRun, "dry-run", false, "assemble scripts without writing them")
	cmd.Flags().BoolVar(&bc.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&bc.silent, "silent", false, "disable progress output")

	return cmd
}

func (bc *BuildCommand) run(cmd *cobra.Command, input string) error {
	printer, err := report.NewPrinter(bc.format, !bc.noColor && !color.NoColor)
	if err != nil {
		return err
	}

	sess, err := openSession(bc.globals, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	builder, err := sess.newBuilder(modules.DefaultRegistry())
	if err != nil {
		return err
	}

	progressWriter := cmd.ErrOrStderr()
	progressf(bc.silent, progressWriter, "starting build input=%s", input)

	result, buildErr := builder.Build(cmd.Context(), input, build.Options{
		Project:  bc.project,
		DryRun:   bc.dryRun,
		Progress: percentReporter(bc.silent, progressWriter),
	})

	progressf(bc.silent, progressWriter, "build %s", builder.State())

	err = printer.Print(cmd.OutOrStdout(), report.FromResult(input, result, buildErr, bc.dryRun))
	if err != nil {
		return err
	}

	return buildErr
}

// percentReporter prints whole-percent progress steps, skipping repeats.
func percentReporter(silent bool, w io.Writer) func(float64) {
	if silent {
		return nil
	}

	var (
		mu   sync.Mutex
		last = -1
	)

	return func(fraction float64) {
		mu.Lock()
		defer mu.Unlock()

		pct := int(math.Round(fraction * 100))
		if pct == last {
			return
		}

		last = pct
		progressf(false, w, "%d%%", pct)
	}
}

func progressf(silent bool, writer io.Writer, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(writer, "progress: "+format+"\n", args...)
}
