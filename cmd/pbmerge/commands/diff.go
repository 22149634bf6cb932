package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/internal/report"
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
)

// ErrScriptsDiffer is returned by diff --exit-code when a deployed script is stale.
var ErrScriptsDiffer = errors.New("deployed scripts differ from a fresh build")

// NewDiffCommand creates the diff command.
func NewDiffCommand(globals *Globals) *cobra.Command {
	var (
		project  string
		exitCode bool
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:   "diff [solution|project|dir]",
		Short: "Compare fresh builds with the deployed scripts",
		Long: `Diff builds every project without writing and compares each merged script
with the script.cs currently in its output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(globals, observability.ModeCLI, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()

			builder, err := sess.newBuilder(modules.DefaultRegistry())
			if err != nil {
				return err
			}

			result, buildErr := builder.Build(cmd.Context(), inputPath(args), build.Options{Project: project, DryRun: true})
			if result == nil {
				return buildErr
			}

			changed, err := writeDiffs(cmd, result, !noColor && !color.NoColor)
			if err != nil {
				return err
			}

			if buildErr != nil {
				return buildErr
			}

			if exitCode && changed {
				return ErrScriptsDiffer
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "compare only the project with this name or path")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "fail when any script differs")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func writeDiffs(cmd *cobra.Command, result *build.Result, colors bool) (bool, error) {
	out := cmd.OutOrStdout()
	changed := false

	for _, art := range result.Artifacts {
		deployed, err := os.ReadFile(art.ScriptPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("read deployed script: %w", err)
		}

		fmt.Fprintf(out, "=== %s (%s)\n", art.ProjectName, art.ScriptPath)

		d := report.Diff(string(deployed), art.Script)
		if !d.Changed() {
			fmt.Fprintln(out, "up to date")

			continue
		}

		changed = true

		err = d.Write(out, colors)
		if err != nil {
			return false, err
		}
	}

	return changed, nil
}
