package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// Sentinel errors for the init command.
var (
	ErrOptionsExist = errors.New("options file already exists (use --force to overwrite)")
	ErrNotAProject  = errors.New("init expects a .csproj file")
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var (
		installPath string
		outputPath  string
		minify      bool
		force       bool
		ignore      []string
	)

	cmd := &cobra.Command{
		Use:   "init <project.csproj>",
		Short: "Write default build options for a project",
		Long: `Init writes mdk/mdk.options next to a project file so that pbmerge build
picks the project up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}

			if !strings.EqualFold(filepath.Ext(path), project.ExtProject) {
				return fmt.Errorf("%w: %s", ErrNotAProject, path)
			}

			cfg := options.Default(path, installPath)
			cfg.Minify = minify

			if outputPath != "" {
				cfg.OutputPath = outputPath
			}

			for _, folder := range ignore {
				cfg.IgnoredFolders = append(cfg.IgnoredFolders, filepath.Join(cfg.ProjectDir(), folder))
			}

			_, statErr := os.Stat(cfg.OptionsPath)
			if statErr == nil && !force {
				return fmt.Errorf("%w: %s", ErrOptionsExist, cfg.OptionsPath)
			}

			if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
				return fmt.Errorf("stat options: %w", statErr)
			}

			err = options.Save(cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfg.OptionsPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&installPath, "install-path", defaultInstallPath(), "pbmerge installation path recorded in the options")
	cmd.Flags().StringVar(&outputPath, "output", "", "output path (default: auto)")
	cmd.Flags().BoolVar(&minify, "minify", false, "enable minification")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing options")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "additional folders to ignore, relative to the project")

	return cmd
}

func defaultInstallPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}

	return filepath.Dir(exe)
}
