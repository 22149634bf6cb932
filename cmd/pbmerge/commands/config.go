package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbmerge/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(globals *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the tool configuration",
	}

	cmd.AddCommand(configValidateCmd(globals), configSchemaCmd())

	return cmd
}

func configValidateCmd(globals *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the tool config file against its schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			path := globals.ConfigPath
			if path == "" {
				path = config.FileName
			}

			issues, err := config.CheckFile(path)

			switch {
			case errors.Is(err, fs.ErrNotExist) && globals.ConfigPath == "":
				fmt.Fprintf(out, "no %s found; defaults in effect\n", config.FileName)
			case errors.Is(err, config.ErrSchema):
				color.New(color.FgRed).Fprintf(out, "%s is invalid\n", path)

				for _, issue := range issues {
					color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", issue.Field, issue.Description)
				}

				return err
			case err != nil:
				return err
			}

			_, err = config.LoadConfig(globals.ConfigPath)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(out, "config is valid\n")

			return nil
		},
	}
}

func configSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the tool config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.Schema())

			return err
		},
	}
}
