// Package entities holds the entity management commands.
package entities

import (
	"github.com/spf13/cobra"

	"github.com/emetrics/populate/cmd/application"
	"github.com/emetrics/populate/internal/cmd/output"
)

// NewCommand creates the entities command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entities",
		GroupID: "management",
		Short:   "Import and inspect stored entities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newImportCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newImportCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Insert or replace entities and news items from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := ReadFile(args[0])
			if err != nil {
				return err
			}
			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			if err := f.Load(ctx, st); err != nil {
				return err
			}

			app.Logger().Info().
				Str("file", args[0]).
				Int("entities", len(f.Entities)).
				Int("news", len(f.News)).
				Msg("Imported entities")
			return nil
		},
	}
}

func newShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one stored entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			e, err := st.Entity(ctx, args[0])
			if err != nil {
				return err
			}
			return output.FormatEntity(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), e)
		},
	}
}

func newListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored entities and their enrichment state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := app.Store(ctx)
			if err != nil {
				return err
			}
			list, err := st.Entities(ctx)
			if err != nil {
				return err
			}
			return output.FormatEntities(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), list)
		},
	}
}
