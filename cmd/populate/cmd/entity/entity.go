// Package entity holds the single-entity enrichment command.
package entity

import (
	"github.com/spf13/cobra"

	"github.com/emetrics/populate/cmd/application"
	"github.com/emetrics/populate/internal/cmd/output"
)

// NewCommand creates the entity command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "entity <name>",
		GroupID: "core",
		Short:   "Enrich one entity on demand",
		Long: `Entity fills the summary fields of the named entity when its summary is
blank, then regenerates its timeline. When no summary can be produced the
timeline is not attempted.`,
		Example: `  populate entity "Foo Corp"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := app.Populator(ctx)
			if err != nil {
				return err
			}

			report, runErr := p.EnrichEntity(ctx, args[0])
			if err := app.Finish(ctx); err != nil {
				app.Logger().Warn().Err(err).Msg("Unable to write metrics")
			}
			if runErr != nil {
				return runErr
			}
			return output.FormatReport(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), report)
		},
	}
}
