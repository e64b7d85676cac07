// Package batch holds the batch commands: run, summaries and timelines.
package batch

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/cmd/application"
	"github.com/emetrics/populate/internal/cmd/output"
)

// operation runs one batch on a populator.
type operation func(p populate.Populator, ctx context.Context) (*populate.Report, error)

// NewRunCommand creates the run command: summaries, then timelines when
// enabled.
func NewRunCommand(app application.Application) *cobra.Command {
	var timelines bool
	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Run the scheduled batch",
		Long: `Run fills blank summaries for every enabled entity. With --timelines (or
timelines: true in the config file) it then fills blank timelines for every
entity that has a summary.`,
		Example: `  populate run
  populate run --timelines -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app, func(p populate.Populator, ctx context.Context) (*populate.Report, error) {
				if cmd.Flags().Changed("timelines") {
					return p.Run(ctx, populate.RunTimelines(timelines))
				}
				return p.Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&timelines, "timelines", false, "also fill blank timelines after summaries")
	return cmd
}

// NewSummariesCommand creates the summaries command.
func NewSummariesCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "summaries",
		GroupID: "core",
		Short:   "Fill blank summaries",
		Long: `Summaries generates the summary, start and end dates, corporate family and
category of every enabled entity whose summary is blank.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app, populate.Populator.FillSummaries)
		},
	}
}

// NewTimelinesCommand creates the timelines command.
func NewTimelinesCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "timelines",
		GroupID: "core",
		Short:   "Fill blank timelines",
		Long: `Timelines synthesizes a narrative timeline for every enabled entity that has a
summary but no timeline, from its stage history and linked news items.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, app, populate.Populator.FillTimelines)
		},
	}
}

// execute runs op, flushes metrics and prints the report. The report is
// printed even when a store failure aborted the batch.
func execute(cmd *cobra.Command, app application.Application, op operation) error {
	ctx := cmd.Context()

	p, err := app.Populator(ctx)
	if err != nil {
		return err
	}

	report, runErr := op(p, ctx)
	if err := app.Finish(ctx); err != nil {
		app.Logger().Warn().Err(err).Msg("Unable to write metrics")
	}
	if report != nil {
		if err := output.FormatReport(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), report); err != nil {
			return err
		}
	}
	return runErr
}
