// Package summary runs the summary chain for one entity name: source
// lookups, the summary prompt, the model call and extraction.
package summary

import (
	"context"

	"github.com/emetrics/populate/pkg/extract"
	"github.com/emetrics/populate/pkg/llm"
	"github.com/emetrics/populate/pkg/logging"
	"github.com/emetrics/populate/pkg/outcome"
	"github.com/emetrics/populate/pkg/prompts"
	"github.com/emetrics/populate/pkg/sources"
)

// Generator produces summary fields for an entity.
type Generator struct {
	sources *sources.Aggregator
	prompts *prompts.Builder
	invoker *llm.Invoker
}

// NewGenerator wires the chain.
func NewGenerator(agg *sources.Aggregator, builder *prompts.Builder, invoker *llm.Invoker) *Generator {
	return &Generator{sources: agg, prompts: builder, invoker: invoker}
}

// Generate returns the extracted summary fields. The outcome is
// outcome.Generated when a JSON object was recovered; any other outcome
// comes with nil fields.
func (g *Generator) Generate(ctx context.Context, name string) (extract.Fields, outcome.Outcome) {
	logger := logging.FromContext(ctx)

	lookup := g.sources.Lookup(ctx, name, sources.IntentSummary)

	prompt, err := g.prompts.Summary(prompts.SummaryInput{Entity: name, Context: lookup})
	if err != nil {
		logger.Error().Err(err).Msg("Unable to render summary prompt")
		return nil, outcome.PromptFailure
	}

	text, failure, _ := g.invoker.Invoke(ctx, prompt)
	if failure != llm.FailureNone {
		return nil, outcome.FromFailure(failure)
	}

	fields, ok := extract.Extract(ctx, text, extract.SummaryKeys)
	if !ok {
		logger.Info().Msg("Unable to process model response into summary fields")
		return nil, outcome.ParseFailure
	}
	return fields, outcome.Generated
}
