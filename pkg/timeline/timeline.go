// Package timeline synthesizes an entity's narrative timeline from its
// reconciled fields, its stage history and fresh source lookups.
package timeline

import (
	"context"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/extract"
	"github.com/emetrics/populate/pkg/llm"
	"github.com/emetrics/populate/pkg/logging"
	"github.com/emetrics/populate/pkg/outcome"
	"github.com/emetrics/populate/pkg/prompts"
	"github.com/emetrics/populate/pkg/sources"
)

// Synthesizer drives the timeline chain.
type Synthesizer struct {
	sources    *sources.Aggregator
	prompts    *prompts.Builder
	invoker    *llm.Invoker
	news       NewsReader
	sortByDate bool
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSortByDate orders stage history by date before rendering. History is
// rendered in stored order otherwise.
func WithSortByDate(enabled bool) Option {
	return func(s *Synthesizer) {
		s.sortByDate = enabled
	}
}

// NewSynthesizer wires the chain.
func NewSynthesizer(agg *sources.Aggregator, builder *prompts.Builder, invoker *llm.Invoker, news NewsReader, opts ...Option) *Synthesizer {
	s := &Synthesizer{sources: agg, prompts: builder, invoker: invoker, news: news}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns the extracted timeline fields and the outcome. A
// credentials or transport failure substitutes llm.NoContent so extraction
// runs the same way; the outcome still names the failure. The error is
// non-nil only when stage history could not be read from the store.
func (s *Synthesizer) Synthesize(ctx context.Context, entity *entities.Entity) (extract.Fields, outcome.Outcome, error) {
	logger := logging.FromContext(ctx)

	history := entity.StageHistory
	if s.sortByDate {
		history = SortByDate(history)
	}
	rendered, err := RenderHistory(ctx, s.news, history)
	if err != nil {
		return nil, "", err
	}
	logger.Info().Str("history", rendered).Msg("Rendered stage history")

	lookup := s.sources.Lookup(ctx, entity.Name, sources.IntentTimeline)

	prompt, err := s.prompts.Timeline(prompts.TimelineInput{Entity: entity, History: rendered, Context: lookup})
	if err != nil {
		logger.Error().Err(err).Msg("Unable to render timeline prompt")
		return nil, outcome.PromptFailure, nil
	}

	result := outcome.Generated
	text, failure, _ := s.invoker.Invoke(ctx, prompt)
	switch failure {
	case llm.FailureNone:
	case llm.FailureAuth, llm.FailureTransport:
		text = llm.NoContent
		result = outcome.FromFailure(failure)
	default:
		return nil, outcome.FromFailure(failure), nil
	}

	fields, ok := extract.Extract(ctx, text, extract.TimelineKeys)
	if !ok {
		logger.Info().Msg("Unable to process model response into a timeline")
		return nil, outcome.ParseFailure, nil
	}
	if _, found := fields.Get(entities.FieldTimeline); !found && result == outcome.Generated {
		result = outcome.NoContent
	}
	return fields, result, nil
}
