// Package sources gathers best-effort context about an entity from external
// reference sources.
//
// Two sources contribute to every prompt: an encyclopedia and a general web
// search. Each lookup is independent, and a failing source contributes an
// empty string instead of an error so one outage never stops a batch.
//
// Example usage:
//
//	agg := sources.NewAggregator(wiki, ddg)
//	ctx := agg.Lookup(ctx, "Foo Corp", sources.IntentSummary)
//	fmt.Println(ctx.Encyclopedia, ctx.Search)
package sources

import (
	"context"
	"fmt"

	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/logging"
)

// Intent selects the lookup query variant.
type Intent string

const (
	// IntentSummary is the plain lookup used for summary generation.
	IntentSummary Intent = "summary"
	// IntentTimeline is the lookup used for timeline synthesis.
	IntentTimeline Intent = "timeline"
)

// String returns the string representation of an intent.
func (i Intent) String() string {
	return string(i)
}

// Query renders the lookup query for an entity name.
func (i Intent) Query(name string) string {
	if i == IntentTimeline {
		return fmt.Sprintf("timeline about %s corp", name)
	}
	return fmt.Sprintf("about %s corp", name)
}

// Source is an external text source queried with free text.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Lookup returns best-effort text for the query.
	Lookup(ctx context.Context, query string) (string, error)
}

// Context is the pair of text blobs fed to a prompt.
type Context struct {
	Encyclopedia string
	Search       string
}

// FailureRecorder counts failed lookups per source.
type FailureRecorder interface {
	SourceFailure(source string)
}

// Aggregator queries the encyclopedia and search sources for an entity.
type Aggregator struct {
	encyclopedia Source
	search       Source
	recorder     FailureRecorder
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFailureRecorder records each failed lookup.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(a *Aggregator) {
		a.recorder = r
	}
}

// NewAggregator creates an aggregator. Either source may be nil, in which
// case it always contributes an empty string.
func NewAggregator(encyclopedia, search Source, opts ...Option) *Aggregator {
	a := &Aggregator{encyclopedia: encyclopedia, search: search}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lookup queries both sources for the entity. It never fails: a source
// error is logged and replaced by an empty string.
func (a *Aggregator) Lookup(ctx context.Context, name string, intent Intent) Context {
	query := intent.Query(name)
	return Context{
		Encyclopedia: a.lookup(ctx, a.encyclopedia, query),
		Search:       a.lookup(ctx, a.search, query),
	}
}

func (a *Aggregator) lookup(ctx context.Context, src Source, query string) string {
	if src == nil {
		return ""
	}

	logger := logging.FromContext(logging.WithSource(ctx, src.Name()))
	text, err := src.Lookup(ctx, query)
	if err != nil {
		err = errors.NewSourceError(src.Name(), query, err)
		event := logger.Warn().Err(err).Str("query", query)
		if errors.IsRateLimited(err) {
			event = event.Bool("rate_limited", true)
		}
		event.Msg("Source lookup failed, continuing without it")
		if a.recorder != nil {
			a.recorder.SourceFailure(src.Name())
		}
		return ""
	}

	logger.Info().Str("query", query).Int("chars", len(text)).Msg("Source lookup complete")
	return text
}
