package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/logging"
	"github.com/emetrics/populate/pkg/sources"
)

type fakeSource struct {
	name    string
	text    string
	err     error
	queries []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(_ context.Context, query string) (string, error) {
	f.queries = append(f.queries, query)
	return f.text, f.err
}

type countingRecorder map[string]int

func (c countingRecorder) SourceFailure(source string) { c[source]++ }

func TestIntentQuery(t *testing.T) {
	assert.Equal(t, "about Foo corp", sources.IntentSummary.Query("Foo"))
	assert.Equal(t, "timeline about Foo corp", sources.IntentTimeline.Query("Foo"))
}

func TestAggregatorLookup(t *testing.T) {
	wiki := &fakeSource{name: "wikipedia", text: "Page: Foo"}
	search := &fakeSource{name: "duckduckgo", text: "Foo is a company"}

	got := sources.NewAggregator(wiki, search).Lookup(context.Background(), "Foo", sources.IntentTimeline)

	assert.Equal(t, sources.Context{Encyclopedia: "Page: Foo", Search: "Foo is a company"}, got)
	assert.Equal(t, []string{"timeline about Foo corp"}, wiki.queries)
	assert.Equal(t, []string{"timeline about Foo corp"}, search.queries)
}

func TestAggregatorIsolatesFailures(t *testing.T) {
	logs := logging.CaptureLoggingForTest(t)
	recorder := countingRecorder{}

	wiki := &fakeSource{name: "wikipedia", err: errors.NewAPIError("wikipedia", 503, "down")}
	search := &fakeSource{name: "duckduckgo", err: errors.NewAPIError("duckduckgo", 202, "ratelimit")}
	agg := sources.NewAggregator(wiki, search, sources.WithFailureRecorder(recorder))

	got := agg.Lookup(context.Background(), "Foo", sources.IntentSummary)

	assert.Empty(t, got.Encyclopedia)
	assert.Empty(t, got.Search)
	assert.Equal(t, 1, recorder["wikipedia"])
	assert.Equal(t, 1, recorder["duckduckgo"])
	logs.AssertContains(t, "Source lookup failed")
	logs.AssertContains(t, `"source":"wikipedia"`)
}

func TestAggregatorOneSourceFails(t *testing.T) {
	wiki := &fakeSource{name: "wikipedia", text: "Page: Foo"}
	search := &fakeSource{name: "duckduckgo", err: errors.New("connection reset")}

	got := sources.NewAggregator(wiki, search).Lookup(context.Background(), "Foo", sources.IntentSummary)

	assert.Equal(t, "Page: Foo", got.Encyclopedia)
	assert.Empty(t, got.Search)
}

func TestAggregatorNilSources(t *testing.T) {
	got := sources.NewAggregator(nil, nil).Lookup(context.Background(), "Foo", sources.IntentSummary)
	assert.Equal(t, sources.Context{}, got)
}
