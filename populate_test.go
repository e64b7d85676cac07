package populate_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/internal/lock"
	"github.com/emetrics/populate/internal/metrics"
	"github.com/emetrics/populate/internal/store/memory"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/logging"
	"github.com/emetrics/populate/pkg/outcome"
	"github.com/emetrics/populate/pkg/reconcile"
	"github.com/emetrics/populate/pkg/store"
)

const fooSummary = `{"summary": "Foo is a social platform.", "date_started": "2004 FEB 04", "date_ended": "None", "corp_fam": "Foo Holdings", "category": "social"}`

// scriptedModel answers summary and timeline prompts with fixed text.
type scriptedModel struct {
	mu        sync.Mutex
	summary   string
	timeline  string
	err       error
	summaries int
	timelines int
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.Contains(prompt, "we need to write up its timeline") {
		m.timelines++
		return m.timeline, m.err
	}
	m.summaries++
	return m.summary, m.err
}

// staticSource returns the same text for every query.
type staticSource struct{ text string }

func (s staticSource) Name() string { return "static" }

func (s staticSource) Lookup(context.Context, string) (string, error) { return s.text, nil }

// failingSaves wraps a store and fails every commit.
type failingSaves struct {
	*memory.Store
}

func (f failingSaves) SaveEntity(context.Context, *entities.Entity) error {
	return errors.NewIOError("update", "entities", errors.New("disk full"))
}

// defectiveRows marks one entity as undecodable, like a store that could
// not parse its stage history.
type defectiveRows struct {
	*memory.Store
	name string
}

func (d defectiveRows) mark(e *entities.Entity) *entities.Entity {
	if e.Name == d.name {
		e.StageHistory = nil
		e.Defect = errors.NewParseError("json", "stage_history", "stage entry must have 2 or 3 fields, got 4", nil)
	}
	return e
}

func (d defectiveRows) Entities(ctx context.Context) ([]*entities.Entity, error) {
	all, err := d.Store.Entities(ctx)
	for _, e := range all {
		d.mark(e)
	}
	return all, err
}

func (d defectiveRows) Entity(ctx context.Context, name string) (*entities.Entity, error) {
	e, err := d.Store.Entity(ctx, name)
	if err != nil {
		return nil, err
	}
	return d.mark(e), nil
}

func gaugeValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.NotEmpty(t, mf.GetMetric())
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func seed(t *testing.T, list ...*entities.Entity) *memory.Store {
	t.Helper()
	st := memory.New()
	for _, e := range list {
		require.NoError(t, st.PutEntity(context.Background(), e))
	}
	return st
}

func newPopulator(t *testing.T, st store.Store, model *scriptedModel, opts ...populate.Option) populate.Populator {
	t.Helper()
	opts = append([]populate.Option{
		populate.WithSources(staticSource{"encyclopedia text"}, staticSource{"search text"}),
		populate.WithLogger(*logging.NewNopLogger()),
	}, opts...)
	p, err := populate.New(st, model, opts...)
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	_, err := populate.New(nil, &scriptedModel{})
	assert.Error(t, err)

	_, err = populate.New(memory.New(), nil)
	assert.Error(t, err)
}

func TestFillSummaries(t *testing.T) {
	t.Run("populates all five fields and logs them", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		st := seed(t, &entities.Entity{Name: "Foo", Status: entities.StatusEnabled})
		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, st, model, populate.WithLogger(*tl.Logger))

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Foo"}, report.Updated())
		assert.NotEmpty(t, report.RunID)

		e, err := st.Entity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, "Foo is a social platform.", e.Summary)
		assert.Equal(t, "2004 FEB 04", e.DateStarted)
		assert.Equal(t, "None", e.DateEnded)
		assert.Equal(t, "Foo Holdings", e.CorpFam)
		assert.Equal(t, "social", e.Category)

		tl.AssertContains(t, "Populated blanks")
		tl.AssertContains(t, `"entity":"Foo"`)
		tl.AssertContains(t, `"run_id":"`+report.RunID+`"`)
	})

	t.Run("second run makes no model call", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, st, model)

		_, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, model.summaries)
		assert.Equal(t, 1, report.Count(outcome.SkippedPopulated))
		assert.Equal(t, 1, st.Saves())
	})

	t.Run("disabled entities are skipped", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo", Status: entities.StatusDisabled})
		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, st, model)

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, model.summaries)
		assert.Equal(t, 1, report.Count(outcome.SkippedDisabled))
	})

	t.Run("prose wrapped response is recovered", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: "Sure! Here it is:\n" + fooSummary + "\nLet me know."}
		p := newPopulator(t, st, model)

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.Updated))
	})

	t.Run("unparseable response leaves entity untouched", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: "I could not find anything."}
		p := newPopulator(t, st, model, populate.WithLogger(*tl.Logger))

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.ParseFailure))

		e, err := st.Entity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Empty(t, e.Summary)
		assert.Equal(t, 0, st.Saves())
		tl.AssertContains(t, "Unable to parse model response as JSON")
	})

	t.Run("existing corporate family is preserved", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Acme", CorpFam: "Acme Holdings"})
		model := &scriptedModel{summary: `{"summary": "Acme makes anvils.", "corp_fam": "UNK", "category": "None"}`}
		p := newPopulator(t, st, model)

		_, err := p.FillSummaries(context.Background())
		require.NoError(t, err)

		e, err := st.Entity(context.Background(), "Acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme makes anvils.", e.Summary)
		assert.Equal(t, "Acme Holdings", e.CorpFam)
		assert.Equal(t, "None", e.Category)
	})

	t.Run("missing summary is no content", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: `{"summary": "", "category": "cloud"}`}
		p := newPopulator(t, st, model)

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.NoContent))
		assert.Equal(t, 0, st.Saves())
	})

	t.Run("model failure does not abort the batch", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"}, &entities.Entity{Name: "Bar"})
		model := &scriptedModel{err: errors.NewAPIError("scripted", 500, "boom")}
		p := newPopulator(t, st, model)

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Count(outcome.ModelTransportFailure))
	})

	t.Run("store failure aborts the batch", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"}, &entities.Entity{Name: "Bar"})
		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, failingSaves{st}, model)

		report, err := p.FillSummaries(context.Background())
		require.Error(t, err)
		assert.Len(t, report.Entries, 1)
		assert.Equal(t, 1, model.summaries)
	})

	t.Run("entity without status is enabled", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, st, model)

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Foo"}, report.Updated())
	})

	t.Run("malformed history does not stop summaries", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Bad"}, &entities.Entity{Name: "Good"})
		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, defectiveRows{st, "Bad"}, model)

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Bad", "Good"}, report.Updated())
	})

	t.Run("locked entity is skipped", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		locker := lock.NewLocal()
		release, ok, err := locker.Acquire(context.Background(), "Foo")
		require.NoError(t, err)
		require.True(t, ok)
		defer release()

		model := &scriptedModel{summary: fooSummary}
		p := newPopulator(t, st, model, populate.WithLocker(locker))

		report, err := p.FillSummaries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.SkippedLocked))
		assert.Equal(t, 0, model.summaries)
	})

	t.Run("cancelled context stops the batch", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := newPopulator(t, st, &scriptedModel{summary: fooSummary})
		_, err := p.FillSummaries(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFillTimelines(t *testing.T) {
	t.Run("requires a summary", func(t *testing.T) {
		st := seed(t,
			&entities.Entity{Name: "Foo"},
			&entities.Entity{Name: "Bar", Summary: "Bar sells bars."},
			&entities.Entity{Name: "Baz", Summary: "Baz.", Timeline: "Already told."},
		)
		model := &scriptedModel{timeline: `{"timeline": "Bar opened in 1999 and grew."}`}
		p := newPopulator(t, st, model)

		report, err := p.FillTimelines(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.SkippedNoSummary))
		assert.Equal(t, 1, report.Count(outcome.SkippedPopulated))
		assert.Equal(t, []string{"Bar"}, report.Updated())
		assert.Equal(t, 1, model.timelines)

		e, err := st.Entity(context.Background(), "Bar")
		require.NoError(t, err)
		assert.Equal(t, "Bar opened in 1999 and grew.", e.Timeline)
	})

	t.Run("malformed history is reported and the batch continues", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		st := seed(t,
			&entities.Entity{Name: "Bad", Summary: "Bad."},
			&entities.Entity{Name: "Good", Summary: "Good."},
		)
		model := &scriptedModel{timeline: `{"timeline": "Good grew."}`}
		p := newPopulator(t, defectiveRows{st, "Bad"}, model, populate.WithLogger(*tl.Logger))

		report, err := p.FillTimelines(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.InvalidRecord))
		assert.Equal(t, []string{"Good"}, report.Updated())
		assert.Equal(t, 1, model.timelines)
		tl.AssertContains(t, "Stored record is malformed, skipping")
		tl.AssertContains(t, `"entity":"Bad"`)
	})

	t.Run("auth failure leaves timeline blank", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Bar", Summary: "Bar sells bars."})
		model := &scriptedModel{err: errors.NewAuthenticationError("scripted", "api_key", "bad key", nil)}
		p := newPopulator(t, st, model)

		report, err := p.FillTimelines(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count(outcome.ModelAuthFailure))

		e, err := st.Entity(context.Background(), "Bar")
		require.NoError(t, err)
		assert.Empty(t, e.Timeline)
	})
}

func TestEnrichEntity(t *testing.T) {
	t.Run("fills summary then timeline", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary, timeline: `{"timeline": "Foo rose and fell."}`}
		p := newPopulator(t, st, model)

		var updates []string
		p.OnEntityUpdated(func(e entities.Entity, changes []reconcile.Change) {
			updates = append(updates, e.Name)
			assert.NotEmpty(t, changes)
		})

		report, err := p.EnrichEntity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, 2, report.Count(outcome.Updated))
		assert.Equal(t, []string{"Foo", "Foo"}, updates)

		e, err := st.Entity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, "Foo rose and fell.", e.Timeline)
	})

	t.Run("regenerates an existing timeline", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo", Summary: "Foo.", Timeline: "Old story."})
		model := &scriptedModel{timeline: `{"timeline": "New story."}`}
		p := newPopulator(t, st, model)

		_, err := p.EnrichEntity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, 0, model.summaries)

		e, err := st.Entity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, "New story.", e.Timeline)
	})

	t.Run("stops when no summary is produced", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: "nothing useful"}
		p := newPopulator(t, st, model, populate.WithLogger(*tl.Logger))

		report, err := p.EnrichEntity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Len(t, report.Entries, 1)
		assert.Equal(t, 0, model.timelines)
		tl.AssertContains(t, "timeline not attempted")
	})

	t.Run("unknown entity", func(t *testing.T) {
		p := newPopulator(t, memory.New(), &scriptedModel{})
		_, err := p.EnrichEntity(context.Background(), "Nope")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestRun(t *testing.T) {
	t.Run("timelines disabled by default", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary, timeline: `{"timeline": "Foo story."}`}
		m := metrics.New()
		p := newPopulator(t, st, model, populate.WithMetrics(m))

		report, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, populate.OperationRun, report.Operation)
		assert.Equal(t, 1, report.Count(outcome.Updated))
		assert.Equal(t, 0, model.timelines)
	})

	t.Run("timelines follow summaries when enabled", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary, timeline: `{"timeline": "Foo story."}`}
		p := newPopulator(t, st, model, populate.WithTimelines(true))

		report, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Count(outcome.Updated))

		e, err := st.Entity(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, "Foo story.", e.Timeline)
	})

	t.Run("per-call override runs timelines and stamps the run", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary, timeline: `{"timeline": "Foo story."}`}
		m := metrics.New()
		p := newPopulator(t, st, model, populate.WithMetrics(m), populate.WithLogger(*tl.Logger))

		report, err := p.Run(context.Background(), populate.RunTimelines(true))
		require.NoError(t, err)
		assert.Equal(t, 2, report.Count(outcome.Updated))
		assert.Equal(t, 1, model.timelines)
		assert.False(t, report.Finished.IsZero())
		assert.InDelta(t, float64(report.Finished.Unix()), gaugeValue(t, m, "populate_last_run_timestamp_seconds"), 1)
		tl.AssertContains(t, "Run finished")
	})

	t.Run("per-call override disables timelines", func(t *testing.T) {
		st := seed(t, &entities.Entity{Name: "Foo"})
		model := &scriptedModel{summary: fooSummary, timeline: `{"timeline": "Foo story."}`}
		p := newPopulator(t, st, model, populate.WithTimelines(true))

		_, err := p.Run(context.Background(), populate.RunTimelines(false))
		require.NoError(t, err)
		assert.Equal(t, 0, model.timelines)
	})
}
