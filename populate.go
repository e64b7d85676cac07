// Package populate fills the blank enrichment fields of tracked
// organizations. A batch walks the entity table, asks a language model for
// summary fields or a narrative timeline, reconciles the answer against the
// stored record and commits the result one entity at a time.
package populate

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emetrics/populate/internal/lock"
	"github.com/emetrics/populate/internal/metrics"
	"github.com/emetrics/populate/internal/sources/duckduckgo"
	"github.com/emetrics/populate/internal/sources/wikipedia"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/extract"
	"github.com/emetrics/populate/pkg/llm"
	"github.com/emetrics/populate/pkg/logging"
	"github.com/emetrics/populate/pkg/outcome"
	"github.com/emetrics/populate/pkg/prompts"
	"github.com/emetrics/populate/pkg/reconcile"
	"github.com/emetrics/populate/pkg/sources"
	"github.com/emetrics/populate/pkg/store"
	"github.com/emetrics/populate/pkg/summary"
	"github.com/emetrics/populate/pkg/timeline"
)

// Compile-time check that populator implements Populator.
var _ Populator = (*populator)(nil)

// Populator is the batch orchestrator. Only store failures abort a batch;
// every other failure is confined to the entity it happened on and shows up
// in the returned Report.
type Populator interface {
	// FillSummaries generates summary fields for every enabled entity whose
	// summary is blank.
	FillSummaries(ctx context.Context) (*Report, error)

	// FillTimelines synthesizes a timeline for every enabled entity that has
	// a summary but no timeline.
	FillTimelines(ctx context.Context) (*Report, error)

	// EnrichEntity fills the summary of one entity when it is blank, then
	// regenerates its timeline.
	EnrichEntity(ctx context.Context, name string) (*Report, error)

	// Run is the scheduled entry point: summaries, then timelines when
	// enabled.
	Run(ctx context.Context, opts ...RunOption) (*Report, error)

	// OnEntityUpdated registers a callback fired after each commit.
	OnEntityUpdated(fn EntityUpdatedHook)
}

// populator is the concrete implementation of the Populator interface
type populator struct {
	store      store.Store
	locker     lock.Locker
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	summaries  *summary.Generator
	timelines  *timeline.Synthesizer
	reconciler *reconcile.Reconciler
	hooks      *hooks
	runTimes   bool
}

// New creates a Populator over a store and a model.
func New(st store.Store, model llm.Model, opts ...Option) (Populator, error) {
	if st == nil {
		return nil, errors.NewConfigError("populate", "store is required", nil)
	}
	if model == nil {
		return nil, errors.NewConfigError("populate", "model is required", nil)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errors.NewConfigError("populate", "invalid option", err)
		}
	}

	var sourceOpts []sources.Option
	var invokerOpts []llm.Option
	if cfg.metrics != nil {
		sourceOpts = append(sourceOpts, sources.WithFailureRecorder(cfg.metrics))
		invokerOpts = append(invokerOpts, llm.WithRecorder(cfg.metrics))
	}
	agg := sources.NewAggregator(cfg.encyclopedia, cfg.search, sourceOpts...)
	invoker := llm.NewInvoker(model, invokerOpts...)

	builder, err := prompts.NewBuilder()
	if err != nil {
		return nil, err
	}

	logger := *logging.Default()
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	return &populator{
		store:      st,
		locker:     cfg.locker,
		metrics:    cfg.metrics,
		logger:     logger,
		summaries:  summary.NewGenerator(agg, builder, invoker),
		timelines:  timeline.NewSynthesizer(agg, builder, invoker, st, timeline.WithSortByDate(cfg.sortHistory)),
		reconciler: reconcile.New(),
		hooks:      newHooks(),
		runTimes:   cfg.timelines,
	}, nil
}

// defaultConfig returns the settings used when no option overrides them.
func defaultConfig() *config {
	return &config{
		encyclopedia: wikipedia.New(),
		search:       duckduckgo.New(),
		locker:       lock.NewLocal(),
	}
}

// OnEntityUpdated registers a callback fired after each commit.
func (p *populator) OnEntityUpdated(fn EntityUpdatedHook) {
	p.hooks.OnEntityUpdated(fn)
}

// step is one enrichment pass: which entities qualify, how fields are
// produced and which policy table merges them.
type step struct {
	operation string
	policies  []reconcile.FieldPolicy
	skip      func(e *entities.Entity) outcome.Outcome
	generate  func(ctx context.Context, e *entities.Entity) (extract.Fields, outcome.Outcome, error)
}

func (p *populator) summaryStep(operation string) step {
	return step{
		operation: operation,
		policies:  reconcile.SummaryPolicies,
		skip: func(e *entities.Entity) outcome.Outcome {
			switch {
			case !e.IsEnabled():
				return outcome.SkippedDisabled
			case e.HasSummary():
				return outcome.SkippedPopulated
			}
			return ""
		},
		generate: func(ctx context.Context, e *entities.Entity) (extract.Fields, outcome.Outcome, error) {
			fields, out := p.summaries.Generate(ctx, e.Name)
			return fields, out, nil
		},
	}
}

// timelineStep builds the timeline pass. refresh regenerates timelines that
// are already populated.
func (p *populator) timelineStep(operation string, refresh bool) step {
	return step{
		operation: operation,
		policies:  reconcile.TimelinePolicies,
		skip: func(e *entities.Entity) outcome.Outcome {
			switch {
			case !e.IsEnabled():
				return outcome.SkippedDisabled
			case !e.HasSummary():
				return outcome.SkippedNoSummary
			case e.Defect != nil:
				return outcome.InvalidRecord
			case e.HasTimeline() && !refresh:
				return outcome.SkippedPopulated
			}
			return ""
		},
		generate: p.timelines.Synthesize,
	}
}

// FillSummaries implements Populator.
func (p *populator) FillSummaries(ctx context.Context) (*Report, error) {
	return p.batch(p.runContext(ctx), p.summaryStep(OperationSummaries))
}

// FillTimelines implements Populator.
func (p *populator) FillTimelines(ctx context.Context) (*Report, error) {
	return p.batch(p.runContext(ctx), p.timelineStep(OperationTimelines, false))
}

// Run implements Populator.
func (p *populator) Run(ctx context.Context, opts ...RunOption) (*Report, error) {
	rc := &runConfig{timelines: p.runTimes}
	for _, opt := range opts {
		opt(rc)
	}
	ctx = p.runContext(ctx)
	report := newReport(logging.RunID(ctx), OperationRun)

	summaries, err := p.batch(ctx, p.summaryStep(OperationSummaries))
	report.merge(summaries)
	if err != nil {
		return report.finish(), err
	}

	if rc.timelines {
		timelines, err := p.batch(ctx, p.timelineStep(OperationTimelines, false))
		report.merge(timelines)
		if err != nil {
			return report.finish(), err
		}
	} else {
		logging.FromContext(ctx).Debug().Msg("Timeline generation disabled")
	}

	report.finish()
	if p.metrics != nil {
		p.metrics.RunFinished(report.Finished.Time())
	}
	logging.FromContext(ctx).Info().Str("outcomes", report.Summary()).Msg("Run finished")
	return report, nil
}

// EnrichEntity implements Populator.
func (p *populator) EnrichEntity(ctx context.Context, name string) (*Report, error) {
	ctx = logging.WithOperation(p.runContext(ctx), OperationEntity)
	report := newReport(logging.RunID(ctx), OperationEntity)

	e, err := p.store.Entity(ctx, name)
	if err != nil {
		return report.finish(), errors.WrapResource("enrich", "entity", name, err)
	}
	ctx = logging.WithEntity(ctx, e.Name)

	if !e.HasSummary() {
		entry, err := p.process(ctx, e.Name, p.summaryStep(OperationEntity))
		report.add(entry)
		if err != nil {
			return report.finish(), err
		}
		if entry.Outcome != outcome.Updated {
			logging.FromContext(ctx).Info().
				Str("outcome", entry.Outcome.String()).
				Msg("Unable to produce a summary, timeline not attempted")
			return report.finish(), nil
		}
	}

	entry, err := p.process(ctx, e.Name, p.timelineStep(OperationEntity, true))
	report.add(entry)
	return report.finish(), err
}

// runContext tags ctx with the logger and a fresh run id. A run id already
// on ctx is kept.
func (p *populator) runContext(ctx context.Context) context.Context {
	if logging.RunID(ctx) != "" {
		return ctx
	}
	logger := p.logger
	ctx = logging.WithLogger(ctx, &logger)
	return logging.WithRunID(ctx, uuid.NewString())
}

// batch runs one step over every entity in storage order.
func (p *populator) batch(ctx context.Context, s step) (*Report, error) {
	ctx = logging.WithOperation(ctx, s.operation)
	logger := logging.FromContext(ctx)
	report := newReport(logging.RunID(ctx), s.operation)

	all, err := p.store.Entities(ctx)
	if err != nil {
		return report.finish(), errors.WrapResource("list", "entities", "", err)
	}
	logger.Info().Int("entities", len(all)).Msg("Starting batch")

	for _, e := range all {
		if err := ctx.Err(); err != nil {
			return report.finish(), err
		}

		if out := s.skip(e); out != "" {
			if out == outcome.InvalidRecord {
				logger.Warn().Err(e.Defect).Str("entity", e.Name).Msg("Stored record is malformed, skipping")
			}
			p.record(report, Entry{Entity: e.Name, Operation: s.operation, Outcome: out})
			continue
		}

		entry, err := p.process(logging.WithEntity(ctx, e.Name), e.Name, s)
		report.add(entry)
		if err != nil {
			logger.Error().Err(err).Str("entity", e.Name).Msg("Store failure, aborting batch")
			return report.finish(), err
		}
	}

	report.finish()
	logger.Info().Str("outcomes", report.Summary()).Msg("Batch finished")
	return report, nil
}

// record adds a skipped entry to the report and counts it.
func (p *populator) record(report *Report, entry Entry) {
	report.add(entry)
	p.count(entry)
}

func (p *populator) count(entry Entry) {
	if p.metrics != nil {
		p.metrics.Entity(entry.Operation, entry.Outcome.String())
	}
}

// process runs one attempt for one entity under its lock. The entity is
// re-read after the lock is taken so a concurrent commit is observed.
func (p *populator) process(ctx context.Context, name string, s step) (entry Entry, err error) {
	logger := logging.FromContext(ctx)
	entry = Entry{Entity: name, Operation: s.operation}
	defer func() {
		if err == nil {
			p.count(entry)
		}
	}()

	release, ok, err := p.locker.Acquire(ctx, name)
	if err != nil {
		logger.Warn().Err(err).Msg("Unable to acquire entity lock")
		entry.Outcome = outcome.SkippedLocked
		return entry, nil
	}
	if !ok {
		logger.Info().Msg("Entity is being enriched elsewhere, skipping")
		entry.Outcome = outcome.SkippedLocked
		return entry, nil
	}
	defer release()

	e, err := p.store.Entity(ctx, name)
	if err != nil {
		return entry, errors.WrapResource("read", "entity", name, err)
	}
	if out := s.skip(e); out != "" {
		if out == outcome.InvalidRecord {
			logger.Warn().Err(e.Defect).Msg("Stored record is malformed, skipping")
		}
		entry.Outcome = out
		return entry, nil
	}

	fields, out, err := s.generate(ctx, e)
	if err != nil {
		return entry, err
	}
	entry.Outcome = out
	if fields == nil {
		return entry, nil
	}

	result := p.reconciler.Apply(ctx, e, fields, s.policies)
	if !result.Applied {
		if out == outcome.Generated {
			entry.Outcome = outcome.NoContent
		}
		return entry, nil
	}

	written := result.Written()
	if len(written) == 0 {
		entry.Outcome = outcome.NoContent
		return entry, nil
	}

	if err := p.store.SaveEntity(ctx, e); err != nil {
		return entry, errors.WrapResource("save", "entity", name, err)
	}

	event := logger.Info()
	for _, c := range written {
		event = event.Str(c.Field, c.New)
	}
	event.Msg("Populated blanks")

	entry.Outcome = outcome.Updated
	entry.Changes = written
	p.hooks.triggerEntityUpdated(e, written)
	return entry, nil
}
