package populate

import (
	"github.com/rs/zerolog"

	"github.com/emetrics/populate/internal/lock"
	"github.com/emetrics/populate/internal/metrics"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/sources"
)

// Option is a function that configures a Populator.
type Option func(*config) error

// config holds the Populator settings.
type config struct {
	encyclopedia sources.Source
	search       sources.Source

	logger      *zerolog.Logger
	locker      lock.Locker
	metrics     *metrics.Metrics
	sortHistory bool
	timelines   bool
}

// WithSources sets the encyclopedia and web-search sources. Either may be
// nil to run without it. Wikipedia and DuckDuckGo are used otherwise.
func WithSources(encyclopedia, search sources.Source) Option {
	return func(c *config) error {
		c.encyclopedia = encyclopedia
		c.search = search
		return nil
	}
}

// WithLogger sets the logger every operation writes to.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = &logger
		return nil
	}
}

// WithLocker sets the per-entity locker. An in-process locker is used
// otherwise.
func WithLocker(l lock.Locker) Option {
	return func(c *config) error {
		if l == nil {
			return errors.NewConfigError("populate", "locker must not be nil", nil)
		}
		c.locker = l
		return nil
	}
}

// WithMetrics records outcomes, source failures and model calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithSortHistory renders stage history sorted by date instead of in
// stored order.
func WithSortHistory(enabled bool) Option {
	return func(c *config) error {
		c.sortHistory = enabled
		return nil
	}
}

// WithTimelines makes Run fill blank timelines after summaries.
func WithTimelines(enabled bool) Option {
	return func(c *config) error {
		c.timelines = enabled
		return nil
	}
}

// RunOption adjusts a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	timelines bool
}

// RunTimelines overrides WithTimelines for one Run call.
func RunTimelines(enabled bool) RunOption {
	return func(c *runConfig) {
		c.timelines = enabled
	}
}
