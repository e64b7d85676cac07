// Package app wires configuration, logging and the pipeline's collaborators
// for the populate CLI. Collaborators are opened lazily so commands that only
// print a version never touch the database or the network.
package app

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/cmd/application"
	"github.com/emetrics/populate/internal/llm/gemini"
	"github.com/emetrics/populate/internal/llm/mistral"
	"github.com/emetrics/populate/internal/lock"
	"github.com/emetrics/populate/internal/metrics"
	"github.com/emetrics/populate/internal/sources/duckduckgo"
	"github.com/emetrics/populate/internal/sources/wikipedia"
	"github.com/emetrics/populate/internal/store/sqlite"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/llm"
	"github.com/emetrics/populate/pkg/reconcile"
	"github.com/emetrics/populate/pkg/store"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App holds the configuration, the logger and the lazily created pipeline.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	// loggerInjected keeps a WithLogger logger across command setup.
	loggerInjected bool

	mu        sync.Mutex
	store     store.Store
	model     llm.Model
	redis     *redis.Client
	metrics   *metrics.Metrics
	populator populate.Populator
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Store opens the sqlite database on first use.
func (a *App) Store(_ context.Context) (store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openStore()
}

func (a *App) openStore() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := sqlite.Open(a.config.DBPath)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Populator builds the orchestrator on first use.
func (a *App) Populator(ctx context.Context) (populate.Populator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.populator != nil {
		return a.populator, nil
	}

	st, err := a.openStore()
	if err != nil {
		return nil, err
	}

	model := a.model
	if model == nil {
		if model, err = newModel(a.config); err != nil {
			return nil, err
		}
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		return nil, err
	}

	if a.metrics == nil {
		a.metrics = metrics.New()
	}

	opts := []populate.Option{
		populate.WithLogger(*a.logger),
		populate.WithLocker(locker),
		populate.WithMetrics(a.metrics),
		populate.WithSources(
			wikipedia.New(wikipedia.WithBaseURL(a.config.WikipediaURL), wikipedia.WithMaxChars(a.config.SourceMaxChars)),
			duckduckgo.New(duckduckgo.WithBaseURL(a.config.DuckDuckGoURL), duckduckgo.WithMaxChars(a.config.SourceMaxChars)),
		),
		populate.WithTimelines(a.config.Timelines),
		populate.WithSortHistory(a.config.SortHistory),
	}

	p, err := populate.New(st, model, opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "populator", "", err)
	}
	p.OnEntityUpdated(a.logChanges)
	a.populator = p
	return p, nil
}

// logChanges writes one debug line per committed field, shown with --verbose.
func (a *App) logChanges(e entities.Entity, changes []reconcile.Change) {
	for _, c := range changes {
		a.logger.Debug().
			Str("entity", e.Name).
			Str("field", c.Field).
			Str("old", c.Old).
			Str("new", c.New).
			Str("reason", c.Reason).
			Msg("Field changed")
	}
}

// newLocker returns a Redis locker when redis.url is configured.
func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.config.RedisURL == "" {
		return lock.NewLocal(), nil
	}
	client, err := lock.Dial(ctx, a.config.RedisURL)
	if err != nil {
		return nil, errors.NewConfigError("redis.url", "unable to connect", err)
	}
	a.redis = client
	return lock.NewRedis(client, a.config.LockTTL), nil
}

// newModel selects the generative model backend from configuration.
func newModel(cfg *Config) (llm.Model, error) {
	name := cfg.ResolvedModelName()
	temperature := float32(cfg.Temperature)

	switch cfg.ModelProvider {
	case "", "gemini":
		return gemini.New(gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       name,
			Temperature: &temperature,
		})
	case "vertex":
		return gemini.New(gemini.Config{
			Model:       name,
			Temperature: &temperature,
			Project:     cfg.VertexProject,
			Location:    cfg.VertexLocation,
		})
	case "mistral":
		return mistral.New(mistral.Config{
			APIKey:      cfg.MistralAPIKey,
			Model:       name,
			Temperature: &temperature,
			BaseURL:     cfg.MistralBaseURL,
		})
	default:
		return nil, errors.NewConfigError("model", "unknown provider \""+cfg.ModelProvider+"\"", nil)
	}
}

// Finish flushes run metrics to the textfile when metrics_file is set.
func (a *App) Finish(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.metrics == nil || a.config.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.config.MetricsFile); err != nil {
		return err
	}
	a.logger.Debug().Str("path", a.config.MetricsFile).Msg("Wrote metrics textfile")
	return nil
}

// Shutdown releases the store and the Redis connection.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
		a.redis = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.store = nil
	}
	a.populator = nil
	return firstErr
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.loggerInjected = true
		return nil
	}
}

// WithStore sets a custom store (useful for testing).
func WithStore(st store.Store) Option {
	return func(a *App) error {
		a.store = st
		return nil
	}
}

// WithModel sets a custom model (useful for testing).
func WithModel(m llm.Model) Option {
	return func(a *App) error {
		a.model = m
		return nil
	}
}

// WithMetrics sets a custom metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) error {
		a.metrics = m
		return nil
	}
}
