package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
)

// WithLogger attaches logger to ctx. A nil logger attaches the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger on ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// WithRunID tags every line of one batch run with the same run_id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return tag(context.WithValue(ctx, runIDKey, runID), "run_id", runID)
}

// RunID returns the run id on ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithEntity tags lines with the entity being enriched.
func WithEntity(ctx context.Context, name string) context.Context {
	return tag(ctx, "entity", name)
}

// WithOperation tags lines with the batch operation: summaries, timelines,
// entity.
func WithOperation(ctx context.Context, operation string) context.Context {
	return tag(ctx, "operation", operation)
}

// WithSource tags lines with the knowledge source being queried.
func WithSource(ctx context.Context, source string) context.Context {
	return tag(ctx, "source", source)
}

func tag(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}
