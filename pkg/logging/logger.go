// Package logging is the process log of the populate pipeline, built on
// zerolog. The log is the operator's audit trail: each source lookup, model
// call, extraction outcome and committed field is one structured line tagged
// with the run, the operation and the entity it concerns.
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithEntity(ctx, "Foo Corp")
//	logging.FromContext(ctx).Warn().Err(err).Msg("Search lookup failed")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = fromEnvironment()

// fromEnvironment builds the logger used before configuration is loaded:
// LOG_LEVEL (or DEBUG) picks the level, LOG_FORMAT=json forces JSON on a
// terminal.
func fromEnvironment() zerolog.Logger {
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && l != zerolog.NoLevel {
		level = l
	} else if os.Getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}

	console := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("LOG_FORMAT") != "json"
	return build(os.Stderr, console, os.Getenv("NO_COLOR") != "", level, level <= zerolog.DebugLevel)
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global
// log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}
