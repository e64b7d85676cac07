package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/emetrics/populate/pkg/logging"
)

// NewLogger builds the process log from the resolved configuration. Every
// line carries app=populate so a shared log file can be filtered.
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == "debug" || level == "trace",
		Fields:    map[string]any{"app": "populate"},
	})
}

// determineLogLevel resolves --log-level, then --quiet, then --verbose.
// LOG_LEVEL reaches here through LoadConfig as LogLevel.
func determineLogLevel(config *Config) string {
	switch {
	case config.LogLevel != "":
		switch config.LogLevel {
		case "trace", "debug", "info", "warn", "error":
			return config.LogLevel
		}
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using \"info\"\n", config.LogLevel)
		return "info"
	case config.Quiet:
		if config.Verbose {
			fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		}
		return "warn"
	case config.Verbose:
		return "debug"
	}
	return "info"
}
