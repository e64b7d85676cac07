package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/emetrics/populate/pkg/constants"
)

// Config selects where the process log goes and how it is rendered.
type Config struct {
	// Level is the minimum level written: trace, debug, info, warn, error.
	Level string

	// Format is json, console or auto. Auto renders console output only
	// on a terminal; files always get JSON.
	Format string

	// Output is stderr, stdout, discard or a file path. Files are opened
	// for append so successive runs share one audit log.
	Output string

	NoColor   bool
	AddCaller bool

	// Fields are attached to every line.
	Fields map[string]any
}

// DefaultConfig appends JSON lines at info level to the process log file.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "auto",
		Output: constants.DefaultLogFile,
	}
}

// NewLoggerFromConfig builds a logger from cfg. An unopenable log file
// falls back to stderr.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	out, terminal := cfg.open()
	console := cfg.Format == "console" || (cfg.Format == "auto" && terminal)
	logger := build(out, console, cfg.NoColor, level, cfg.AddCaller)

	if len(cfg.Fields) > 0 {
		logger = logger.With().Fields(cfg.Fields).Logger()
	}
	return logger
}

// open resolves Output and reports whether it is an interactive terminal.
func (c *Config) open() (io.Writer, bool) {
	switch strings.ToLower(c.Output) {
	case "", "stderr":
		return os.Stderr, isatty.IsTerminal(os.Stderr.Fd())
	case "stdout":
		return os.Stdout, isatty.IsTerminal(os.Stdout.Fd())
	case "discard", "none":
		return io.Discard, false
	}
	f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr, false
	}
	return f, false
}

func build(out io.Writer, console, noColor bool, level zerolog.Level, caller bool) zerolog.Logger {
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: noColor}
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}
