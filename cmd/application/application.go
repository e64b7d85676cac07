// Package application provides the application interface for populate commands.
//
// Commands accept this interface instead of the concrete App so they can be
// tested against a Mock:
//
//	mock := &application.Mock{
//	    StoreFunc: func(context.Context) (store.Store, error) {
//	        return memory.New(), nil
//	    },
//	}
//	cmd := entities.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/pkg/store"
)

// Application provides the dependencies commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Populator returns the batch orchestrator, opening the store and the
	// model on first use.
	Populator(ctx context.Context) (populate.Populator, error)

	// Store returns the configured entity store.
	Store(ctx context.Context) (store.Store, error)

	// Finish flushes run metrics after a batch command.
	Finish(ctx context.Context) error

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
