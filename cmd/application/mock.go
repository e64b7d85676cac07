package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/pkg/store"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	PopulatorFunc    func(ctx context.Context) (populate.Populator, error)
	StoreFunc        func(ctx context.Context) (store.Store, error)
	FinishFunc       func(ctx context.Context) error
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Populator returns a populator using the mock function or nil.
func (m *Mock) Populator(ctx context.Context) (populate.Populator, error) {
	if m.PopulatorFunc != nil {
		return m.PopulatorFunc(ctx)
	}
	return nil, nil
}

// Store returns a store using the mock function or nil.
func (m *Mock) Store(ctx context.Context) (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx)
	}
	return nil, nil
}

// Finish calls the mock function if set.
func (m *Mock) Finish(ctx context.Context) error {
	if m.FinishFunc != nil {
		return m.FinishFunc(ctx)
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
