// Package llm sends rendered prompts to a generative model and classifies
// the ways a call can fail.
package llm

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/logging"
)

// NoContent is the placeholder response substituted when the timeline model
// call fails on credentials or transport. Extraction yields a null timeline
// from it, so the entity is left untouched.
const NoContent = `No GenAI content available. {"timeline": null}`

// Model is a generative model reachable with a single synchronous call.
type Model interface {
	// Name identifies the provider and model in logs.
	Name() string

	// Generate returns the raw text response for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Failure classifies a failed model call.
type Failure int

const (
	FailureNone Failure = iota
	// FailureAuth means the credentials were rejected.
	FailureAuth
	// FailureTransport covers rate limiting, upstream errors, timeouts and
	// network failures.
	FailureTransport
	// FailureGeneric is anything else.
	FailureGeneric
)

// String returns the outcome label used in logs and metrics.
func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureAuth:
		return "auth_failure"
	case FailureTransport:
		return "transport_failure"
	default:
		return "failure"
	}
}

// Classify maps a model call error to its failure class.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if errors.IsAPIKeyError(err) {
		return FailureAuth
	}
	if errors.IsRateLimited(err) || errors.IsProviderUnavailable(err) || errors.IsTimeout(err) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return FailureTransport
	}
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return FailureTransport
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return FailureTransport
	}
	return FailureGeneric
}

// Recorder observes every model call.
type Recorder interface {
	ModelCall(outcome string, elapsed time.Duration)
}

// Invoker wraps a Model with outcome logging and call metrics.
type Invoker struct {
	model    Model
	recorder Recorder
	now      func() time.Time
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithRecorder records the outcome and latency of every call.
func WithRecorder(r Recorder) Option {
	return func(i *Invoker) {
		i.recorder = r
	}
}

// NewInvoker creates an invoker for the model.
func NewInvoker(model Model, opts ...Option) *Invoker {
	i := &Invoker{model: model, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke sends the prompt and returns the raw response, or the failure class
// and cause. Each failure class is logged distinctly.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, Failure, error) {
	logger := logging.FromContext(ctx).With().Str("model", i.model.Name()).Logger()

	start := i.now()
	text, err := i.model.Generate(ctx, prompt)
	elapsed := i.now().Sub(start)

	failure := Classify(err)
	if i.recorder != nil {
		i.recorder.ModelCall(failure.String(), elapsed)
	}

	switch failure {
	case FailureNone:
		logger.Info().Dur("elapsed", elapsed).Str("response", text).Msg("Model response received")
	case FailureAuth:
		logger.Error().Err(err).Msg("Model rejected credentials, check the API key")
	case FailureTransport:
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("Model call failed in transport")
	default:
		logger.Error().Err(err).Msg("Model call failed")
	}
	return text, failure, err
}
