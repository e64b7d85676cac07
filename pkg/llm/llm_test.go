package llm_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/llm"
	"github.com/emetrics/populate/pkg/logging"
)

type fakeModel struct {
	text string
	err  error
}

func (f *fakeModel) Name() string { return "fake" }

func (f *fakeModel) Generate(context.Context, string) (string, error) {
	return f.text, f.err
}

type recorded struct {
	outcomes []string
}

func (r *recorded) ModelCall(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want llm.Failure
	}{
		{"nil", nil, llm.FailureNone},
		{"auth", errors.NewAuthenticationError("mistral", "bearer", "unauthorized", nil), llm.FailureAuth},
		{"status 401", errors.NewAPIError("gemini", 401, "bad key"), llm.FailureAuth},
		{"rate limited", errors.NewAPIError("mistral", 429, "slow down"), llm.FailureTransport},
		{"upstream 500", fmt.Errorf("generate: %w", errors.NewAPIError("gemini", 500, "boom")), llm.FailureTransport},
		{"bad request", errors.NewAPIError("gemini", 400, "bad"), llm.FailureTransport},
		{"deadline", context.DeadlineExceeded, llm.FailureTransport},
		{"network", &net.OpError{Op: "dial", Err: errors.New("refused")}, llm.FailureTransport},
		{"generic", errors.New("empty candidates"), llm.FailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.Classify(tt.err))
		})
	}
}

func TestInvokeSuccess(t *testing.T) {
	rec := &recorded{}
	text, failure, err := llm.NewInvoker(&fakeModel{text: `{"timeline": "x"}`}, llm.WithRecorder(rec)).
		Invoke(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, llm.FailureNone, failure)
	assert.Equal(t, `{"timeline": "x"}`, text)
	assert.Equal(t, []string{"ok"}, rec.outcomes)
}

func TestInvokeLogsFailureClass(t *testing.T) {
	logs := logging.CaptureLoggingForTest(t)
	rec := &recorded{}

	_, failure, err := llm.NewInvoker(&fakeModel{err: errors.NewAuthenticationError("mistral", "bearer", "unauthorized", nil)}, llm.WithRecorder(rec)).
		Invoke(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, llm.FailureAuth, failure)
	assert.Equal(t, []string{"auth_failure"}, rec.outcomes)
	logs.AssertContains(t, "check the API key")
}

func TestInvokeWithoutRecorder(t *testing.T) {
	_, failure, err := llm.NewInvoker(&fakeModel{err: errors.New("boom")}).Invoke(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Equal(t, llm.FailureGeneric, failure)
}
