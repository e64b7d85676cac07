package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emetrics/populate/pkg/llm"
)

func TestFromFailure(t *testing.T) {
	assert.Equal(t, Generated, FromFailure(llm.FailureNone))
	assert.Equal(t, ModelAuthFailure, FromFailure(llm.FailureAuth))
	assert.Equal(t, ModelTransportFailure, FromFailure(llm.FailureTransport))
	assert.Equal(t, ModelFailure, FromFailure(llm.FailureGeneric))
}

func TestSkipped(t *testing.T) {
	assert.True(t, SkippedLocked.Skipped())
	assert.False(t, ParseFailure.Skipped())
	assert.False(t, Updated.Skipped())
}
