// Package outcome names what happened to one entity in one pass.
package outcome

import "github.com/emetrics/populate/pkg/llm"

// Outcome is the per-entity result label used in reports, logs and metrics.
type Outcome string

const (
	// Generated means the chain produced fields; the orchestrator has not
	// reconciled them yet.
	Generated Outcome = "generated"

	Updated          Outcome = "updated"
	SkippedDisabled  Outcome = "skipped_disabled"
	SkippedPopulated Outcome = "skipped_populated"
	SkippedNoSummary Outcome = "skipped_no_summary"
	SkippedLocked    Outcome = "skipped_locked"

	// InvalidRecord means the stored row could not be decoded in full.
	InvalidRecord Outcome = "invalid_record"

	// NoContent means the response parsed but lacked a required field.
	NoContent Outcome = "no_content"
	// ParseFailure means no JSON object could be recovered from the response.
	ParseFailure Outcome = "parse_failure"
	// PromptFailure means a prompt template failed to render.
	PromptFailure Outcome = "prompt_failure"

	ModelAuthFailure      Outcome = "model_auth_failure"
	ModelTransportFailure Outcome = "model_transport_failure"
	ModelFailure          Outcome = "model_failure"
)

// String returns the string representation of an outcome.
func (o Outcome) String() string {
	return string(o)
}

// Skipped reports whether the entity was never attempted.
func (o Outcome) Skipped() bool {
	switch o {
	case SkippedDisabled, SkippedPopulated, SkippedNoSummary, SkippedLocked, InvalidRecord:
		return true
	}
	return false
}

// FromFailure maps a model failure class to its outcome.
func FromFailure(f llm.Failure) Outcome {
	switch f {
	case llm.FailureNone:
		return Generated
	case llm.FailureAuth:
		return ModelAuthFailure
	case llm.FailureTransport:
		return ModelTransportFailure
	default:
		return ModelFailure
	}
}
