// Package reconcile merges extracted model fields into an entity under an
// explicit per-field policy table.
//
// Fields either always overwrite or only fill an empty value. A required
// field that is missing turns the whole attempt into a no-op. Ceilings are
// enforced here, before anything reaches the store. The package performs no
// I/O; the caller persists the entity.
package reconcile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/logging"
)

// Values is a set of extracted fields.
type Values interface {
	Get(key string) (string, bool)
}

// Reasons recorded on a Change.
const (
	ReasonOverwritten = "overwritten"
	ReasonFilled      = "filled"
	ReasonTruncated   = "truncated"
	ReasonPreserved   = "preserved"
	ReasonAbsent      = "absent"
	ReasonInvalid     = "invalid"
)

// Change records the decision taken for one field.
type Change struct {
	Field  string `json:"field" yaml:"field"`
	Old    string `json:"old,omitempty" yaml:"old,omitempty"`
	New    string `json:"new,omitempty" yaml:"new,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// Written reports whether the change modified the entity.
func (c Change) Written() bool {
	switch c.Reason {
	case ReasonOverwritten, ReasonFilled, ReasonTruncated:
		return true
	}
	return false
}

// Result is the outcome of one Apply call.
type Result struct {
	// Applied is false when a required field was missing; the entity is
	// then untouched.
	Applied bool

	// Missing names the required field that blocked the attempt.
	Missing string

	// Changes lists one decision per policy, in table order.
	Changes []Change
}

// Written returns the changes that modified the entity.
func (r Result) Written() []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Written() {
			out = append(out, c)
		}
	}
	return out
}

// Reconciler applies policy tables to entities.
type Reconciler struct{}

// New creates a Reconciler.
func New() *Reconciler {
	return &Reconciler{}
}

// Apply merges values into entity under the policy table.
func (r *Reconciler) Apply(ctx context.Context, entity *entities.Entity, values Values, policies []FieldPolicy) Result {
	logger := logging.FromContext(ctx)

	for _, p := range policies {
		if !p.Required {
			continue
		}
		if v, ok := values.Get(p.Field); !ok || strings.TrimSpace(v) == "" {
			logger.Info().Str("field", p.Field).Msg("Required field absent, leaving entity untouched")
			return Result{Missing: p.Field}
		}
	}

	result := Result{Applied: true, Changes: make([]Change, 0, len(policies))}
	for _, p := range policies {
		change := r.applyField(logger, entity, values, p)
		result.Changes = append(result.Changes, change)
	}
	return result
}

func (r *Reconciler) applyField(logger *zerolog.Logger, entity *entities.Entity, values Values, p FieldPolicy) Change {
	old, _ := entity.Get(p.Field)
	change := Change{Field: p.Field, Old: old, New: old}

	value, ok := values.Get(p.Field)
	if !ok {
		change.Reason = ReasonAbsent
		return change
	}
	value = strings.TrimSpace(value)

	if p.Normalize != nil {
		normalized, valid := p.Normalize(value)
		if !valid {
			logger.Warn().Str("field", p.Field).Str("value", value).Msg("Dropping value outside the accepted set")
			change.Reason = ReasonInvalid
			return change
		}
		value = normalized
	}

	if p.Mode == FillIfEmpty && old != "" {
		change.Reason = ReasonPreserved
		return change
	}

	if p.Validate != nil {
		if err := p.Validate(value); err != nil {
			logger.Warn().Err(err).Str("field", p.Field).Str("value", value).Msg("Storing value that fails validation")
		}
	}

	change.Reason = ReasonOverwritten
	if p.Mode == FillIfEmpty {
		change.Reason = ReasonFilled
	}
	if p.MaxLength > 0 {
		truncated, cut := entities.Truncate(value, p.MaxLength)
		if cut {
			logger.Warn().Str("field", p.Field).Int("length", entities.Length(value)).Int("max", p.MaxLength).
				Msg("Truncating value to its ceiling")
			change.Reason = ReasonTruncated
		}
		value = truncated
	}

	// Set only fails for unknown fields, which the policy tables never name.
	_ = entity.Set(p.Field, value)
	change.New = value
	return change
}
