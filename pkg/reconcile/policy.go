package reconcile

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/emetrics/populate/pkg/entities"
)

// Mode decides whether a field may replace an existing value.
type Mode int

const (
	// Overwrite always writes the extracted value.
	Overwrite Mode = iota
	// FillIfEmpty writes only when the entity's current value is empty, so
	// operator-curated values survive automated enrichment.
	FillIfEmpty
)

// String returns the string representation of a mode.
func (m Mode) String() string {
	if m == FillIfEmpty {
		return "fill_if_empty"
	}
	return "overwrite"
}

// FieldPolicy is one row of the reconciliation table.
type FieldPolicy struct {
	Field string
	Mode  Mode

	// Required fields must be present and non-empty or the whole attempt is
	// a no-op.
	Required bool

	// MaxLength is the character ceiling; zero means unbounded.
	MaxLength int

	// Normalize maps a value onto its canonical form. It returns false for
	// values that must not be stored.
	Normalize func(string) (string, bool)

	// Validate flags values that are stored anyway but logged as warnings.
	Validate func(string) error
}

// SummaryPolicies governs the fields produced by the summary prompt.
var SummaryPolicies = []FieldPolicy{
	{Field: entities.FieldSummary, Mode: Overwrite, Required: true, MaxLength: entities.MaxSummaryLength},
	{Field: entities.FieldDateStarted, Mode: Overwrite, Validate: validateDate},
	{Field: entities.FieldDateEnded, Mode: Overwrite, Validate: validateDate},
	{Field: entities.FieldCorpFam, Mode: FillIfEmpty},
	{Field: entities.FieldCategory, Mode: FillIfEmpty, Normalize: NormalizeCategory},
}

// TimelinePolicies governs the field produced by the timeline prompt.
var TimelinePolicies = []FieldPolicy{
	{Field: entities.FieldTimeline, Mode: Overwrite, Required: true, MaxLength: entities.MaxTimelineLength},
}

var fold = cases.Fold()

// NormalizeCategory maps a category onto the closed set, ignoring case.
// "none", "n/a" and the empty string all mean no category.
func NormalizeCategory(value string) (string, bool) {
	v := fold.String(strings.TrimSpace(value))
	switch v {
	case "", "n/a", "na":
		return string(entities.CategoryNone), true
	}
	for _, c := range entities.Categories {
		if fold.String(string(c)) == v {
			return string(c), true
		}
	}
	return "", false
}

func validateDate(value string) error {
	if _, err := entities.ParseDate(value); err != nil {
		return fmt.Errorf("date does not follow the precision rule: %w", err)
	}
	return nil
}
