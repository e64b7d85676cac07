// Package entities defines the records the enrichment pipeline reads and
// writes: tracked organizations, their stage history, and the news items that
// history links to.
package entities

import (
	"fmt"

	"github.com/agentstation/utc"

	"github.com/emetrics/populate/pkg/errors"
)

// Status is the enablement state of an entity.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Category is the closed set of entity categories.
type Category string

const (
	CategorySocial Category = "social"
	CategoryCloud  Category = "cloud"
	CategoryNone   Category = "None"
)

// Categories lists every accepted category value.
var Categories = []Category{CategorySocial, CategoryCloud, CategoryNone}

// Field names shared by the model contract, the reconciliation policy table
// and the store columns.
const (
	FieldSummary     = "summary"
	FieldDateStarted = "date_started"
	FieldDateEnded   = "date_ended"
	FieldCorpFam     = "corp_fam"
	FieldCategory    = "category"
	FieldTimeline    = "timeline"
)

// Sentinel values the model contract uses inside date and family fields.
const (
	Unknown       = "UNK"
	NotApplicable = "None"
)

// Ceilings enforced before persistence, counted in characters.
const (
	MaxSummaryLength     = 1024
	DisplaySummaryLength = 160
	MaxTimelineLength    = 4096
)

// Entity is an organization tracked for the behavior metric. Empty strings
// mean the field has never been populated.
type Entity struct {
	Name         string       `json:"name" yaml:"name"`
	Status       Status       `json:"status" yaml:"status"`
	Summary      string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	DateStarted  string       `json:"date_started,omitempty" yaml:"date_started,omitempty"`
	DateEnded    string       `json:"date_ended,omitempty" yaml:"date_ended,omitempty"`
	CorpFam      string       `json:"corp_fam,omitempty" yaml:"corp_fam,omitempty"`
	Category     string       `json:"category,omitempty" yaml:"category,omitempty"`
	StageCurrent int          `json:"stage_current" yaml:"stage_current"`
	StageHistory []StageEntry `json:"stage_history,omitempty" yaml:"stage_history,omitempty"`
	Timeline     string       `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	UpdatedAt    utc.Time     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	// Defect is set by a store when part of the row could not be decoded.
	// The entity is still listed so one bad row cannot hide the others.
	Defect error `json:"-" yaml:"-"`
}

// IsEnabled reports whether batch operations may touch the entity. Any status
// other than disabled counts as enabled.
func (e *Entity) IsEnabled() bool {
	return e.Status != StatusDisabled
}

// HasSummary reports whether the summary has been populated.
func (e *Entity) HasSummary() bool {
	return e.Summary != ""
}

// HasTimeline reports whether the timeline has been populated.
func (e *Entity) HasTimeline() bool {
	return e.Timeline != ""
}

// Get returns the value of an enrichment field by its contract name.
func (e *Entity) Get(field string) (string, error) {
	switch field {
	case FieldSummary:
		return e.Summary, nil
	case FieldDateStarted:
		return e.DateStarted, nil
	case FieldDateEnded:
		return e.DateEnded, nil
	case FieldCorpFam:
		return e.CorpFam, nil
	case FieldCategory:
		return e.Category, nil
	case FieldTimeline:
		return e.Timeline, nil
	}
	return "", errors.NewValidationError(field, nil, "unknown entity field")
}

// Set assigns an enrichment field by its contract name.
func (e *Entity) Set(field, value string) error {
	switch field {
	case FieldSummary:
		e.Summary = value
	case FieldDateStarted:
		e.DateStarted = value
	case FieldDateEnded:
		e.DateEnded = value
	case FieldCorpFam:
		e.CorpFam = value
	case FieldCategory:
		e.Category = value
	case FieldTimeline:
		e.Timeline = value
	default:
		return errors.NewValidationError(field, value, "unknown entity field")
	}
	return nil
}

// Validate checks the fields every stored entity must carry. A blank status
// is set to enabled.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return errors.NewValidationError("name", e.Name, "cannot be empty")
	}
	switch e.Status {
	case "":
		e.Status = StatusEnabled
	case StatusEnabled, StatusDisabled:
	default:
		return errors.NewValidationError("status", e.Status, fmt.Sprintf("must be %q or %q", StatusEnabled, StatusDisabled))
	}
	return nil
}

// NewsItem is an external news/event record referenced from stage history.
type NewsItem struct {
	ID      int64  `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Summary string `json:"summary" yaml:"summary"`
	Date    string `json:"date" yaml:"date"`
}
