// Package prompts renders the two fixed model prompts: the summary request
// and the timeline request.
package prompts

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/sources"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	summaryTemplate  = "summary.tmpl"
	timelineTemplate = "timeline.tmpl"
)

// SummaryInput is the data substituted into the summary prompt.
type SummaryInput struct {
	Entity  string
	Context sources.Context
}

// TimelineInput is the data substituted into the timeline prompt. History is
// the flattened stage history rendering.
type TimelineInput struct {
	Entity  *entities.Entity
	History string
	Context sources.Context
}

// Builder renders prompts from the embedded templates.
type Builder struct {
	templates *template.Template
}

// NewBuilder parses the embedded templates.
func NewBuilder() (*Builder, error) {
	tmpl, err := template.New("prompts").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.WrapParse("template", "prompts", err)
	}
	return &Builder{templates: tmpl}, nil
}

// MustBuilder is like NewBuilder but panics on error. The templates are
// compiled into the binary, so a failure is a build defect.
func MustBuilder() *Builder {
	b, err := NewBuilder()
	if err != nil {
		panic(err)
	}
	return b
}

// Summary renders the summary request for an entity name.
func (b *Builder) Summary(in SummaryInput) (string, error) {
	return b.render(summaryTemplate, map[string]any{
		"Entity":         in.Entity,
		"MaxSummary":     entities.MaxSummaryLength,
		"DisplaySummary": entities.DisplaySummaryLength,
		"Encyclopedia":   in.Context.Encyclopedia,
		"Search":         in.Context.Search,
	})
}

// Timeline renders the timeline request from the entity's reconciled fields.
func (b *Builder) Timeline(in TimelineInput) (string, error) {
	if in.Entity == nil {
		return "", errors.NewValidationError("entity", nil, "cannot be nil")
	}
	e := in.Entity
	return b.render(timelineTemplate, map[string]any{
		"Entity":       e.Name,
		"MaxTimeline":  entities.MaxTimelineLength,
		"Summary":      e.Summary,
		"DateStarted":  e.DateStarted,
		"DateEnded":    e.DateEnded,
		"CorpFam":      e.CorpFam,
		"Category":     e.Category,
		"StageCurrent": e.StageCurrent,
		"History":      in.History,
		"Encyclopedia": in.Context.Encyclopedia,
		"Search":       in.Context.Search,
	})
}

func (b *Builder) render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := b.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.WrapResource("render", "prompt", name, err)
	}
	return buf.String(), nil
}
