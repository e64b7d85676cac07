package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/sources"
)

func TestSummaryPrompt(t *testing.T) {
	b := MustBuilder()

	prompt, err := b.Summary(SummaryInput{
		Entity:  "Foo Corp",
		Context: sources.Context{Encyclopedia: "WIKI-TEXT", Search: "DDG-TEXT"},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, `Entity is: "Foo Corp"`)
	assert.Contains(t, prompt, "WIKI-TEXT")
	assert.Contains(t, prompt, "DDG-TEXT")
	assert.Contains(t, prompt, "1024 characters")
	assert.Contains(t, prompt, "160 characters")
	assert.Contains(t, prompt, `"date_started": "2024 JUL 04"`)
}

func TestTimelinePrompt(t *testing.T) {
	b := MustBuilder()
	e := &entities.Entity{
		Name:         "Foo Corp",
		Summary:      "Foo sells clouds.",
		DateStarted:  "2004",
		DateEnded:    "None",
		CorpFam:      "Acme Holdings",
		Category:     "cloud",
		StageCurrent: 3,
	}

	prompt, err := b.Timeline(TimelineInput{
		Entity:  e,
		History: "date: 2020; stage value: 1; no news id; ",
		Context: sources.Context{Encyclopedia: "WIKI-TEXT", Search: "DDG-TEXT"},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, `"Foo Corp" started "2004", ended "None"; is in corporate family "Acme Holdings", and category "cloud".`)
	assert.Contains(t, prompt, "stage 3")
	assert.Contains(t, prompt, `"Foo Corp" summary: Foo sells clouds.`)
	assert.Contains(t, prompt, "date: 2020; stage value: 1; no news id; ")
	assert.Contains(t, prompt, "4096 characters")
}

func TestTimelinePromptRequiresEntity(t *testing.T) {
	_, err := MustBuilder().Timeline(TimelineInput{})
	assert.Error(t, err)
}

func TestSubstitutionIsVerbatim(t *testing.T) {
	prompt, err := MustBuilder().Summary(SummaryInput{Entity: `A & B "Co" <x>`})
	require.NoError(t, err)
	assert.Contains(t, prompt, `A & B "Co" <x>`)
}
