package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/outcome"
	"github.com/emetrics/populate/pkg/reconcile"
)

func sampleReport() *populate.Report {
	return &populate.Report{
		RunID:     "run-1",
		Operation: populate.OperationSummaries,
		Entries: []populate.Entry{
			{Entity: "Foo", Operation: "summaries", Outcome: outcome.Updated, Changes: []reconcile.Change{
				{Field: "summary", New: "Foo.", Reason: reconcile.ReasonFilled},
				{Field: "category", New: "social", Reason: reconcile.ReasonFilled},
			}},
			{Entity: "Bar", Operation: "summaries", Outcome: outcome.SkippedDisabled},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestReportToTableData(t *testing.T) {
	data := ReportToTableData(sampleReport())
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"Foo", "summaries", "updated", "summary, category"}, data.Rows[0])
	assert.Equal(t, "", data.Rows[1][3])
}

func TestCountsToTableData(t *testing.T) {
	data := CountsToTableData(sampleReport())
	assert.Equal(t, [][]string{{"skipped_disabled", "1"}, {"updated", "1"}}, data.Rows)
}

func TestFormatReport(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatReport(&buf, FormatJSON, sampleReport()))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "run-1", decoded["run_id"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatReport(&buf, FormatYAML, sampleReport()))
		assert.Contains(t, buf.String(), "run_id: run-1")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatReport(&buf, FormatTable, sampleReport()))
		assert.Contains(t, buf.String(), "Foo")
		assert.Contains(t, buf.String(), "skipped_disabled")
	})
}

func TestEntityToTableData(t *testing.T) {
	e := &entities.Entity{Name: "Foo", Status: entities.StatusEnabled, Category: "social"}
	data := EntityToTableData(e)
	assert.Equal(t, []string{"Name", "Foo"}, data.Rows[0])

	var buf bytes.Buffer
	require.NoError(t, FormatEntities(&buf, FormatTable, []*entities.Entity{e}))
	assert.Contains(t, buf.String(), "social")
}
