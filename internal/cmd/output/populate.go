package output

import (
	"io"
	"sort"
	"strconv"

	"github.com/emetrics/populate"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/outcome"
)

// tableWidth is the cell width long text is cut to in table output.
const tableWidth = 60

// FormatReport writes a batch report. Table output lists one row per entity
// followed by the outcome counts.
func FormatReport(w io.Writer, format Format, report *populate.Report) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, report)
	}
	if err := NewFormatter(FormatTable).Format(w, ReportToTableData(report)); err != nil {
		return err
	}
	return NewFormatter(FormatTable).Format(w, CountsToTableData(report))
}

// ReportToTableData lists each entry with the fields it wrote.
func ReportToTableData(report *populate.Report) Data {
	data := Data{Headers: []string{"Entity", "Operation", "Outcome", "Fields"}}
	for _, e := range report.Entries {
		fields := ""
		for i, c := range e.Changes {
			if i > 0 {
				fields += ", "
			}
			fields += c.Field
		}
		data.Rows = append(data.Rows, []string{e.Entity, e.Operation, e.Outcome.String(), fields})
	}
	return data
}

// CountsToTableData renders the outcome counts sorted by outcome.
func CountsToTableData(report *populate.Report) Data {
	counts := report.Counts()
	keys := make([]string, 0, len(counts))
	for o := range counts {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)

	data := Data{
		Headers:         []string{"Outcome", "Entities"},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, k := range keys {
		data.Rows = append(data.Rows, []string{k, strconv.Itoa(counts[outcome.Outcome(k)])})
	}
	return data
}

// FormatEntities writes a list of entities.
func FormatEntities(w io.Writer, format Format, list []*entities.Entity) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, list)
	}
	return NewFormatter(FormatTable).Format(w, EntitiesToTableData(list))
}

// EntitiesToTableData lists entities with their enrichment state.
func EntitiesToTableData(list []*entities.Entity) Data {
	data := Data{
		Headers:         []string{"Name", "Status", "Stage", "Started", "Category", "Summary", "Timeline"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight},
	}
	for _, e := range list {
		data.Rows = append(data.Rows, []string{
			e.Name,
			string(e.Status),
			strconv.Itoa(e.StageCurrent),
			e.DateStarted,
			e.Category,
			yesNo(e.HasSummary()),
			yesNo(e.HasTimeline()),
		})
	}
	return data
}

// FormatEntity writes one entity. Table output is a property/value listing.
func FormatEntity(w io.Writer, format Format, e *entities.Entity) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, e)
	}
	return NewFormatter(FormatTable).Format(w, EntityToTableData(e))
}

// EntityToTableData renders one entity as property/value rows.
func EntityToTableData(e *entities.Entity) Data {
	summary, _ := entities.Truncate(e.Summary, tableWidth)
	timeline, _ := entities.Truncate(e.Timeline, tableWidth)
	return Data{
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Name", e.Name},
			{"Status", string(e.Status)},
			{"Stage", strconv.Itoa(e.StageCurrent)},
			{"Stage History", strconv.Itoa(len(e.StageHistory)) + " entries"},
			{"Date Started", e.DateStarted},
			{"Date Ended", e.DateEnded},
			{"Corporate Family", e.CorpFam},
			{"Category", e.Category},
			{"Summary", summary},
			{"Timeline", timeline},
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
