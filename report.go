package populate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/agentstation/utc"

	"github.com/emetrics/populate/pkg/outcome"
	"github.com/emetrics/populate/pkg/reconcile"
)

// Operation names used in reports, logs and metrics.
const (
	OperationSummaries = "summaries"
	OperationTimelines = "timelines"
	OperationEntity    = "entity"
	OperationRun       = "run"
)

// Entry is what happened to one entity in one operation.
type Entry struct {
	Entity    string             `json:"entity" yaml:"entity"`
	Operation string             `json:"operation" yaml:"operation"`
	Outcome   outcome.Outcome    `json:"outcome" yaml:"outcome"`
	Changes   []reconcile.Change `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Report summarizes a batch.
type Report struct {
	RunID     string   `json:"run_id" yaml:"run_id"`
	Operation string   `json:"operation" yaml:"operation"`
	Started   utc.Time `json:"started" yaml:"started"`
	Finished  utc.Time `json:"finished" yaml:"finished"`
	Entries   []Entry  `json:"entries" yaml:"entries"`
}

func newReport(runID, operation string) *Report {
	return &Report{RunID: runID, Operation: operation, Started: utc.Now()}
}

func (r *Report) add(e Entry) {
	r.Entries = append(r.Entries, e)
}

func (r *Report) finish() *Report {
	r.Finished = utc.Now()
	return r
}

// merge appends the entries of another report.
func (r *Report) merge(other *Report) {
	if other != nil {
		r.Entries = append(r.Entries, other.Entries...)
	}
}

// Count returns how many entries ended with o.
func (r *Report) Count(o outcome.Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Counts returns the number of entries per outcome.
func (r *Report) Counts() map[outcome.Outcome]int {
	counts := make(map[outcome.Outcome]int)
	for _, e := range r.Entries {
		counts[e.Outcome]++
	}
	return counts
}

// Updated returns the names of entities that were committed, in order.
func (r *Report) Updated() []string {
	var names []string
	for _, e := range r.Entries {
		if e.Outcome == outcome.Updated {
			names = append(names, e.Entity)
		}
	}
	return names
}

// Summary renders the counts as "outcome=n" pairs sorted by outcome.
func (r *Report) Summary() string {
	counts := r.Counts()
	keys := make([]string, 0, len(counts))
	for o := range counts {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.Itoa(counts[outcome.Outcome(k)]))
	}
	if len(parts) == 0 {
		return "no entities"
	}
	return strings.Join(parts, " ")
}
