package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Entity("summaries", "updated")
	m.Entity("summaries", "updated")
	m.Entity("summaries", "parse_failure")
	m.SourceFailure("duckduckgo")
	m.ModelCall("ok", 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.entities.WithLabelValues("summaries", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entities.WithLabelValues("summaries", "parse_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceFailure.WithLabelValues("duckduckgo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.modelDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Entity("timelines", "no_content")
	m.RunFinished(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "populate.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `populate_entities_total{operation="timelines",outcome="no_content"} 1`)
	assert.Contains(t, string(data), "populate_last_run_timestamp_seconds 1.7e+09")
}

func TestWriteTextfileBadPath(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
