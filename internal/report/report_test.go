package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetpham/calhacks25/internal/check"
	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/report"
	"github.com/jetpham/calhacks25/internal/run"
)

func TestWriteResultCSVs(t *testing.T) {
	dir := t.TempDir()
	outcomes := []*run.Outcome{
		{
			QueryID: 1,
			Rows: &domain.RowSet{
				Columns: []string{"type", "sum(bid_price)"},
				Rows:    [][]string{{"click", "10.5"}, {"view", "3"}},
			},
		},
		{QueryID: 2, Err: assert.AnError},
	}

	require.NoError(t, report.WriteResultCSVs(dir, outcomes))

	data, err := os.ReadFile(filepath.Join(dir, "q1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "type,sum(bid_price)\nclick,10.5\nview,3\n", string(data))

	_, err = os.Stat(filepath.Join(dir, "q2.csv"))
	assert.True(t, os.IsNotExist(err), "failed outcomes write no file")
}

func TestRenderSummary(t *testing.T) {
	summary := &run.Summary{
		SessionID: "abc",
		Stats: []*run.RunStat{
			{QueryID: 1, Source: "type_rollups", Durations: []time.Duration{time.Millisecond, 3 * time.Millisecond}},
			{QueryID: 2, Source: "base", Durations: []time.Duration{2 * time.Millisecond}},
		},
		Total: 6 * time.Millisecond,
	}

	var buf bytes.Buffer
	report.RenderSummary(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "q1")
	assert.Contains(t, out, "type_rollups")
	assert.Contains(t, out, "q2")
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "0.006000 across 2 queries")
}

func TestWriteSummaryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	summary := &run.Summary{
		SessionID: "abc",
		Stats: []*run.RunStat{
			{QueryID: 1, Source: "base", Durations: []time.Duration{time.Second, 3 * time.Second}},
		},
		Total: 4 * time.Second,
	}

	require.NoError(t, report.WriteSummaryJSON(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "abc", decoded["session_id"])
	assert.Equal(t, 4.0, decoded["total_seconds"])
	queries := decoded["queries"].([]any)
	require.Len(t, queries, 1)
	q := queries[0].(map[string]any)
	assert.Equal(t, 2.0, q["avg_seconds"])
	assert.Equal(t, []any{1.0, 3.0}, q["run_seconds"])
}

func TestRenderCheckReports(t *testing.T) {
	reports := []*check.Report{
		{QueryID: 1},
		{QueryID: 2, Mismatches: []check.Mismatch{
			{Row: 0, Column: "sum(bid_price)", Expected: "1", Actual: "2"},
		}},
	}

	var buf bytes.Buffer
	failures := report.RenderCheckReports(&buf, reports)
	assert.Equal(t, 1, failures)

	out := buf.String()
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "q1")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, `expected "1", got "2"`)
	assert.Contains(t, out, "1/2 queries passed")
}
