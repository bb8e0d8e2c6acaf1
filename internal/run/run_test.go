package run_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetpham/calhacks25/internal/compile"
	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/query"
	"github.com/jetpham/calhacks25/internal/rollup"
	"github.com/jetpham/calhacks25/internal/run"
)

// scriptExec answers every statement with a fixed row set, failing the
// statements listed in failSQL and denying existence for missing tables.
type scriptExec struct {
	mu       sync.Mutex
	rows     *domain.RowSet
	failSQL  map[string]bool
	missing  map[string]bool
	executes []string
}

func newScriptExec() *scriptExec {
	return &scriptExec{
		rows:    &domain.RowSet{Columns: []string{"n"}, Rows: [][]string{{"1"}}},
		failSQL: make(map[string]bool),
		missing: make(map[string]bool),
	}
}

func (s *scriptExec) Execute(ctx context.Context, sql string) (*domain.RowSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSQL[sql] {
		return nil, fmt.Errorf("injected failure")
	}
	s.executes = append(s.executes, sql)
	return s.rows, nil
}

func (s *scriptExec) Exec(ctx context.Context, sql string) error {
	_, err := s.Execute(ctx, sql)
	return err
}

func (s *scriptExec) Exists(ctx context.Context, name string) (bool, error) {
	return !s.missing[name], nil
}

func (s *scriptExec) Explain(ctx context.Context, sql string) (string, error) {
	return `{"latency": 0}`, nil
}

func candidates() []compile.CompiledStatement {
	return []compile.CompiledStatement{
		{SQL: "SELECT 1 FROM type_rollups", Rollup: "type_rollups"},
		{SQL: "SELECT 1 FROM type_day_rollups", Rollup: "type_day_rollups"},
		{SQL: "SELECT 1 FROM events_table"},
	}
}

func TestExecutePicksFirstCandidate(t *testing.T) {
	exec := newScriptExec()
	rows, chosen, err := run.Execute(context.Background(), exec, candidates())
	require.NoError(t, err)
	assert.Equal(t, "type_rollups", chosen.Rollup)
	assert.Equal(t, exec.rows, rows)
}

func TestExecuteSkipsMissingRollup(t *testing.T) {
	exec := newScriptExec()
	exec.missing["type_rollups"] = true

	_, chosen, err := run.Execute(context.Background(), exec, candidates())
	require.NoError(t, err)
	assert.Equal(t, "type_day_rollups", chosen.Rollup)
}

func TestExecuteFallsThroughOnFailure(t *testing.T) {
	exec := newScriptExec()
	exec.failSQL["SELECT 1 FROM type_rollups"] = true
	exec.failSQL["SELECT 1 FROM type_day_rollups"] = true

	_, chosen, err := run.Execute(context.Background(), exec, candidates())
	require.NoError(t, err)
	assert.True(t, chosen.IsBase(), "base statement absorbs rollup failures")
}

func TestExecuteErrorsWhenAllCandidatesFail(t *testing.T) {
	exec := newScriptExec()
	for _, c := range candidates() {
		exec.failSQL[c.SQL] = true
	}
	_, _, err := run.Execute(context.Background(), exec, candidates())
	require.Error(t, err)
}

func TestBenchmarkRunsWarmupPlusRepetitions(t *testing.T) {
	exec := newScriptExec()
	h := &run.Harness{Exec: exec, Repetitions: 3}

	stat, rows, err := h.Benchmark(context.Background(), 1, candidates())
	require.NoError(t, err)
	require.NotNil(t, rows)
	assert.Equal(t, "type_rollups", stat.Source)
	assert.Len(t, stat.Durations, 3, "warmup is not recorded")
	assert.Len(t, exec.executes, 4, "one warmup plus three timed runs")
}

func TestBenchmarkDefaultsToOneRepetition(t *testing.T) {
	exec := newScriptExec()
	h := &run.Harness{Exec: exec}

	stat, _, err := h.Benchmark(context.Background(), 1, candidates())
	require.NoError(t, err)
	assert.Len(t, stat.Durations, 1)
}

func TestRunStatAggregates(t *testing.T) {
	stat := &run.RunStat{Durations: []time.Duration{
		30 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
	}}
	assert.Equal(t, 10*time.Millisecond, stat.Min())
	assert.Equal(t, 30*time.Millisecond, stat.Max())
	assert.Equal(t, 20*time.Millisecond, stat.Average())
	assert.Equal(t, 60*time.Millisecond, stat.Total())
	assert.LessOrEqual(t, stat.Min(), stat.Average())
	assert.LessOrEqual(t, stat.Average(), stat.Max())
}

func TestRunStatEmpty(t *testing.T) {
	stat := &run.RunStat{}
	assert.Equal(t, time.Duration(0), stat.Min())
	assert.Equal(t, time.Duration(0), stat.Max())
	assert.Equal(t, time.Duration(0), stat.Average())
}

func sessionCatalog() *rollup.Catalog {
	return rollup.New(&rollup.Descriptor{
		Name:       "type_rollups",
		Source:     query.DefaultTable,
		Dimensions: []string{"type"},
		Measures: []rollup.Aggregate{
			{Fn: query.AggCount},
			{Fn: query.AggSum, Column: "bid_price"},
		},
	})
}

func TestSessionRecordsPerQueryErrors(t *testing.T) {
	specs, err := query.Parse([]byte(`[
		{"select": ["type", {"SUM": "bid_price"}], "group_by": ["type"]},
		{"select": ["bogus_column"], "group_by": ["bogus_column"]}
	]`))
	require.NoError(t, err)

	session := &run.Session{
		Exec:        newScriptExec(),
		Schema:      query.EventsSchema(),
		Catalog:     sessionCatalog(),
		Repetitions: 2,
	}
	outcomes, summary, err := session.Run(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, 1, outcomes[0].QueryID)
	require.NotNil(t, outcomes[0].Stat)
	assert.Equal(t, "type_rollups", outcomes[0].Stat.Source)

	require.Error(t, outcomes[1].Err)
	var invalid *domain.InvalidQueryError
	assert.ErrorAs(t, outcomes[1].Err, &invalid)

	require.Len(t, summary.Stats, 1, "failed queries stay out of the summary")
	assert.NotEmpty(t, summary.SessionID)
}

func TestSessionProfilesChosenStatement(t *testing.T) {
	specs, err := query.Parse([]byte(`[{"select": ["type", {"SUM": "bid_price"}], "group_by": ["type"]}]`))
	require.NoError(t, err)

	session := &run.Session{
		Exec:        newScriptExec(),
		Schema:      query.EventsSchema(),
		Catalog:     sessionCatalog(),
		Repetitions: 1,
		Profile:     true,
	}
	outcomes, _, err := session.Run(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.JSONEq(t, `{"latency": 0}`, outcomes[0].Profile)
}

func TestSessionConcurrentOutcomesStayOrdered(t *testing.T) {
	specs, err := query.Parse([]byte(`[
		{"select": [{"COUNT": "*"}]},
		{"select": [{"SUM": "bid_price"}]},
		{"select": [{"SUM": "total_price"}]}
	]`))
	require.NoError(t, err)

	session := &run.Session{
		Exec:        newScriptExec(),
		Schema:      query.EventsSchema(),
		Catalog:     rollup.New(),
		Repetitions: 1,
		Concurrency: 3,
	}
	outcomes, _, err := session.Run(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.Equal(t, i+1, o.QueryID)
	}
}
