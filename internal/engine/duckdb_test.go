package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/engine"
)

func openTestDB(t *testing.T) *engine.DuckDB {
	t.Helper()
	eng, err := engine.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestExecuteDrainsRows(t *testing.T) {
	eng := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, eng.Exec(ctx, "CREATE TABLE t(a VARCHAR, b DOUBLE)"))
	require.NoError(t, eng.Exec(ctx, "INSERT INTO t VALUES ('x', 1.5), ('y', NULL)"))

	rs, err := eng.Execute(ctx, "SELECT a, b FROM t ORDER BY a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, []string{"x", "1.5"}, rs.Rows[0])
	assert.Equal(t, []string{"y", ""}, rs.Rows[1], "NULL renders as an empty cell")
}

func TestExecuteAggregateColumnNames(t *testing.T) {
	eng := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, eng.Exec(ctx, "CREATE TABLE t(v DOUBLE)"))
	require.NoError(t, eng.Exec(ctx, "INSERT INTO t VALUES (1), (2), (3)"))

	rs, err := eng.Execute(ctx, "SELECT SUM(v), COUNT(*), AVG(v) FROM t")
	require.NoError(t, err)
	assert.Equal(t, []string{"sum(v)", "count_star()", "avg(v)"}, rs.Columns,
		"rewrites alias to these auto-generated names")
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "6", rs.Rows[0][0])
	assert.Equal(t, "3", rs.Rows[0][1])
	assert.Equal(t, "2", rs.Rows[0][2])
}

func TestExecuteDateFormatting(t *testing.T) {
	eng := openTestDB(t)
	ctx := context.Background()

	rs, err := eng.Execute(ctx, "SELECT DATE '2024-03-01' AS day")
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "2024-03-01", rs.Rows[0][0], "dates print without a time component")
}

func TestExecuteReportsExecutionError(t *testing.T) {
	eng := openTestDB(t)

	_, err := eng.Execute(context.Background(), "SELECT * FROM no_such_table")
	require.Error(t, err)
	var execErr *domain.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}

func TestExistsCoversTablesAndIndexes(t *testing.T) {
	eng := openTestDB(t)
	ctx := context.Background()

	ok, err := eng.Exists(ctx, "t")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, eng.Exec(ctx, "CREATE TABLE t(a INTEGER)"))
	require.NoError(t, eng.Exec(ctx, "CREATE INDEX idx_t_a ON t(a)"))

	ok, err = eng.Exists(ctx, "t")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.Exists(ctx, "idx_t_a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExplainProducesJSONProfile(t *testing.T) {
	eng := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, eng.Exec(ctx, "CREATE TABLE t(v INTEGER)"))
	require.NoError(t, eng.Exec(ctx, "INSERT INTO t VALUES (1), (2)"))

	profile, err := eng.Explain(ctx, "SELECT SUM(v) FROM t")
	require.NoError(t, err)
	assert.Contains(t, profile, "{")

	// Profiling must not leak into later statements on the pool.
	_, err = eng.Execute(ctx, "SELECT 1")
	require.NoError(t, err)
}
