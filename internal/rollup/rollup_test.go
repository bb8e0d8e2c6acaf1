package rollup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetpham/calhacks25/internal/query"
	"github.com/jetpham/calhacks25/internal/rollup"
)

func TestMetricColumn(t *testing.T) {
	assert.Equal(t, "sum_bid_price", rollup.MetricColumn(query.AggSum, "bid_price"))
	assert.Equal(t, "max_total_price", rollup.MetricColumn(query.AggMax, "total_price"))
	assert.Equal(t, "count_rows", rollup.MetricColumn(query.AggCount, ""))
	assert.Equal(t, "count_rows", rollup.MetricColumn(query.AggCount, "*"))
	assert.Equal(t, "count_bid_price", rollup.MetricColumn(query.AggCount, "bid_price"))
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "type_rollups", rollup.TableName([]string{"type"}))
	assert.Equal(t, "type_day_country_rollups", rollup.TableName([]string{"type", "day", "country"}))
}

func TestCreateSQL(t *testing.T) {
	d := &rollup.Descriptor{
		Name:       "type_day_rollups",
		Source:     "events_table",
		Dimensions: []string{"type", "day"},
		Measures: []rollup.Aggregate{
			{Fn: query.AggSum, Column: "bid_price"},
			{Fn: query.AggCount},
		},
	}
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS type_day_rollups AS "+
			"SELECT type, day, SUM(bid_price) AS sum_bid_price, COUNT(*) AS count_rows "+
			"FROM events_table GROUP BY 1, 2 ORDER BY type, day",
		d.CreateSQL())
}

func TestDefaultCatalogNamesFollowDimensions(t *testing.T) {
	cat := rollup.DefaultCatalog()
	require.NotEmpty(t, cat.Descriptors())
	for _, d := range cat.Descriptors() {
		assert.Equal(t, rollup.TableName(d.Dimensions), d.Name)
		assert.Equal(t, query.DefaultTable, d.Source)
		assert.True(t, d.HasMeasure(query.AggCount, "*"), "every curated rollup carries the row count")
		assert.True(t, d.HasMeasure(query.AggSum, "bid_price"))
		assert.True(t, d.HasMeasure(query.AggCount, "bid_price"),
			"AVG recomposition needs the per-column count alongside the sum")
	}
}

func TestAvailabilityMarks(t *testing.T) {
	cat := rollup.New(
		&rollup.Descriptor{Name: "a_rollups", Dimensions: []string{"a"}},
		&rollup.Descriptor{Name: "b_rollups", Dimensions: []string{"b"}},
	)
	require.Len(t, cat.Available(), 2)

	cat.MarkUnavailable("a_rollups")
	avail := cat.Available()
	require.Len(t, avail, 1)
	assert.Equal(t, "b_rollups", avail[0].Name)

	cat.MarkAvailable("a_rollups")
	assert.Len(t, cat.Available(), 2)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: events_table
rollups:
  - dimensions: [type, day]
    measures:
      - {fn: sum, column: bid_price}
      - {fn: COUNT}
  - name: custom_name
    dimensions: [type]
`), 0o644))

	cat, err := rollup.LoadFile(path)
	require.NoError(t, err)
	descs := cat.Descriptors()
	require.Len(t, descs, 2)

	assert.Equal(t, "type_day_rollups", descs[0].Name, "name defaults from dimensions")
	require.Len(t, descs[0].Measures, 2)
	assert.Equal(t, query.AggSum, descs[0].Measures[0].Fn, "lowercase fn is canonicalized")
	assert.Equal(t, "count_rows", rollup.MetricColumn(descs[0].Measures[1].Fn, descs[0].Measures[1].Column))

	assert.Equal(t, "custom_name", descs[1].Name)
	assert.NotEmpty(t, descs[1].Measures, "empty measure list gets the standard set")
}

func TestLoadFileRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()

	noDims := filepath.Join(dir, "nodims.yaml")
	require.NoError(t, os.WriteFile(noDims, []byte("rollups:\n  - measures: [{fn: SUM, column: x}]\n"), 0o644))
	_, err := rollup.LoadFile(noDims)
	require.Error(t, err)

	badFn := filepath.Join(dir, "badfn.yaml")
	require.NoError(t, os.WriteFile(badFn, []byte("rollups:\n  - dimensions: [type]\n    measures: [{fn: MEDIAN, column: x}]\n"), 0o644))
	_, err = rollup.LoadFile(badFn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEDIAN")
}
