// Package check compares a produced row set against a baseline. Aggregate
// queries have no inherent row order, so both sides are put under a
// canonical sort before a positional, cell-by-cell comparison.
package check

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/query"
)

// DefaultTolerance is the relative tolerance applied to floating measures.
const DefaultTolerance = 1e-6

// Mismatch records one differing cell after canonical sorting.
type Mismatch struct {
	Row      int
	Column   string
	Expected string
	Actual   string
}

// Report is the outcome of comparing one query's row sets. An empty report
// (OK true) means the sets match.
type Report struct {
	QueryID          int
	ColumnMismatch   bool
	RowCountMismatch bool
	ExpectedRows     int
	ActualRows       int
	Mismatches       []Mismatch
}

// OK reports whether the comparison found no differences.
func (r *Report) OK() bool {
	return !r.ColumnMismatch && !r.RowCountMismatch && len(r.Mismatches) == 0
}

func (r *Report) String() string {
	switch {
	case r.ColumnMismatch:
		return "column mismatch"
	case r.RowCountMismatch:
		return fmt.Sprintf("row count mismatch (expected %d, got %d)", r.ExpectedRows, r.ActualRows)
	case len(r.Mismatches) > 0:
		return fmt.Sprintf("%d mismatched cells", len(r.Mismatches))
	}
	return "match"
}

// Options tunes a comparison. SortColumns are the canonical-sort key
// column indexes; nil sorts by every column left to right. FloatColumns
// are the indexes compared with relative tolerance; nil auto-detects per
// cell (tolerant when both sides parse as floats). Tolerance zero means
// DefaultTolerance.
type Options struct {
	SortColumns  []int
	FloatColumns []int
	Tolerance    float64
}

// ForSpec derives checker options from a query spec and the result header:
// canonical sort ascending by the group-by columns with ties broken by the
// first projection, and tolerance only on non-COUNT aggregate measures.
func ForSpec(spec *query.Spec, columns []string, tolerance float64) Options {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	opts := Options{Tolerance: tolerance}
	for _, col := range spec.GroupBy {
		if i, ok := index[col]; ok {
			opts.SortColumns = append(opts.SortColumns, i)
		}
	}
	if len(columns) > 0 {
		opts.SortColumns = append(opts.SortColumns, 0)
	}

	for i, p := range spec.Select {
		if p.IsAggregate() && p.Fn != query.AggCount && i < len(columns) {
			opts.FloatColumns = append(opts.FloatColumns, i)
		}
	}
	return opts
}

// Compare canonically sorts both row sets and reports every differing
// cell. A differing row count is itself a mismatch and suppresses the
// cell-level scan.
func Compare(queryID int, baseline, produced *domain.RowSet, opts Options) *Report {
	report := &Report{
		QueryID:      queryID,
		ExpectedRows: len(baseline.Rows),
		ActualRows:   len(produced.Rows),
	}

	if len(baseline.Columns) != len(produced.Columns) {
		report.ColumnMismatch = true
		return report
	}
	for i := range baseline.Columns {
		if baseline.Columns[i] != produced.Columns[i] {
			report.ColumnMismatch = true
			return report
		}
	}

	if len(baseline.Rows) != len(produced.Rows) {
		report.RowCountMismatch = true
		return report
	}

	tolerance := opts.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	expected := canonicalize(baseline.Rows, opts.SortColumns)
	actual := canonicalize(produced.Rows, opts.SortColumns)

	floatCols := map[int]bool{}
	for _, i := range opts.FloatColumns {
		floatCols[i] = true
	}
	autoFloat := opts.FloatColumns == nil

	for r := range expected {
		for c := range expected[r] {
			if c >= len(actual[r]) {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Row: r, Column: columnName(baseline, c), Expected: expected[r][c], Actual: "",
				})
				continue
			}
			want, got := expected[r][c], actual[r][c]
			if cellsEqual(want, got, floatCols[c], autoFloat, tolerance) {
				continue
			}
			report.Mismatches = append(report.Mismatches, Mismatch{
				Row: r, Column: columnName(baseline, c), Expected: want, Actual: got,
			})
		}
	}
	return report
}

func columnName(rs *domain.RowSet, i int) string {
	if i < len(rs.Columns) {
		return rs.Columns[i]
	}
	return strconv.Itoa(i)
}

// canonicalize returns the rows sorted by the key columns, comparing cells
// numerically when both parse as numbers. The input is not mutated.
func canonicalize(rows [][]string, keys []int) [][]string {
	out := make([][]string, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if keys == nil {
			for c := 0; c < len(out[i]) && c < len(out[j]); c++ {
				if cmp := compareCells(out[i][c], out[j][c]); cmp != 0 {
					return cmp < 0
				}
			}
			return false
		}
		for _, c := range keys {
			if c >= len(out[i]) || c >= len(out[j]) {
				continue
			}
			if cmp := compareCells(out[i][c], out[j][c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return out
}

func compareCells(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cellsEqual(want, got string, isFloat, autoFloat bool, tolerance float64) bool {
	if want == got {
		return true
	}
	if !isFloat && !autoFloat {
		return false
	}
	fw, errW := strconv.ParseFloat(want, 64)
	fg, errG := strconv.ParseFloat(got, 64)
	if errW != nil || errG != nil {
		return false
	}
	return withinTolerance(fw, fg, tolerance)
}

// withinTolerance applies relative tolerance, falling back to absolute
// comparison near zero.
func withinTolerance(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	scale := abs(a)
	if abs(b) > scale {
		scale = abs(b)
	}
	if scale < 1 {
		return diff <= tolerance
	}
	return diff <= tolerance*scale
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
