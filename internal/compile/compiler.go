// Package compile turns a validated query spec into candidate SQL
// statements: always a base scan over the detail table, plus a rewritten
// statement per matching rollup. Compilation is a pure function of the spec
// and the catalog; the same inputs always yield the same candidate order.
package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jetpham/calhacks25/internal/query"
	"github.com/jetpham/calhacks25/internal/rollup"
)

// CompiledStatement is one executable candidate for a query. Rollup is the
// backing rollup table name, empty for the base scan. EstimatedRows carries
// the rollup's materialized row count when stats were probed; it is
// reporting metadata, not a planning input.
type CompiledStatement struct {
	SQL           string
	Rollup        string
	EstimatedRows int64
}

// IsBase reports whether the statement scans the raw detail table.
func (s CompiledStatement) IsBase() bool { return s.Rollup == "" }

// Source names the statement's backing table for logs and reports.
func (s CompiledStatement) Source() string {
	if s.IsBase() {
		return "base"
	}
	return s.Rollup
}

// Compile produces the candidate statements for a spec, best-first: rollup
// rewrites ordered by smallest dimension set (declaration order breaking
// ties), then the base statement as the final fallback.
func Compile(spec *query.Spec, cat *rollup.Catalog) []CompiledStatement {
	type match struct {
		desc  *rollup.Descriptor
		index int
	}
	var matches []match
	for i, d := range cat.Available() {
		if Matches(spec, d) {
			matches = append(matches, match{desc: d, index: i})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := matches[i].desc, matches[j].desc
		if len(di.Dimensions) != len(dj.Dimensions) {
			return len(di.Dimensions) < len(dj.Dimensions)
		}
		return matches[i].index < matches[j].index
	})

	out := make([]CompiledStatement, 0, len(matches)+1)
	for _, m := range matches {
		out = append(out, CompiledStatement{
			SQL:           rewriteSQL(spec, m.desc),
			Rollup:        m.desc.Name,
			EstimatedRows: m.desc.NumRows,
		})
	}
	out = append(out, CompiledStatement{SQL: baseSQL(spec)})
	return out
}

// Matches reports whether the rollup can answer the query exactly:
//
//	(a) every group-by column is one of the rollup's dimensions,
//	(b) every aggregate projection is derivable from the precomputed
//	    measures, and
//	(c) every predicate column is a dimension — predicates on any other
//	    column cannot be evaluated once the detail rows are gone.
//
// Rule (c) also closes the MIN/MAX re-aggregation gap: a filtered column is
// always still present at the rollup's grain, so filtering happens before
// partials are combined across the remaining dimensions.
func Matches(spec *query.Spec, d *rollup.Descriptor) bool {
	if spec.From != d.Source {
		return false
	}
	for _, col := range spec.GroupBy {
		if !d.HasDimension(col) {
			return false
		}
	}
	for _, pred := range spec.Where {
		if !d.HasDimension(pred.Col) {
			return false
		}
	}
	for _, p := range spec.Select {
		if !p.IsAggregate() {
			if !d.HasDimension(p.Column) {
				return false
			}
			continue
		}
		if !derivable(p, d) {
			return false
		}
	}
	return true
}

// derivable reports whether the aggregate can be recomposed from the
// rollup's partials. SUM and COUNT recompose by summing, MIN/MAX by taking
// MIN/MAX. AVG has no self-combinator: it needs the SUM and COUNT pair for
// the same column, and the match fails closed without them.
func derivable(p query.Projection, d *rollup.Descriptor) bool {
	switch p.Fn {
	case query.AggAvg:
		return d.HasMeasure(query.AggSum, p.Arg) && d.HasMeasure(query.AggCount, p.Arg)
	case query.AggSum, query.AggCount, query.AggMin, query.AggMax:
		return d.HasMeasure(p.Fn, p.Arg)
	}
	return false
}

// rewriteSQL renders the query against the rollup, re-aggregating the
// precomputed partials. The rewrite always re-aggregates: when the rollup
// is grouped finer than the query, partials collapse across the dropped
// dimensions; when the grains coincide each group is a single row and the
// re-aggregation is the identity.
func rewriteSQL(spec *query.Spec, d *rollup.Descriptor) string {
	parts := make([]string, 0, len(spec.Select))
	for _, p := range spec.Select {
		if !p.IsAggregate() {
			parts = append(parts, p.Column)
			continue
		}
		expr := reaggExpr(p.Fn, p.Arg)
		parts = append(parts, fmt.Sprintf("%s AS %q", expr, resultAlias(p.Fn, p.Arg)))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.Name)
	writeWhere(&b, spec.Where)
	writeGroupBy(&b, spec.GroupBy)
	writeOrderBy(&b, spec, reaggExpr)
	writeLimit(&b, spec.Limit)
	return b.String()
}

// reaggExpr is the combinator applied to the rollup's partial aggregates.
func reaggExpr(fn query.AggFn, arg string) string {
	switch fn {
	case query.AggSum, query.AggCount:
		return "SUM(" + rollup.MetricColumn(fn, arg) + ")"
	case query.AggMin:
		return "MIN(" + rollup.MetricColumn(fn, arg) + ")"
	case query.AggMax:
		return "MAX(" + rollup.MetricColumn(fn, arg) + ")"
	case query.AggAvg:
		sum := rollup.MetricColumn(query.AggSum, arg)
		count := rollup.MetricColumn(query.AggCount, arg)
		return fmt.Sprintf("SUM(%s)::DOUBLE / NULLIF(SUM(%s), 0)", sum, count)
	}
	return ""
}

// resultAlias matches the column name the engine auto-generates for the
// same aggregate in the base statement, so both paths produce identical
// result headers. COUNT(*) is named count_star() by the engine.
func resultAlias(fn query.AggFn, arg string) string {
	if fn == query.AggCount && arg == "*" {
		return "count_star()"
	}
	return strings.ToLower(string(fn)) + "(" + arg + ")"
}
