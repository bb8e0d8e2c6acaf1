package compile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jetpham/calhacks25/internal/query"
)

// baseSQL renders the query against the raw detail table.
func baseSQL(spec *query.Spec) string {
	parts := make([]string, 0, len(spec.Select))
	for _, p := range spec.Select {
		if p.IsAggregate() {
			parts = append(parts, fmt.Sprintf("%s(%s)", p.Fn, p.Arg))
		} else {
			parts = append(parts, p.Column)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(spec.From)
	writeWhere(&b, spec.Where)
	writeGroupBy(&b, spec.GroupBy)
	writeOrderBy(&b, spec, baseAggRef)
	writeLimit(&b, spec.Limit)
	return b.String()
}

func writeWhere(b *strings.Builder, preds []query.Predicate) {
	if len(preds) == 0 {
		return
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, renderPredicate(p))
	}
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(parts, " AND "))
}

func writeGroupBy(b *strings.Builder, cols []string) {
	if len(cols) == 0 {
		return
	}
	b.WriteString(" GROUP BY ")
	b.WriteString(strings.Join(cols, ", "))
}

// aggRef renders an aggregate reference appearing in ORDER BY. The base
// statement keeps the textual form; the rollup rewrite substitutes the
// re-aggregation expression.
type aggRef func(fn query.AggFn, arg string) string

func baseAggRef(fn query.AggFn, arg string) string {
	return fmt.Sprintf("%s(%s)", fn, arg)
}

func writeOrderBy(b *strings.Builder, spec *query.Spec, ref aggRef) {
	if len(spec.OrderBy) == 0 {
		return
	}
	parts := make([]string, 0, len(spec.OrderBy))
	for _, o := range spec.OrderBy {
		expr := o.Col
		if fn, arg, ok := query.SplitAggregateRef(o.Col); ok {
			expr = ref(fn, arg)
		}
		parts = append(parts, expr+" "+strings.ToUpper(o.Dir))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(parts, ", "))
}

func writeLimit(b *strings.Builder, limit *int64) {
	if limit == nil {
		return
	}
	b.WriteString(" LIMIT ")
	b.WriteString(strconv.FormatInt(*limit, 10))
}

func renderPredicate(p query.Predicate) string {
	switch p.Op {
	case query.OpEq:
		return p.Col + " = " + renderValue(p.Val)
	case query.OpNeq:
		return p.Col + " != " + renderValue(p.Val)
	case query.OpLt:
		return p.Col + " < " + renderValue(p.Val)
	case query.OpLte:
		return p.Col + " <= " + renderValue(p.Val)
	case query.OpGt:
		return p.Col + " > " + renderValue(p.Val)
	case query.OpGte:
		return p.Col + " >= " + renderValue(p.Val)
	case query.OpIn:
		vals, _ := p.Val.([]interface{})
		parts := make([]string, 0, len(vals))
		for _, v := range vals {
			parts = append(parts, renderValue(v))
		}
		return p.Col + " IN (" + strings.Join(parts, ", ") + ")"
	case query.OpBetween:
		vals, _ := p.Val.([]interface{})
		if len(vals) != 2 {
			return ""
		}
		return p.Col + " BETWEEN " + renderValue(vals[0]) + " AND " + renderValue(vals[1])
	}
	return ""
}

// renderValue formats a decoded JSON value as a SQL literal: strings are
// single-quoted with embedded quotes doubled, numbers are bare with
// integral floats printed without a fraction.
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return "NULL"
	}
	return fmt.Sprintf("'%v'", v)
}
