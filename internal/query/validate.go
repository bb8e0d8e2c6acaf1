package query

import (
	"strings"

	"github.com/jetpham/calhacks25/internal/domain"
)

// Validate checks a decoded spec against the base-table schema. A failure
// is an InvalidQueryError carrying the offending field; the caller decides
// whether to continue with the remaining queries.
func (s *Spec) Validate(schema *Schema) error {
	if s.From != schema.Table {
		return domain.ErrInvalidQuery("from", "unknown table %q", s.From)
	}
	if len(s.Select) == 0 {
		return domain.ErrInvalidQuery("select", "empty select list")
	}

	groupBy := make(map[string]struct{}, len(s.GroupBy))
	for _, col := range s.GroupBy {
		if !schema.Has(col) {
			return domain.ErrInvalidQuery("group_by", "unknown column %q", col)
		}
		groupBy[col] = struct{}{}
	}

	for _, p := range s.Select {
		if !p.IsAggregate() {
			if !schema.Has(p.Column) {
				return domain.ErrInvalidQuery("select", "unknown column %q", p.Column)
			}
			// Non-aggregate projections must be grouped; with no GROUP BY
			// the query is a single-row aggregate and plain columns have no
			// defined value.
			if _, ok := groupBy[p.Column]; !ok {
				return domain.ErrInvalidQuery("select", "column %q is not in group_by", p.Column)
			}
			continue
		}
		if !ValidAggFn(p.Fn) {
			return domain.ErrInvalidQuery("select", "unknown aggregate function %q", string(p.Fn))
		}
		if p.Arg == "*" {
			if p.Fn != AggCount {
				return domain.ErrInvalidQuery("select", "%s(*) is not supported", p.Fn)
			}
		} else if !schema.Has(p.Arg) {
			return domain.ErrInvalidQuery("select", "unknown column %q", p.Arg)
		}
	}

	if len(s.GroupBy) == 0 {
		for _, p := range s.Select {
			if !p.IsAggregate() {
				return domain.ErrInvalidQuery("select", "column %q requires a group_by clause", p.Column)
			}
		}
	}

	for _, pred := range s.Where {
		if !schema.Has(pred.Col) {
			return domain.ErrInvalidQuery("where", "unknown column %q", pred.Col)
		}
		if !ValidOp(pred.Op) {
			return domain.ErrInvalidQuery("where", "unknown operator %q", pred.Op)
		}
		switch pred.Op {
		case OpIn:
			vals, ok := pred.Val.([]interface{})
			if !ok || len(vals) == 0 {
				return domain.ErrInvalidQuery("where", "operator %q requires a non-empty list value", pred.Op)
			}
		case OpBetween:
			vals, ok := pred.Val.([]interface{})
			if !ok || len(vals) != 2 {
				return domain.ErrInvalidQuery("where", "operator %q requires a two-element list value", pred.Op)
			}
		}
	}

	for _, o := range s.OrderBy {
		if o.Dir != "asc" && o.Dir != "desc" {
			return domain.ErrInvalidQuery("order_by", "unknown direction %q", o.Dir)
		}
		col := o.Col
		if fn, arg, ok := SplitAggregateRef(col); ok {
			if !ValidAggFn(fn) {
				return domain.ErrInvalidQuery("order_by", "unknown aggregate function %q", string(fn))
			}
			if arg != "*" && !schema.Has(arg) {
				return domain.ErrInvalidQuery("order_by", "unknown column %q", arg)
			}
			continue
		}
		if !schema.Has(col) {
			return domain.ErrInvalidQuery("order_by", "unknown column %q", col)
		}
	}

	return nil
}

// SplitAggregateRef parses a textual "fn(col)" reference, as used in
// ORDER BY entries that sort on an aggregate.
func SplitAggregateRef(s string) (AggFn, string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	fn := AggFn(strings.ToUpper(s[:open]))
	arg := s[open+1 : len(s)-1]
	return fn, arg, true
}
