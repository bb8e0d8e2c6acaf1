// Package query defines the declarative query specification and its JSON
// wire format, plus validation against the base-table schema.
package query

// AggFn is an aggregate function name in its canonical upper-case form.
type AggFn string

const (
	AggSum   AggFn = "SUM"
	AggAvg   AggFn = "AVG"
	AggMin   AggFn = "MIN"
	AggMax   AggFn = "MAX"
	AggCount AggFn = "COUNT"
)

// ValidAggFn reports whether fn is a supported aggregate function.
func ValidAggFn(fn AggFn) bool {
	switch fn {
	case AggSum, AggAvg, AggMin, AggMax, AggCount:
		return true
	}
	return false
}

// Projection is one entry of a SELECT list: either a plain column reference
// (Fn empty) or an aggregate Fn over Arg. COUNT may take Arg "*".
type Projection struct {
	Column string
	Fn     AggFn
	Arg    string
}

// IsAggregate reports whether the projection is an aggregate expression.
func (p Projection) IsAggregate() bool { return p.Fn != "" }

// Operators accepted in predicates.
const (
	OpEq      = "eq"
	OpNeq     = "neq"
	OpLt      = "lt"
	OpLte     = "lte"
	OpGt      = "gt"
	OpGte     = "gte"
	OpIn      = "in"
	OpBetween = "between"
)

// ValidOp reports whether op is a supported predicate operator.
func ValidOp(op string) bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIn, OpBetween:
		return true
	}
	return false
}

// Predicate is one conjunct of the WHERE clause. Val holds the decoded JSON
// value: string, float64, or []interface{} for in/between.
type Predicate struct {
	Col string
	Op  string
	Val interface{}
}

// Ordering is one ORDER BY entry. Col may name a column or an aggregate in
// "fn(col)" form. Dir is "asc" or "desc", defaulting to "asc".
type Ordering struct {
	Col string
	Dir string
}

// Spec is one immutable query specification. Instances are created by the
// JSON decoder and never mutated afterwards.
type Spec struct {
	Select  []Projection
	From    string
	Where   []Predicate
	GroupBy []string
	OrderBy []Ordering
	Limit   *int64
}

// Aggregates returns the aggregate projections in select order.
func (s *Spec) Aggregates() []Projection {
	out := make([]Projection, 0, len(s.Select))
	for _, p := range s.Select {
		if p.IsAggregate() {
			out = append(out, p)
		}
	}
	return out
}

// PlainColumns returns the non-aggregate projection columns in select order.
func (s *Spec) PlainColumns() []string {
	out := make([]string, 0, len(s.Select))
	for _, p := range s.Select {
		if !p.IsAggregate() {
			out = append(out, p.Column)
		}
	}
	return out
}
