// Package rollup describes the catalog of precomputed aggregate tables:
// which dimension combinations exist, what measures each stores, and which
// of the cataloged tables are physically available.
package rollup

import (
	"context"
	"strconv"
	"strings"

	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/query"
)

// Aggregate identifies one precomputed measure: a function over a column.
// An empty Column means COUNT(*).
type Aggregate struct {
	Fn     query.AggFn
	Column string
}

// MetricColumn returns the storage column name for an aggregate inside a
// rollup table: sum_bid_price, max_total_price, count_rows for COUNT(*).
func MetricColumn(fn query.AggFn, column string) string {
	lower := strings.ToLower(string(fn))
	if fn == query.AggCount && (column == "" || column == "*") {
		return "count_rows"
	}
	return lower + "_" + strings.ReplaceAll(column, ".", "_")
}

// TableName derives the rollup table name from its dimension columns, e.g.
// (type, day) -> "type_day_rollups".
func TableName(dimensions []string) string {
	return strings.Join(dimensions, "_") + "_rollups"
}

// Descriptor is one cataloged rollup table: its name, the source detail
// table it derives from, the dimension columns it is keyed on, and the
// measures it precomputes. Read-only after catalog initialization.
type Descriptor struct {
	Name       string
	Source     string
	Dimensions []string
	Measures   []Aggregate

	// NumRows is the materialized row count, filled in by ProbeStats.
	// Zero until probed; used only for cost reporting.
	NumRows int64
}

// HasDimension reports whether the rollup is keyed on the column.
func (d *Descriptor) HasDimension(col string) bool {
	for _, dim := range d.Dimensions {
		if dim == col {
			return true
		}
	}
	return false
}

// HasMeasure reports whether the rollup precomputes the aggregate.
func (d *Descriptor) HasMeasure(fn query.AggFn, column string) bool {
	if column == "*" {
		column = ""
	}
	for _, m := range d.Measures {
		if m.Fn == fn && m.Column == column {
			return true
		}
	}
	return false
}

// CreateSQL renders the CREATE TABLE AS SELECT directive that materializes
// the rollup. Rows are sorted by the dimension columns so point filters
// touch contiguous blocks.
func (d *Descriptor) CreateSQL() string {
	parts := make([]string, 0, len(d.Dimensions)+len(d.Measures))
	parts = append(parts, d.Dimensions...)
	for _, m := range d.Measures {
		if m.Column == "" {
			parts = append(parts, "COUNT(*) AS count_rows")
			continue
		}
		parts = append(parts, string(m.Fn)+"("+m.Column+") AS "+MetricColumn(m.Fn, m.Column))
	}

	positions := make([]string, len(d.Dimensions))
	for i := range d.Dimensions {
		positions[i] = strconv.Itoa(i + 1)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.Name)
	b.WriteString(" AS SELECT ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.Source)
	b.WriteString(" GROUP BY ")
	b.WriteString(strings.Join(positions, ", "))
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(d.Dimensions, ", "))
	return b.String()
}

// Catalog holds the cataloged descriptors in declaration order, together
// with their availability. A descriptor can be cataloged but unavailable
// when its creation directive failed or never ran; matching only considers
// available rollups.
type Catalog struct {
	descriptors []*Descriptor
	unavailable map[string]bool
}

// New builds a catalog over the given descriptors, all initially available.
func New(descriptors ...*Descriptor) *Catalog {
	return &Catalog{descriptors: descriptors, unavailable: make(map[string]bool)}
}

// Descriptors returns all cataloged descriptors in declaration order.
func (c *Catalog) Descriptors() []*Descriptor { return c.descriptors }

// Available returns the available descriptors in declaration order.
func (c *Catalog) Available() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		if !c.unavailable[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// MarkUnavailable records that a cataloged rollup is not physically
// present (creation failed or the table was never built).
func (c *Catalog) MarkUnavailable(name string) { c.unavailable[name] = true }

// MarkAvailable clears an earlier unavailability mark.
func (c *Catalog) MarkAvailable(name string) { delete(c.unavailable, name) }

// Refresh synchronizes availability with the database by probing each
// cataloged table's existence.
func (c *Catalog) Refresh(ctx context.Context, exec domain.Executor) error {
	for _, d := range c.descriptors {
		ok, err := exec.Exists(ctx, d.Name)
		if err != nil {
			return err
		}
		if ok {
			c.MarkAvailable(d.Name)
		} else {
			c.MarkUnavailable(d.Name)
		}
	}
	return nil
}

// ProbeStats fills in row counts for the available rollups. Best effort:
// a failed probe leaves NumRows at zero.
func (c *Catalog) ProbeStats(ctx context.Context, exec domain.Executor) {
	for _, d := range c.Available() {
		rs, err := exec.Execute(ctx, "SELECT COUNT(*) FROM "+d.Name)
		if err != nil || len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
			continue
		}
		d.NumRows = parseInt64(rs.Rows[0][0])
	}
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
