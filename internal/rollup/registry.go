package rollup

import "github.com/jetpham/calhacks25/internal/query"

// standardMeasures is the measure set every curated rollup carries: partial
// sums and counts for both price columns (enough to recompose SUM, COUNT,
// and AVG), min/max partials, and the row count.
func standardMeasures() []Aggregate {
	return []Aggregate{
		{Fn: query.AggSum, Column: "bid_price"},
		{Fn: query.AggSum, Column: "total_price"},
		{Fn: query.AggCount, Column: ""},
		{Fn: query.AggCount, Column: "bid_price"},
		{Fn: query.AggCount, Column: "total_price"},
		{Fn: query.AggMin, Column: "bid_price"},
		{Fn: query.AggMin, Column: "total_price"},
		{Fn: query.AggMax, Column: "bid_price"},
		{Fn: query.AggMax, Column: "total_price"},
	}
}

// DefaultCatalog returns the hand-curated rollup registry: a fixed set of
// dimension combinations over the event stream's filter and grouping
// columns. Configuration-driven, not cost-based: the catalog trusts this
// list instead of deriving rollups from a query log.
func DefaultCatalog() *Catalog {
	combos := [][]string{
		{"type"},
		{"type", "day"},
		{"type", "week"},
		{"type", "country"},
		{"type", "advertiser_id"},
		{"type", "week", "day"},
		{"type", "day", "country"},
		{"type", "day", "minute"},
		{"type", "day", "publisher_id"},
		{"type", "day", "hour", "minute"},
		{"type", "day", "country", "advertiser_id"},
		{"type", "day", "country", "publisher_id"},
	}

	descriptors := make([]*Descriptor, 0, len(combos))
	for _, dims := range combos {
		descriptors = append(descriptors, &Descriptor{
			Name:       TableName(dims),
			Source:     query.DefaultTable,
			Dimensions: dims,
			Measures:   standardMeasures(),
		})
	}
	return New(descriptors...)
}
