package query

// DefaultTable is the fully materialized detail-row table queries run
// against when the spec omits "from".
const DefaultTable = "events_table"

// Schema describes a base table: its name and declared columns. Projection,
// predicate, and group-by columns are validated against it.
type Schema struct {
	Table   string
	Columns []string

	set map[string]struct{}
}

// NewSchema builds a Schema over the given columns.
func NewSchema(table string, columns ...string) *Schema {
	s := &Schema{Table: table, Columns: columns, set: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		s.set[c] = struct{}{}
	}
	return s
}

// Has reports whether the schema declares the column.
func (s *Schema) Has(column string) bool {
	_, ok := s.set[column]
	return ok
}

// EventsSchema returns the schema of the materialized events table,
// including the calendar columns derived at ingest time.
func EventsSchema() *Schema {
	return NewSchema(DefaultTable,
		"ts", "week", "day", "hour", "minute",
		"type", "auction_id", "advertiser_id", "publisher_id",
		"bid_price", "user_id", "total_price", "country",
	)
}
