// Package domain defines core types, interfaces, and errors shared by the
// query compiler, preprocessing planner, and benchmark harness.
package domain

import "context"

// RowSet is the fully materialized result of one statement. Cells are
// rendered to strings the same way the result CSVs are written, so row sets
// coming from the engine and row sets read back from disk compare directly.
type RowSet struct {
	Columns []string
	Rows    [][]string
}

// Executor is the capability surface the core needs from the analytical
// storage engine. The engine is a black box behind these four calls; tests
// substitute an in-memory fake.
type Executor interface {
	// Execute runs a statement and drains all result rows.
	Execute(ctx context.Context, sql string) (*RowSet, error)

	// Exec runs a statement that produces no result rows (DDL, settings).
	Exec(ctx context.Context, sql string) error

	// Exists reports whether a table or index with the given name is
	// physically present in the database.
	Exists(ctx context.Context, name string) (bool, error)

	// Explain runs a statement with profiling enabled and returns the
	// engine's JSON execution profile.
	Explain(ctx context.Context, sql string) (string, error)
}
