// Package engine implements the storage-engine capability surface on
// DuckDB. Everything above it treats the database as a black box that
// executes SQL, answers existence probes, and produces JSON profiles.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	// Register the DuckDB SQL driver.
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/jetpham/calhacks25/internal/domain"
)

// DuckDB wraps a DuckDB connection pool behind domain.Executor.
type DuckDB struct {
	db *sql.DB
}

var _ domain.Executor = (*DuckDB)(nil)

// Open opens a persisted database image, or an in-memory database when
// path is empty or ":memory:".
func Open(path string) (*DuckDB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &DuckDB{db: db}, nil
}

// DB exposes the underlying pool for callers that need raw access.
func (e *DuckDB) DB() *sql.DB { return e.db }

// Close releases the connection pool. A file-backed database persists its
// image on close.
func (e *DuckDB) Close() error { return e.db.Close() }

// Exec runs a statement that returns no rows.
func (e *DuckDB) Exec(ctx context.Context, query string) error {
	if _, err := e.db.ExecContext(ctx, query); err != nil {
		return domain.ErrExecution(query, "%v", err)
	}
	return nil
}

// Execute runs a statement and drains every result row into a RowSet.
func (e *DuckDB) Execute(ctx context.Context, query string) (*domain.RowSet, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.ErrExecution(query, "%v", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, domain.ErrExecution(query, "columns: %v", err)
	}

	out := &domain.RowSet{Columns: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, domain.ErrExecution(query, "scan: %v", err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = formatCell(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrExecution(query, "%v", err)
	}
	return out, nil
}

// Exists probes for a table or index with the given name.
func (e *DuckDB) Exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := e.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?)
		      + (SELECT COUNT(*) FROM duckdb_indexes() WHERE index_name = ?)`,
		name, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("existence probe for %q: %w", name, err)
	}
	return count > 0, nil
}

// Explain runs the statement with JSON profiling enabled and returns the
// engine's profile: per-operator timings, cardinalities, and rows scanned.
// Profiling is routed through a temp file because DuckDB emits the profile
// on statement completion rather than as a result set.
func (e *DuckDB) Explain(ctx context.Context, query string) (string, error) {
	profilePath := filepath.Join(os.TempDir(), "qbench_profile_"+uuid.NewString()+".json")
	defer func() { _ = os.Remove(profilePath) }()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	setup := []string{
		"SET enable_profiling = 'json'",
		fmt.Sprintf("SET profiling_output = '%s'", profilePath),
		"SET profiling_mode = 'detailed'",
	}
	for _, stmt := range setup {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("enable profiling: %w", err)
		}
	}
	defer func() { _, _ = conn.ExecContext(ctx, "PRAGMA disable_profiling") }()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return "", domain.ErrExecution(query, "%v", err)
	}
	if err := drain(rows); err != nil {
		return "", domain.ErrExecution(query, "%v", err)
	}

	// The profile file is written when the statement finishes; give the
	// engine a beat in case the write races the read.
	var data []byte
	for i := 0; i < 10; i++ {
		data, err = os.ReadFile(profilePath)
		if err == nil && len(data) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		return "", fmt.Errorf("read profile: %w", err)
	}
	return string(data), nil
}

func drain(rows *sql.Rows) error {
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
	}
	return rows.Err()
}

// formatCell renders a scanned value the way the result CSVs are written,
// so engine output and files read back from disk compare cell-for-cell.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case *big.Int:
		return val.String()
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}
