// Package run selects which compiled candidate to execute and benchmarks
// the chosen statement with warmup and repeated timed runs.
package run

import (
	"context"
	"log/slog"

	"github.com/jetpham/calhacks25/internal/compile"
	"github.com/jetpham/calhacks25/internal/domain"
)

// Execute walks the candidates best-first and runs the first one that
// works: a candidate whose backing rollup fails the existence probe is
// skipped, and a candidate the engine rejects falls through to the next
// one. The base statement is always last, so a query degrades to a raw
// scan instead of failing while any path remains.
func Execute(ctx context.Context, exec domain.Executor, candidates []compile.CompiledStatement) (*domain.RowSet, *compile.CompiledStatement, error) {
	var lastErr error
	for i := range candidates {
		cand := &candidates[i]
		if !cand.IsBase() {
			ok, err := exec.Exists(ctx, cand.Rollup)
			if err != nil {
				lastErr = err
				continue
			}
			if !ok {
				slog.Debug("skipping candidate, rollup not present", "rollup", cand.Rollup)
				continue
			}
		}
		rows, err := exec.Execute(ctx, cand.SQL)
		if err != nil {
			slog.Warn("candidate failed, falling through", "source", cand.Source(), "error", err)
			lastErr = err
			continue
		}
		return rows, cand, nil
	}
	if lastErr == nil {
		lastErr = domain.ErrExecution("", "no executable candidate")
	}
	return nil, nil, lastErr
}
