package run

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jetpham/calhacks25/internal/compile"
	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/query"
	"github.com/jetpham/calhacks25/internal/rollup"
)

// Outcome is the result of benchmarking one query: its timing stat, the
// result rows from the warmup run, and optionally the engine's JSON
// profile. Err is set when the query failed; other queries still run.
type Outcome struct {
	QueryID int
	Stat    *RunStat
	Rows    *domain.RowSet
	Profile string
	Err     error
}

// Summary aggregates one benchmarking session.
type Summary struct {
	SessionID string
	Stats     []*RunStat
	Total     time.Duration
}

// Session drives a whole benchmark pass: validate, compile, select, and
// benchmark each query. Queries run sequentially by default; Concurrency
// above 1 benchmarks independent queries in parallel as a performance
// option, at the cost of timing isolation between queries (each query's
// repetitions remain strictly sequential either way).
type Session struct {
	Exec        domain.Executor
	Schema      *query.Schema
	Catalog     *rollup.Catalog
	Repetitions int
	Concurrency int
	Profile     bool
}

// Run benchmarks every query and returns the outcomes in query order plus
// the session summary. A single bad query records its error and the rest
// proceed.
func (s *Session) Run(ctx context.Context, specs []*query.Spec) ([]*Outcome, *Summary, error) {
	outcomes := make([]*Outcome, len(specs))
	harness := &Harness{Exec: s.Exec, Repetitions: s.Repetitions}

	workers := s.Concurrency
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, spec := range specs {
		g.Go(func() error {
			outcomes[i] = s.runOne(gctx, harness, i+1, spec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	summary := &Summary{SessionID: uuid.NewString()}
	for _, o := range outcomes {
		if o.Err != nil || o.Stat == nil {
			continue
		}
		summary.Stats = append(summary.Stats, o.Stat)
		summary.Total += o.Stat.Total()
	}
	return outcomes, summary, nil
}

func (s *Session) runOne(ctx context.Context, harness *Harness, queryID int, spec *query.Spec) *Outcome {
	out := &Outcome{QueryID: queryID}

	if err := spec.Validate(s.Schema); err != nil {
		slog.Error("query rejected", "query", queryID, "error", err)
		out.Err = err
		return out
	}

	candidates := compile.Compile(spec, s.Catalog)

	stat, rows, err := harness.Benchmark(ctx, queryID, candidates)
	if err != nil {
		slog.Error("query failed", "query", queryID, "error", err)
		out.Err = err
		return out
	}
	out.Stat = stat
	out.Rows = rows
	slog.Info("query benchmarked",
		"query", queryID,
		"source", stat.Source,
		"runs", len(stat.Durations),
		"avg", stat.Average().Round(time.Microsecond))

	if s.Profile {
		// Profile the chosen statement once, outside the timed runs.
		for _, c := range candidates {
			if c.Source() != stat.Source {
				continue
			}
			profile, err := s.Exec.Explain(ctx, c.SQL)
			if err != nil {
				slog.Warn("profiling failed", "query", queryID, "error", err)
				break
			}
			out.Profile = profile
			break
		}
	}
	return out
}
