// Package plan decides which auxiliary structures get built ahead of
// benchmarking: single and composite indexes on the detail table, and the
// cataloged rollup tables. It emits an ordered build plan and applies it
// best-effort and idempotently.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/query"
	"github.com/jetpham/calhacks25/internal/rollup"
)

// Config holds the explicit build-time switches. These used to be ambient
// flags in earlier iterations; they are plain fields now so a plan is fully
// described by its inputs.
type Config struct {
	Table            string
	IndexColumns     []string
	CompositeIndexes [][]string

	// IndexCardinalityCeiling excludes near-unique columns: an index on a
	// column with more distinct values than this would approach the data
	// size with little scan reduction.
	IndexCardinalityCeiling int64

	CreateIndexes bool
	CreateRollups bool
}

// DefaultConfig indexes the columns the workload filters and groups on,
// with the composite pairs that co-occur in filters.
func DefaultConfig() Config {
	return Config{
		Table:        query.DefaultTable,
		IndexColumns: []string{"type", "day", "country", "minute", "advertiser_id", "publisher_id"},
		CompositeIndexes: [][]string{
			{"type", "country"},
			{"type", "day"},
			{"type", "day", "minute"},
		},
		IndexCardinalityCeiling: 1_000_000,
		CreateIndexes:           true,
		CreateRollups:           true,
	}
}

// DirectiveKind distinguishes plan entries.
type DirectiveKind string

const (
	KindIndex  DirectiveKind = "index"
	KindRollup DirectiveKind = "rollup"
)

// Directive is one creation step: the object name (used for the existence
// probe) and the statement that creates it.
type Directive struct {
	Kind DirectiveKind
	Name string
	SQL  string
}

// BuildPlan is the ordered list of creation directives: indexes first, then
// rollups, both in declaration order.
type BuildPlan struct {
	Directives []Directive
}

// IndexName derives the index naming convention idx_<table>_<col>[_<col>].
func IndexName(table string, cols []string) string {
	return "idx_" + table + "_" + strings.Join(cols, "_")
}

// Plan produces the build plan. Single-column index candidates are probed
// for cardinality with a COUNT DISTINCT query and dropped when they exceed
// the ceiling; composite groups and cataloged rollups are planned
// unconditionally.
func Plan(ctx context.Context, exec domain.Executor, cfg Config, cat *rollup.Catalog) (*BuildPlan, error) {
	p := &BuildPlan{}

	if cfg.CreateIndexes {
		for _, col := range cfg.IndexColumns {
			distinct, err := probeDistinct(ctx, exec, cfg.Table, col)
			if err != nil {
				return nil, fmt.Errorf("probe cardinality of %s.%s: %w", cfg.Table, col, err)
			}
			if distinct > cfg.IndexCardinalityCeiling {
				slog.Debug("skipping high-cardinality index column",
					"column", col, "distinct", distinct, "ceiling", cfg.IndexCardinalityCeiling)
				continue
			}
			p.Directives = append(p.Directives, indexDirective(cfg.Table, []string{col}))
		}
		for _, group := range cfg.CompositeIndexes {
			p.Directives = append(p.Directives, indexDirective(cfg.Table, group))
		}
	}

	if cfg.CreateRollups {
		for _, d := range cat.Descriptors() {
			p.Directives = append(p.Directives, Directive{
				Kind: KindRollup,
				Name: d.Name,
				SQL:  d.CreateSQL(),
			})
		}
	}

	return p, nil
}

func indexDirective(table string, cols []string) Directive {
	name := IndexName(table, cols)
	return Directive{
		Kind: KindIndex,
		Name: name,
		SQL:  fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, strings.Join(cols, ", ")),
	}
}

func probeDistinct(ctx context.Context, exec domain.Executor, table, col string) (int64, error) {
	rs, err := exec.Execute(ctx, fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", col, table))
	if err != nil {
		return 0, err
	}
	if len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
		return 0, fmt.Errorf("empty cardinality probe result")
	}
	return strconv.ParseInt(rs.Rows[0][0], 10, 64)
}

// Report summarizes one Apply pass.
type Report struct {
	Created  []string
	Skipped  []string
	Failures []*domain.BuildError
}

// Apply issues the plan's directives. Each object's existence is probed
// first, so re-applying a plan against an already-built database creates
// nothing. A failed directive is recorded and the remaining directives
// still run; failed rollups are marked unavailable in the catalog so later
// compilation treats them as absent.
func Apply(ctx context.Context, exec domain.Executor, p *BuildPlan, cat *rollup.Catalog) *Report {
	report := &Report{}
	for _, d := range p.Directives {
		exists, err := exec.Exists(ctx, d.Name)
		if err != nil {
			report.Failures = append(report.Failures, domain.ErrBuild(d.Name, "existence probe: %v", err))
			continue
		}
		if exists {
			report.Skipped = append(report.Skipped, d.Name)
			continue
		}
		if err := exec.Exec(ctx, d.SQL); err != nil {
			slog.Warn("build directive failed", "kind", d.Kind, "name", d.Name, "error", err)
			report.Failures = append(report.Failures, domain.ErrBuild(d.Name, "%v", err))
			if d.Kind == KindRollup {
				cat.MarkUnavailable(d.Name)
			}
			continue
		}
		report.Created = append(report.Created, d.Name)
	}
	return report
}
