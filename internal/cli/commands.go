package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jetpham/calhacks25/internal/check"
	"github.com/jetpham/calhacks25/internal/config"
	"github.com/jetpham/calhacks25/internal/engine"
	"github.com/jetpham/calhacks25/internal/ingest"
	"github.com/jetpham/calhacks25/internal/plan"
	"github.com/jetpham/calhacks25/internal/query"
	"github.com/jetpham/calhacks25/internal/report"
	"github.com/jetpham/calhacks25/internal/rollup"
	"github.com/jetpham/calhacks25/internal/run"
)

func loadCatalog(cfg *config.Config) (*rollup.Catalog, error) {
	if cfg.CatalogPath == "" {
		return rollup.DefaultCatalog(), nil
	}
	return rollup.LoadFile(cfg.CatalogPath)
}

func newLoadCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load event CSVs into the materialized detail table",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engine.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			if err := ingest.Load(cmd.Context(), eng, cfg.DataDir); err != nil {
				return err
			}
			if cfg.DBPath != "" {
				slog.Info("database image saved", "path", cfg.DBPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.DataDir, "input-dir", cfg.DataDir, "directory holding events_part_*.csv")
	return cmd
}

func newPrepCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prep",
		Short: "Build indexes and rollup tables ahead of benchmarking",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engine.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			planCfg := plan.DefaultConfig()
			planCfg.CreateIndexes = cfg.CreateIndexes
			planCfg.CreateRollups = cfg.CreateRollups
			planCfg.IndexCardinalityCeiling = cfg.IndexCardinalityCeiling

			buildPlan, err := plan.Plan(cmd.Context(), eng, planCfg, cat)
			if err != nil {
				return err
			}
			rep := plan.Apply(cmd.Context(), eng, buildPlan, cat)
			slog.Info("build plan applied",
				"created", len(rep.Created), "skipped", len(rep.Skipped), "failed", len(rep.Failures))
			for _, f := range rep.Failures {
				slog.Warn("build failure", "object", f.Object, "error", f.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.CreateIndexes, "indexes", cfg.CreateIndexes, "create indexes")
	cmd.Flags().BoolVar(&cfg.CreateRollups, "rollups", cfg.CreateRollups, "create rollup tables")
	cmd.Flags().Int64Var(&cfg.IndexCardinalityCeiling, "index-ceiling", cfg.IndexCardinalityCeiling,
		"skip indexing columns with more distinct values than this")
	return cmd
}

func newBenchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark queries and report timing statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engine.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			specs, err := query.ParseFile(cfg.QueriesPath)
			if err != nil {
				return err
			}
			slog.Info("parsed queries", "count", len(specs), "file", cfg.QueriesPath)

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			if err := cat.Refresh(cmd.Context(), eng); err != nil {
				return err
			}
			cat.ProbeStats(cmd.Context(), eng)

			session := &run.Session{
				Exec:        eng,
				Schema:      query.EventsSchema(),
				Catalog:     cat,
				Repetitions: cfg.Repetitions,
				Concurrency: cfg.Concurrency,
				Profile:     cfg.Profile,
			}
			outcomes, summary, err := session.Run(cmd.Context(), specs)
			if err != nil {
				return err
			}

			report.RenderSummary(os.Stdout, summary)

			if cfg.OutputDir != "" {
				if err := report.WriteResultCSVs(cfg.OutputDir, outcomes); err != nil {
					return err
				}
				if err := report.WriteSummaryJSON(cfg.OutputDir+"/summary.json", summary); err != nil {
					return err
				}
				if cfg.Profile {
					if err := report.WriteProfiles(cfg.OutputDir, outcomes); err != nil {
						return err
					}
				}
			}

			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d queries failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.QueriesPath, "queries", cfg.QueriesPath, "JSON query spec file")
	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for result CSVs and reports")
	cmd.Flags().IntVarP(&cfg.Repetitions, "repetitions", "r", cfg.Repetitions, "timed runs per query (excluding warmup)")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency,
		"queries benchmarked in parallel; >1 trades timing isolation for throughput")
	cmd.Flags().BoolVar(&cfg.Profile, "profile", cfg.Profile, "capture engine execution profiles")
	return cmd
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare result CSVs against a baseline directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.BaselineDir == "" || cfg.OutputDir == "" {
				return fmt.Errorf("--baseline-dir and --output-dir are required")
			}
			reports, err := check.CompareDirs(cfg.BaselineDir, cfg.OutputDir, cfg.Tolerance)
			if err != nil {
				return err
			}
			if failures := report.RenderCheckReports(os.Stdout, reports); failures > 0 {
				return fmt.Errorf("%d queries failed comparison", failures)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaselineDir, "baseline-dir", cfg.BaselineDir, "baseline CSV directory")
	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "produced CSV directory")
	cmd.Flags().Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "relative tolerance for floating measures")
	return cmd
}
