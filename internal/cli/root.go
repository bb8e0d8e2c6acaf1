// Package cli wires the qbench subcommands: load, prep, bench, check.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jetpham/calhacks25/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cfg := config.FromEnv()

	root := &cobra.Command{
		Use:     "qbench",
		Short:   "Rollup-aware analytical query benchmark harness",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Long: `qbench loads a large event dataset into an embedded analytical
database, builds indexes and precomputed rollup tables, compiles
declarative JSON queries into SQL (rewritten against a matching rollup
when possible), benchmarks them with reproducible timing, and checks
results against a baseline.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			cfg.SetupLogging()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	// Accept underscore spellings like --log_level.
	pf.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	pf.StringVar(&cfg.DBPath, "db", cfg.DBPath, "persisted database image (empty = in-memory)")
	pf.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML rollup catalog override")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	root.AddCommand(newLoadCmd(cfg))
	root.AddCommand(newPrepCmd(cfg))
	root.AddCommand(newBenchCmd(cfg))
	root.AddCommand(newCheckCmd(cfg))
	return root
}
