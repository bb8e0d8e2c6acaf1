// Package config handles tool configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds the settings shared by the qbench subcommands. Flags
// override environment variables, which override the defaults.
type Config struct {
	DataDir     string // directory holding events_part_*.csv
	DBPath      string // persisted database image ("" = in-memory)
	QueriesPath string // JSON query spec file
	OutputDir   string // result CSV directory
	BaselineDir string // baseline CSV directory for checking
	CatalogPath string // optional YAML rollup catalog override

	Repetitions int     // timed runs per query, excluding warmup
	Concurrency int     // queries benchmarked in parallel (1 = sequential)
	Tolerance   float64 // relative tolerance for floating measures

	Profile       bool // capture engine profiles for chosen statements
	CreateIndexes bool // build plan: emit index directives
	CreateRollups bool // build plan: emit rollup directives

	IndexCardinalityCeiling int64 // max distinct values for an indexed column

	LogLevel string // debug, info, warn, error
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		DataDir:                 "data/data",
		QueriesPath:             "queries.json",
		Repetitions:             3,
		Concurrency:             1,
		Tolerance:               1e-6,
		CreateIndexes:           true,
		CreateRollups:           true,
		IndexCardinalityCeiling: 1_000_000,
		LogLevel:                "info",
	}
}

// FromEnv loads the configuration, applying QBENCH_* environment
// variables over the defaults.
func FromEnv() *Config {
	cfg := Default()
	if v := os.Getenv("QBENCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QBENCH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("QBENCH_QUERIES"); v != "" {
		cfg.QueriesPath = v
	}
	if v := os.Getenv("QBENCH_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QBENCH_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("QBENCH_REPETITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Repetitions = n
		}
	}
	if v := os.Getenv("QBENCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("QBENCH_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tolerance = f
		}
	}
	if v := os.Getenv("QBENCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Repetitions < 1 {
		return fmt.Errorf("repetitions must be at least 1, got %d", c.Repetitions)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", c.Tolerance)
	}
	if c.IndexCardinalityCeiling < 1 {
		return fmt.Errorf("index cardinality ceiling must be positive, got %d", c.IndexCardinalityCeiling)
	}
	return nil
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs the default slog handler at the configured level.
func (c *Config) SetupLogging() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}
