package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetpham/calhacks25/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Repetitions = 0
	require.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Concurrency = 0
	require.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Tolerance = -1
	require.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.IndexCardinalityCeiling = 0
	require.Error(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("QBENCH_DATA_DIR", "/tmp/events")
	t.Setenv("QBENCH_REPETITIONS", "7")
	t.Setenv("QBENCH_TOLERANCE", "0.001")
	t.Setenv("QBENCH_LOG_LEVEL", "debug")

	cfg := config.FromEnv()
	assert.Equal(t, "/tmp/events", cfg.DataDir)
	assert.Equal(t, 7, cfg.Repetitions)
	assert.Equal(t, 0.001, cfg.Tolerance)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("QBENCH_REPETITIONS", "many")
	cfg := config.FromEnv()
	assert.Equal(t, config.Default().Repetitions, cfg.Repetitions)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := config.Default()
		cfg.LogLevel = in
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}
