package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "") // registers restore
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"TESTBENCH_LOG_LEVEL", "TESTBENCH_QUIET", "TESTBENCH_STRICT_LENGTH", "TESTBENCH_RUN_ID_ENV", "TESTBENCH_EXPORT_RUN_ID"} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.StrictLength)
	assert.Equal(t, "TESTBENCH_RUN_ID", cfg.RunIDEnv)
	assert.True(t, cfg.ExportRunID)
	assert.Equal(t, "TESTBENCH_RUN_ID", cfg.RunIDVar())
}

func TestLoad_EmptyRunIDEnvUsesDefaultName(t *testing.T) {
	t.Setenv("TESTBENCH_RUN_ID_ENV", "")
	unsetEnv(t, "TESTBENCH_EXPORT_RUN_ID")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRunIDEnv, cfg.RunIDVar())
}

func TestLoad_ExportRunIDDisabled(t *testing.T) {
	t.Setenv("TESTBENCH_RUN_ID_ENV", "SCOREBOARD_RUN")
	t.Setenv("TESTBENCH_EXPORT_RUN_ID", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.ExportRunID)
	assert.Empty(t, cfg.RunIDVar())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TESTBENCH_LOG_LEVEL", "debug")
	t.Setenv("TESTBENCH_QUIET", "true")
	t.Setenv("TESTBENCH_STRICT_LENGTH", "true")
	t.Setenv("TESTBENCH_RUN_ID_ENV", "SCOREBOARD_RUN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.StrictLength)
	assert.Equal(t, "SCOREBOARD_RUN", cfg.RunIDEnv)
	assert.Equal(t, "SCOREBOARD_RUN", cfg.RunIDVar())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("TESTBENCH_QUIET", "sometimes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Setenv("TESTBENCH_LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TESTBENCH_LOG_LEVEL")
}
