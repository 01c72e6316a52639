// Package config loads testbench settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-controlled defaults. Command-line flags override them.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"TESTBENCH_LOG_LEVEL" envDefault:"info"`

	// Quiet suppresses per-transaction Same/Diff output.
	Quiet bool `env:"TESTBENCH_QUIET" envDefault:"false"`

	// StrictLength reports logs of different lengths as mismatches.
	StrictLength bool `env:"TESTBENCH_STRICT_LENGTH" envDefault:"false"`

	// RunIDEnv names the environment variable that carries the workflow
	// run ID into spawned backend processes. Empty means the default name.
	RunIDEnv string `env:"TESTBENCH_RUN_ID_ENV" envDefault:"TESTBENCH_RUN_ID"`

	// ExportRunID controls whether spawned processes see the run ID at all.
	ExportRunID bool `env:"TESTBENCH_EXPORT_RUN_ID" envDefault:"true"`
}

// DefaultRunIDEnv is the variable name used when TESTBENCH_RUN_ID_ENV is
// unset or empty.
const DefaultRunIDEnv = "TESTBENCH_RUN_ID"

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level converts LogLevel to a slog.Level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid TESTBENCH_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// RunIDVar returns the variable name the run ID is exported under, or ""
// when export is disabled.
func (c Config) RunIDVar() string {
	if !c.ExportRunID {
		return ""
	}
	if c.RunIDEnv == "" {
		return DefaultRunIDEnv
	}
	return c.RunIDEnv
}
