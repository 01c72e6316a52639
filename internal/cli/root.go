package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/testbench/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Set by the root command before any subcommand runs.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the testbench CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "testbench",
		Short: "testbench - equivalence testing for backend implementations",
		Long: `Run the same command sequence against several backend implementations
and check that they record identical transaction logs.

A sequence file lists the commands to execute, the transaction logs they
write, and the accepted baseline of transactions. "record" captures a
baseline once every backend agrees; "run" checks every backend against it.

Environment:
  TESTBENCH_LOG_LEVEL      debug|info|warn|error (default info)
  TESTBENCH_QUIET          suppress per-transaction output
  TESTBENCH_STRICT_LENGTH  treat differing log lengths as a mismatch
  TESTBENCH_RUN_ID_ENV     variable that carries the run ID to commands
  TESTBENCH_EXPORT_RUN_ID  set to false to not pass the run ID at all`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewAppendCommand(opts))

	return cmd
}

// setup validates global flags, loads the environment configuration and
// builds the logger. Diagnostics go to stderr so JSON output stays clean.
func (o *RootOptions) setup(stderr io.Writer) error {
	if !isValidFormat(o.Format) {
		return WrapExitError(ExitCommandError, "invalid usage",
			fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg

	level, err := cfg.Level()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return nil
}

// logger returns the configured logger, or a discard logger when the
// command runs without the root command.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// fail reports err in the configured format and returns it as an
// ExitError. Text output relies on the caller printing the error.
func (o *RootOptions) fail(cmd *cobra.Command, message string, err error, details interface{}) error {
	return o.failWith(o.formatter(cmd), message, err, details)
}

func (o *RootOptions) failWith(f *OutputFormatter, message string, err error, details interface{}) error {
	exitCode, errCode := classify(err)
	if o.Format == "json" {
		_ = f.Error(errCode, fmt.Sprintf("%s: %v", message, err), details)
	}
	return WrapExitError(exitCode, message, err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
