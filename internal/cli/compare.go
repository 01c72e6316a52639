package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/testbench/internal/crosscheck"
	"github.com/roach88/testbench/internal/store"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Quiet        bool
	StrictLength bool
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <log-a> <log-b>",
		Short: "Cross-check two transaction logs",
		Long: `Compare two existing transaction logs position by position without
running any command. Identifiers ending in .pebble are Pebble logs;
anything else is a SQLite log.

Exit codes:
  0 - Logs match
  1 - Mismatch detected
  2 - Command error (missing or corrupt log)

Example:
  testbench compare testbench/equivalence/tarpc/scoreboard.redb testbench/equivalence/grpc/scoreboard.redb`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress per-transaction output (env TESTBENCH_QUIET)")
	cmd.Flags().BoolVar(&opts.StrictLength, "strict-length", false, "treat logs of different lengths as a mismatch (env TESTBENCH_STRICT_LENGTH)")

	return cmd
}

func runCompare(opts *CompareOptions, leftID, rightID string, cmd *cobra.Command) error {
	left, err := store.OpenReadOnly(leftID)
	if err != nil {
		return opts.fail(cmd, "failed to open log", err, nil)
	}
	defer left.Close()

	right := left
	if rightID != leftID {
		right, err = store.OpenReadOnly(rightID)
		if err != nil {
			return opts.fail(cmd, "failed to open log", err, nil)
		}
		defer right.Close()
	}

	quiet := opts.Config.Quiet
	if cmd.Flags().Changed("quiet") {
		quiet = opts.Quiet
	}
	strict := opts.Config.StrictLength
	if cmd.Flags().Changed("strict-length") {
		strict = opts.StrictLength
	}

	// Pair lines are the text response; JSON carries the report instead
	var out io.Writer = cmd.OutOrStdout()
	if opts.Format == "json" {
		out = io.Discard
	}

	report, err := crosscheck.Compare(cmd.Context(), left, right, crosscheck.Options{
		Quiet:  quiet,
		Strict: strict,
		Out:    out,
		Logger: opts.logger(),
	})
	if err != nil {
		var details interface{}
		if report != nil {
			details = report
		}
		return opts.fail(cmd, "compare failed", err, details)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(report)
	}
	return nil
}
