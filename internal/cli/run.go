package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/testbench/internal/harness"
)

// SequenceOptions holds flags shared by the run and record commands.
type SequenceOptions struct {
	*RootOptions
	Sequence     string
	Quiet        bool
	StrictLength bool

	// Executor overrides how commands are executed (for testing).
	// If nil, commands run as child processes.
	Executor harness.Executor

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to harness.UUIDv7Generator.
	RunIDs harness.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SequenceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sequence and verify its transactions",
		Long: `Delete the configured transaction logs, execute every command in
order, then compare each log with the sequence baseline.

Every log is checked before the command fails, so one invocation shows
every divergence. Logs longer than the baseline pass unless
--strict-length is set.

Exit codes:
  0 - Every log matches the baseline
  1 - Mismatch detected
  2 - Command error (missing files, invalid sequence, spawn failure)

Examples:
  testbench run --sequence testbench/equivalence.yaml
  testbench run -s testbench/equivalence.yaml --quiet --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSequence(opts, cmd, harness.WorkflowRun)
		},
	}
	addSequenceFlags(cmd, opts)

	return cmd
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SequenceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Run a sequence and save its transactions as the new baseline",
		Long: `Delete the configured transaction logs, execute every command in
order, check that each adjacent pair of logs agrees, then write the
transactions of the first log back to the sequence file.

If any pair of backends disagrees the sequence file is left untouched.

Exit codes:
  0 - Baseline captured
  1 - Backends disagree
  2 - Command error (missing files, invalid sequence, spawn failure)

Example:
  testbench record --sequence testbench/equivalence.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSequence(opts, cmd, harness.WorkflowRecord)
		},
	}
	addSequenceFlags(cmd, opts)

	return cmd
}

func addSequenceFlags(cmd *cobra.Command, opts *SequenceOptions) {
	cmd.Flags().StringVarP(&opts.Sequence, "sequence", "s", "", "path to the sequence file (required)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress per-transaction output (env TESTBENCH_QUIET)")
	cmd.Flags().BoolVar(&opts.StrictLength, "strict-length", false, "treat logs of different lengths as a mismatch (env TESTBENCH_STRICT_LENGTH)")
	_ = cmd.MarkFlagRequired("sequence")
}

func runSequence(opts *SequenceOptions, cmd *cobra.Command, workflow string) error {
	seq, err := harness.LoadSequence(opts.Sequence)
	if err != nil {
		return opts.fail(cmd, "failed to load sequence", err, nil)
	}

	opts.formatter(cmd).VerboseLog("Loaded %s: %d commands, %d logs, %d baseline transactions",
		opts.Sequence, len(seq.Commands), len(seq.TxStores), len(seq.ExpectedTxs))

	// Interrupting the CLI kills the running command
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := opts.newRunner(cmd)
	var res *harness.Result
	if workflow == harness.WorkflowRecord {
		res, err = runner.Record(ctx, seq)
	} else {
		res, err = runner.Run(ctx, seq)
	}
	f := opts.formatter(cmd)
	if res != nil {
		f.RunID = res.RunID
	}
	if err != nil {
		if isMismatch(err) {
			return opts.failWith(f, "mismatch detected", err, res)
		}
		return opts.failWith(f, workflow+" failed", err, res)
	}

	if workflow == harness.WorkflowRecord {
		if err := seq.Save(opts.Sequence); err != nil {
			if opts.Format == "json" {
				_ = f.Error(ErrCodeWriteFailed, err.Error(), res)
			}
			return WrapExitError(ExitCommandError, "failed to save sequence", err)
		}
	}

	return outputSequenceResult(opts, f, seq, res)
}

func (o *SequenceOptions) newRunner(cmd *cobra.Command) *harness.Runner {
	quiet := o.Config.Quiet
	if cmd.Flags().Changed("quiet") {
		quiet = o.Quiet
	}
	strict := o.Config.StrictLength
	if cmd.Flags().Changed("strict-length") {
		strict = o.StrictLength
	}

	executor := o.Executor
	if executor == nil {
		// Child stdout would corrupt the JSON response
		var stdout io.Writer = cmd.OutOrStdout()
		if o.Format == "json" {
			stdout = cmd.ErrOrStderr()
		}
		executor = &harness.ProcessExecutor{Stdout: stdout, Stderr: cmd.ErrOrStderr()}
	}

	runnerOpts := []harness.Option{
		harness.WithExecutor(executor),
		harness.WithLogger(o.logger()),
		harness.WithOutput(cmd.ErrOrStderr()),
		harness.WithQuiet(quiet),
		harness.WithStrict(strict),
		harness.WithRunIDEnv(o.Config.RunIDVar()),
	}
	if o.RunIDs != nil {
		runnerOpts = append(runnerOpts, harness.WithRunIDGenerator(o.RunIDs))
	}
	return harness.NewRunner(runnerOpts...)
}

func outputSequenceResult(opts *SequenceOptions, f *OutputFormatter, seq *harness.Sequence, res *harness.Result) error {
	if opts.Format == "json" {
		return f.Success(res)
	}

	if res.Workflow == harness.WorkflowRecord {
		return f.Success(fmt.Sprintf("Recorded %d transactions into %s (run %s)",
			res.Captured, opts.Sequence, res.RunID))
	}
	return f.Success(fmt.Sprintf("All %d logs match %d baseline transactions (run %s)",
		len(seq.TxStores), len(seq.ExpectedTxs), res.RunID))
}
