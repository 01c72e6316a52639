package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/testbench/internal/crosscheck"
	"github.com/roach88/testbench/internal/store"
	"github.com/roach88/testbench/internal/tx"
)

// DefaultRunIDEnv is the environment variable that carries the run ID to
// child processes.
const DefaultRunIDEnv = "TESTBENCH_RUN_ID"

// RunIDGenerator produces the identifier of one workflow run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
type UUIDv7Generator struct{}

// Generate implements RunIDGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Runner executes sequences.
type Runner struct {
	executor  Executor
	logger    *slog.Logger
	out       io.Writer
	quiet     bool
	strict    bool
	runIDs    RunIDGenerator
	runIDEnv  string
	storeOpts []store.Option
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor sets how commands are executed.
// Default: a ProcessExecutor that discards child output.
func WithExecutor(e Executor) Option {
	return func(r *Runner) { r.executor = e }
}

// WithLogger sets the logger for phase and mismatch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithOutput sets where per-pair comparison lines are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithQuiet suppresses per-pair output. Mismatch diagnostics are still
// logged.
func WithQuiet(quiet bool) Option {
	return func(r *Runner) { r.quiet = quiet }
}

// WithStrict makes a length difference between compared sides a mismatch.
func WithStrict(strict bool) Option {
	return func(r *Runner) { r.strict = strict }
}

// WithRunIDGenerator sets the run ID source. Tests use a fixed generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) { r.runIDs = g }
}

// WithRunIDEnv sets the environment variable the run ID is exported as.
// An empty name disables the export.
func WithRunIDEnv(name string) Option {
	return func(r *Runner) { r.runIDEnv = name }
}

// WithStoreOptions passes options to every log the runner opens.
func WithStoreOptions(opts ...store.Option) Option {
	return func(r *Runner) { r.storeOpts = append(r.storeOpts, opts...) }
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		executor: &ProcessExecutor{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:      io.Discard,
		runIDs:   UUIDv7Generator{},
		runIDEnv: DefaultRunIDEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks every log against the sequence baseline.
//
// Every log is compared before failing; mismatches are joined into the
// returned error and each one is a *crosscheck.MismatchError.
func (r *Runner) Run(ctx context.Context, seq *Sequence) (*Result, error) {
	res := NewResult(WorkflowRun, r.runIDs.Generate())
	logger := r.logger.With("run_id", res.RunID, "workflow", res.Workflow)

	if err := r.prepare(ctx, logger, seq, res); err != nil {
		return res, err
	}

	logger.Info("phase", "name", "verify", "logs", len(seq.TxStores), "expected", len(seq.ExpectedTxs))
	var mismatches []error
	for _, id := range seq.TxStores {
		err := r.withLog(id, func(l store.Log) error {
			report, err := crosscheck.CompareWithSlice(ctx, l, seq.ExpectedTxs, r.crosscheckOptions(logger))
			return r.collect(logger, res, report, err, &mismatches)
		})
		if err != nil {
			return res, err
		}
	}

	if len(mismatches) > 0 {
		logger.Error("verification failed", "mismatched_logs", len(mismatches))
		return res, errors.Join(mismatches...)
	}
	logger.Info("verification passed", "logs", len(seq.TxStores))
	return res, nil
}

// Record captures a new baseline into seq.ExpectedTxs.
//
// Adjacent logs are cross-checked first; if any pair disagrees the error
// joins every mismatch and seq is left unchanged. With no logs configured
// the captured baseline is empty.
func (r *Runner) Record(ctx context.Context, seq *Sequence) (*Result, error) {
	res := NewResult(WorkflowRecord, r.runIDs.Generate())
	logger := r.logger.With("run_id", res.RunID, "workflow", res.Workflow)

	if err := r.prepare(ctx, logger, seq, res); err != nil {
		return res, err
	}

	logger.Info("phase", "name", "mutual-crosscheck", "pairs", max(len(seq.TxStores)-1, 0))
	var mismatches []error
	for i := 1; i < len(seq.TxStores); i++ {
		err := r.withLogPair(seq.TxStores[i-1], seq.TxStores[i], func(a, b store.Log) error {
			report, err := crosscheck.Compare(ctx, a, b, r.crosscheckOptions(logger))
			return r.collect(logger, res, report, err, &mismatches)
		})
		if err != nil {
			return res, err
		}
	}
	if len(mismatches) > 0 {
		logger.Error("backends disagree, baseline not captured", "mismatched_pairs", len(mismatches))
		return res, errors.Join(mismatches...)
	}

	logger.Info("phase", "name", "capture-baseline")
	baseline := []tx.Transaction{}
	if len(seq.TxStores) > 0 {
		err := r.withLog(seq.TxStores[0], func(l store.Log) error {
			txs, err := store.ReadAll(ctx, l)
			if err != nil {
				return err
			}
			baseline = txs
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	seq.ExpectedTxs = baseline
	res.Captured = len(baseline)
	logger.Info("baseline captured", "transactions", len(baseline))
	return res, nil
}

// prepare runs the phases both workflows share: cleanup then execute.
func (r *Runner) prepare(ctx context.Context, logger *slog.Logger, seq *Sequence, res *Result) error {
	if seq == nil {
		return fmt.Errorf("%w: nil sequence", ErrInvalidSequence)
	}
	for i, cmd := range seq.Commands {
		if len(cmd) == 0 || cmd[0] == "" {
			return fmt.Errorf("%w: command %d is empty", ErrInvalidSequence, i)
		}
	}

	logger.Info("phase", "name", "cleanup", "logs", len(seq.TxStores))
	if err := r.cleanup(logger, seq, res); err != nil {
		return err
	}

	logger.Info("phase", "name", "execute", "commands", len(seq.Commands))
	return r.execute(ctx, logger, seq, res)
}

func (r *Runner) cleanup(logger *slog.Logger, seq *Sequence, res *Result) error {
	for _, id := range seq.TxStores {
		existed, err := store.Exists(id)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		if !existed {
			logger.Debug("log absent, nothing to remove", "log", id)
			continue
		}
		if err := store.Remove(id); err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		res.Removed = append(res.Removed, id)
		logger.Debug("removed log", "log", id)
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, seq *Sequence, res *Result) error {
	var env []string
	if r.runIDEnv != "" {
		env = []string{r.runIDEnv + "=" + res.RunID}
	}

	for i, cmd := range seq.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		code, err := r.executor.Execute(ctx, cmd, env)
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i, strings.Join(cmd, " "), err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		elapsed := time.Since(start)
		res.Commands = append(res.Commands, CommandResult{
			Argv:       append([]string{}, cmd...),
			ExitCode:   code,
			DurationMS: elapsed.Milliseconds(),
		})

		attrs := []any{"index", i, "argv", strings.Join(cmd, " "), "exit_code", code, "duration", elapsed}
		if code != 0 {
			logger.Warn("command exited non-zero", attrs...)
		} else {
			logger.Info("command finished", attrs...)
		}
	}
	return nil
}

// withLog opens a log read-only for the duration of fn.
func (r *Runner) withLog(id string, fn func(store.Log) error) error {
	l, err := store.OpenReadOnly(id, r.storeOpts...)
	if err != nil {
		return err
	}
	fnErr := fn(l)
	if err := l.Close(); err != nil && fnErr == nil {
		return fmt.Errorf("close %s: %w", id, err)
	}
	return fnErr
}

// withLogPair opens two logs for the duration of fn. A log listed twice
// is opened once; Pebble holds a directory lock per open handle.
func (r *Runner) withLogPair(a, b string, fn func(a, b store.Log) error) error {
	return r.withLog(a, func(la store.Log) error {
		if a == b {
			return fn(la, la)
		}
		return r.withLog(b, func(lb store.Log) error {
			return fn(la, lb)
		})
	})
}

// collect records a cross-check outcome. Mismatches are accumulated;
// any other error is returned.
// Every differing pair is logged regardless of quiet.
func (r *Runner) collect(logger *slog.Logger, res *Result, report *crosscheck.Report, err error, mismatches *[]error) error {
	if report != nil {
		res.Reports = append(res.Reports, report)
	}
	var mismatch *crosscheck.MismatchError
	if !errors.As(err, &mismatch) {
		return err
	}
	for _, p := range mismatch.Report.Mismatches() {
		logger.Error("transaction mismatch",
			"left", mismatch.Report.Left,
			"right", mismatch.Report.Right,
			"index", p.Index,
			"left_tx", p.Left.String(),
			"right_tx", p.Right.String(),
		)
	}
	*mismatches = append(*mismatches, err)
	return nil
}

func (r *Runner) crosscheckOptions(logger *slog.Logger) crosscheck.Options {
	return crosscheck.Options{
		Quiet:  r.quiet,
		Strict: r.strict,
		Out:    r.out,
		Logger: logger,
	}
}
