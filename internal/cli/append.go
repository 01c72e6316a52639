package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/testbench/internal/store"
	"github.com/roach88/testbench/internal/tx"
)

var errEmptyKindFlag = errors.New("--kind must not be empty")

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	Log  string
	Kind string
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append --log <log> --kind <kind> [param...]",
		Short: "Append one transaction to a log",
		Long: `Append a transaction to a log, creating the log if needed.

Backends written as scripts use this to record each protocol operation
they perform, in the order they perform it.

Example:
  testbench append --log testbench/equivalence/sh/scoreboard.redb --kind filter scoreboard/resource.ron`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Log, "log", "", "log to append to (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "transaction kind (required)")
	_ = cmd.MarkFlagRequired("log")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runAppend(opts *AppendOptions, params []string, cmd *cobra.Command) error {
	if opts.Kind == "" {
		err := errEmptyKindFlag
		if opts.Format == "json" {
			_ = opts.formatter(cmd).Error(ErrCodeInvalidUsage, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "invalid usage", err)
	}
	t := tx.New(opts.Kind, params...)

	l, err := store.Create(opts.Log)
	if err != nil {
		return opts.fail(cmd, "failed to open log", err, nil)
	}

	appendErr := l.Append(cmd.Context(), t)
	closeErr := l.Close()
	if appendErr != nil {
		return opts.fail(cmd, "failed to append", appendErr, nil)
	}
	if closeErr != nil {
		return opts.fail(cmd, "failed to close log", closeErr, nil)
	}
	opts.logger().Debug("appended transaction", "log", opts.Log, "tx", t.String())

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]any{"log": opts.Log, "tx": t})
	}
	return nil
}
