package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/testbench/internal/harness"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Sequence string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a blank sequence file",
		Long: `Write an empty sequence file with no commands, no transaction logs
and an empty baseline. An existing file at the path is replaced.

Example:
  testbench init --sequence testbench/equivalence.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Sequence, "sequence", "s", "", "path to the sequence file (required)")
	_ = cmd.MarkFlagRequired("sequence")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	if err := harness.NewSequence().Save(opts.Sequence); err != nil {
		if opts.Format == "json" {
			_ = opts.formatter(cmd).Error(ErrCodeWriteFailed, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "failed to create sequence file", err)
	}
	opts.logger().Debug("created sequence file", "path", opts.Sequence)

	f := opts.formatter(cmd)
	if opts.Format == "json" {
		return f.Success(map[string]string{"sequence": opts.Sequence})
	}
	return f.Success(fmt.Sprintf("Created sequence file: %s", opts.Sequence))
}
