package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/testbench/internal/store"
	"github.com/roach88/testbench/internal/tx"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Keys bool
}

// DumpEntry is one transaction in dump output.
type DumpEntry struct {
	Key         int64          `json:"key,omitempty"`
	Transaction tx.Transaction `json:"tx"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <log>",
		Short: "Print the transactions in a log",
		Long: `Print every transaction in a log in key order.

Examples:
  testbench dump testbench/equivalence/tarpc/scoreboard.redb
  testbench dump scoreboard.pebble --keys --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Keys, "keys", false, "include the storage key of each transaction")

	return cmd
}

func runDump(opts *DumpOptions, id string, cmd *cobra.Command) error {
	l, err := store.OpenReadOnly(id)
	if err != nil {
		return opts.fail(cmd, "failed to open log", err, nil)
	}
	defer l.Close()

	entries := []DumpEntry{}
	for e, err := range l.Entries(cmd.Context()) {
		if err != nil {
			return opts.fail(cmd, "failed to read log", err, nil)
		}
		t, err := e.Decode()
		if err != nil {
			return opts.fail(cmd, "failed to read log",
				fmt.Errorf("%s: record %d: %w", id, len(entries), err), nil)
		}
		entry := DumpEntry{Transaction: t}
		if opts.Keys {
			entry.Key = e.Key
		}
		entries = append(entries, entry)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(entries)
	}

	w := cmd.OutOrStdout()
	for i, e := range entries {
		if opts.Keys {
			fmt.Fprintf(w, "#%d [%d] %s\n", i, e.Key, e.Transaction)
			continue
		}
		fmt.Fprintf(w, "#%d %s\n", i, e.Transaction)
	}
	return nil
}
