package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/testbench/internal/testutil"
	"github.com/roach88/testbench/internal/tx"
)

// backendCase opens a fresh writable log of one backend kind.
type backendCase struct {
	name string
	id   func(t *testing.T) string
}

func durableBackends() []backendCase {
	return []backendCase{
		{name: "sqlite", id: func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "scoreboard.redb")
		}},
		{name: "pebble", id: func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "scoreboard"+PebbleSuffix)
		}},
	}
}

// createTestLog creates a writable log with a deterministic clock.
func createTestLog(t *testing.T, id string) Log {
	t.Helper()
	l, err := Create(id, WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// writeTestLog creates a log at id containing txs, then closes it.
func writeTestLog(t *testing.T, id string, txs ...tx.Transaction) {
	t.Helper()
	l, err := Create(id, WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	for _, txn := range txs {
		require.NoError(t, l.Append(context.Background(), txn))
	}
	require.NoError(t, l.Close())
}

// collectEntries drains a log's raw entries.
func collectEntries(t *testing.T, l Log) []Entry {
	t.Helper()
	var entries []Entry
	for e, err := range l.Entries(context.Background()) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}
