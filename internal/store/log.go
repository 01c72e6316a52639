package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/testbench/internal/tx"
)

var (
	// ErrNotFound is returned when a log opened for reading does not exist.
	ErrNotFound = errors.New("transaction log not found")

	// ErrReadOnly is returned by Append on a log opened with OpenReadOnly.
	ErrReadOnly = errors.New("transaction log is read-only")

	// ErrClosed is returned when a closed log is used.
	ErrClosed = errors.New("transaction log is closed")
)

// PebbleSuffix marks log identifiers that are stored as Pebble directories.
const PebbleSuffix = ".pebble"

// Log is an append-only, key-ordered sequence of transactions.
type Log interface {
	// Name returns the identifier the log was opened with.
	Name() string

	// Append atomically persists one transaction under a fresh key.
	// The record is either fully committed or absent.
	Append(ctx context.Context, t tx.Transaction) error

	// Entries returns the raw records in key order.
	// Each call starts a fresh scan from the first record.
	Entries(ctx context.Context) iter.Seq2[Entry, error]

	// Transactions returns the decoded records in key order.
	// Each call starts a fresh scan from the first record.
	Transactions(ctx context.Context) iter.Seq2[tx.Transaction, error]

	// Close releases the underlying storage.
	Close() error
}

// Entry is one stored record: the ordering key and the serialized transaction.
type Entry struct {
	Key  int64  `json:"key"`
	Data string `json:"data"`
}

// Decode parses the entry's serialized transaction.
func (e Entry) Decode() (tx.Transaction, error) {
	return tx.Unmarshal(e.Data)
}

// Option configures how a log is opened.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock used to key appends. Defaults to a WallClock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = NewWallClock()
	}
	return o
}

// Create opens the log for appending, creating it if needed.
func Create(id string, opts ...Option) (Log, error) {
	o := buildOptions(opts)
	if isPebble(id) {
		return openPebble(id, o, false)
	}
	return openSQLite(id, o, false)
}

// OpenReadOnly opens an existing log for inspection.
// Returns an error wrapping ErrNotFound if the log does not exist, and a
// descriptive error if it is not a valid transaction log.
func OpenReadOnly(id string, opts ...Option) (Log, error) {
	exists, err := Exists(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
	}

	o := buildOptions(opts)
	if isPebble(id) {
		return openPebble(id, o, true)
	}
	return openSQLite(id, o, true)
}

// Exists reports whether a log exists at id.
func Exists(id string) (bool, error) {
	_, err := os.Stat(id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", id, err)
}

// Remove deletes the log at id along with any side files.
// Removing a log that does not exist is a no-op.
func Remove(id string) error {
	if isPebble(id) {
		return removePebble(id)
	}
	return removeSQLite(id)
}

func isPebble(id string) bool {
	return strings.HasSuffix(filepath.Clean(id), PebbleSuffix)
}

// decodeEntries turns a raw entry scan into a transaction scan.
// Decode failures name the log and the record key.
func decodeEntries(name string, entries iter.Seq2[Entry, error]) iter.Seq2[tx.Transaction, error] {
	return func(yield func(tx.Transaction, error) bool) {
		for e, err := range entries {
			if err != nil {
				yield(tx.Transaction{}, err)
				return
			}
			t, err := DecodeEntry(name, e)
			if err != nil {
				yield(tx.Transaction{}, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

// DecodeEntry decodes one entry of the named log. Failures name the log
// and the record key.
func DecodeEntry(name string, e Entry) (tx.Transaction, error) {
	t, err := e.Decode()
	if err != nil {
		return tx.Transaction{}, fmt.Errorf("%s: record %d: %w", name, e.Key, err)
	}
	return t, nil
}

// ReadAll returns every transaction in the log in key order.
// Returns an empty slice (not nil) for an empty log.
func ReadAll(ctx context.Context, l Log) ([]tx.Transaction, error) {
	txs := []tx.Transaction{}
	for t, err := range l.Transactions(ctx) {
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}
