package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/roach88/testbench/internal/tx"
)

// PebbleLog is a transaction log stored in a Pebble directory.
// Keys are the 8-byte big-endian encoding of the record key, so Pebble's
// bytewise ordering equals key order.
type PebbleLog struct {
	name     string
	db       *pebble.DB
	clock    Clock
	readOnly bool

	mu      sync.Mutex
	lastKey int64
	closed  bool
}

func openPebble(dir string, o options, readOnly bool) (*PebbleLog, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		ReadOnly:         readOnly,
		ErrorIfNotExists: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}

	l := &PebbleLog{
		name:     dir,
		db:       db,
		clock:    o.clock,
		readOnly: readOnly,
	}

	last, err := l.readLastKey()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	l.lastKey = last

	return l, nil
}

func (l *PebbleLog) readLastKey() (int64, error) {
	it, err := l.db.NewIter(nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	if !it.Last() {
		return 0, it.Error()
	}
	return decodeKey(it.Key())
}

// Name returns the directory of the log.
func (l *PebbleLog) Name() string {
	return l.name
}

// Append writes one record with pebble.Sync.
func (l *PebbleLog) Append(ctx context.Context, t tx.Transaction) error {
	if l.readOnly {
		return fmt.Errorf("append to %s: %w", l.name, ErrReadOnly)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("append to %s: %w", l.name, err)
	}

	data, err := tx.Marshal(t)
	if err != nil {
		return fmt.Errorf("append to %s: %w", l.name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("append to %s: %w", l.name, ErrClosed)
	}

	key := nextKey(l.clock, l.lastKey)
	if err := l.db.Set(encodeKey(key), []byte(data), pebble.Sync); err != nil {
		return fmt.Errorf("append to %s: %w", l.name, err)
	}
	l.lastKey = key
	return nil
}

// Entries scans the log in key order.
func (l *PebbleLog) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		it, err := l.db.NewIter(nil)
		if err != nil {
			yield(Entry{}, fmt.Errorf("iterate %s: %w", l.name, err))
			return
		}
		defer it.Close()

		for it.First(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, fmt.Errorf("iterate %s: %w", l.name, err))
				return
			}

			key, err := decodeKey(it.Key())
			if err != nil {
				yield(Entry{}, fmt.Errorf("iterate %s: %w", l.name, err))
				return
			}

			// Value is only valid until the iterator moves
			e := Entry{Key: key, Data: string(it.Value())}
			if !yield(e, nil) {
				return
			}
		}

		if err := it.Error(); err != nil {
			yield(Entry{}, fmt.Errorf("iterate %s: %w", l.name, err))
		}
	}
}

// Transactions scans and decodes the log in key order.
func (l *PebbleLog) Transactions(ctx context.Context) iter.Seq2[tx.Transaction, error] {
	return decodeEntries(l.name, l.Entries(ctx))
}

// Close flushes and closes the Pebble database.
func (l *PebbleLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

func encodeKey(key int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(key))
	return b
}

func decodeKey(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid record key length %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// removePebble deletes a Pebble log directory.
// Refuses to delete a directory that does not look like a Pebble store.
func removePebble(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("remove %s: not a pebble directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	if len(entries) > 0 {
		if _, err := os.Stat(filepath.Join(dir, "CURRENT")); err != nil {
			return fmt.Errorf("remove %s: not a pebble directory (no CURRENT file)", dir)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}
