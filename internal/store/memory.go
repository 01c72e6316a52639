package store

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/roach88/testbench/internal/tx"
)

// MemoryLog is an in-memory transaction log for tests.
// It stores serialized records exactly like the durable backends, so
// decode behavior is identical.
type MemoryLog struct {
	name  string
	clock Clock

	mu      sync.Mutex
	entries []Entry
	closed  bool
}

// NewMemory creates an empty in-memory log.
func NewMemory(name string, opts ...Option) *MemoryLog {
	o := buildOptions(opts)
	return &MemoryLog{name: name, clock: o.clock}
}

// Name returns the name given to NewMemory.
func (l *MemoryLog) Name() string {
	return l.name
}

// Append stores one transaction.
func (l *MemoryLog) Append(ctx context.Context, t tx.Transaction) error {
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

	var last int64
	if n := len(l.entries); n > 0 {
		last = l.entries[n-1].Key
	}
	l.entries = append(l.entries, Entry{Key: nextKey(l.clock, last), Data: data})
	return nil
}

// AppendRaw stores an already-serialized record. Used to simulate corrupt logs.
func (l *MemoryLog) AppendRaw(data string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var last int64
	if n := len(l.entries); n > 0 {
		last = l.entries[n-1].Key
	}
	l.entries = append(l.entries, Entry{Key: nextKey(l.clock, last), Data: data})
}

// Entries yields a snapshot of the records taken when iteration starts.
func (l *MemoryLog) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		l.mu.Lock()
		snapshot := make([]Entry, len(l.entries))
		copy(snapshot, l.entries)
		l.mu.Unlock()

		for _, e := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, fmt.Errorf("iterate %s: %w", l.name, err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Transactions yields decoded records in key order.
func (l *MemoryLog) Transactions(ctx context.Context) iter.Seq2[tx.Transaction, error] {
	return decodeEntries(l.name, l.Entries(ctx))
}

// Len returns the number of stored records.
func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close marks the log closed. Stored entries remain readable.
func (l *MemoryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
