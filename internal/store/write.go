package store

import (
	"context"
	"fmt"

	"github.com/roach88/testbench/internal/tx"
)

// Append inserts one transaction in its own SQL transaction.
// A crash before commit leaves no partial record.
func (l *SQLiteLog) Append(ctx context.Context, t tx.Transaction) error {
	if l.readOnly {
		return fmt.Errorf("append to %s: %w", l.name, ErrReadOnly)
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

	sqlTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append to %s: begin tx: %w", l.name, err)
	}
	defer sqlTx.Rollback() // No-op if committed

	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO transactions (ts, tx) VALUES (?, ?)
	`, key, data); err != nil {
		return fmt.Errorf("append to %s: insert: %w", l.name, err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("append to %s: commit: %w", l.name, err)
	}

	l.lastKey = key
	return nil
}
