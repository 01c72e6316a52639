package store

import (
	"context"
	"fmt"
	"iter"

	"github.com/roach88/testbench/internal/tx"
)

// Entries scans the log in key order.
// The scan holds a read cursor until iteration finishes or the caller stops early.
func (l *SQLiteLog) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		rows, err := l.db.QueryContext(ctx, `
			SELECT ts, tx FROM transactions
			ORDER BY ts ASC
		`)
		if err != nil {
			yield(Entry{}, fmt.Errorf("query %s: %w", l.name, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e Entry
			if err := rows.Scan(&e.Key, &e.Data); err != nil {
				yield(Entry{}, fmt.Errorf("scan %s: %w", l.name, err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(Entry{}, fmt.Errorf("iterate %s: %w", l.name, err))
		}
	}
}

// Transactions scans and decodes the log in key order.
func (l *SQLiteLog) Transactions(ctx context.Context) iter.Seq2[tx.Transaction, error] {
	return decodeEntries(l.name, l.Entries(ctx))
}
