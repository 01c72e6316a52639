// Package store provides durable, append-only transaction logs.
//
// One log is written by exactly one backend process during one execution.
// After that process exits, the harness opens the log read-only and walks
// it in key order.
//
// # Ordering
//
// Every record is keyed by a nanosecond timestamp obtained from an injected
// Clock. Keys are only used for ordering and uniqueness:
//   - Appends use max(clock.Now(), lastKey+1), so keys are strictly
//     increasing even when the clock repeats or a later process reopens
//     the same log
//   - Iteration is always ORDER BY key ASC and restarts from the first
//     record on every call
//
// # Backends
//
// The backend is chosen from the log identifier:
//   - "*.pebble": a Pebble directory (8-byte big-endian keys, pebble.Sync writes)
//   - anything else: a SQLite file with a single "transactions" table
//
// NewMemory returns an in-memory log for tests.
//
// # SQLite Configuration
//
//   - journal_mode=DELETE: no -wal/-shm side files survive the writer
//   - synchronous=FULL: a committed append survives process exit and power loss
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
