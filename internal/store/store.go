package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - transactions(ts, tx)
const currentSchemaVersion = 1

// sqliteSideFiles are the suffixes SQLite may leave next to a database file.
var sqliteSideFiles = []string{"-journal", "-wal", "-shm"}

// SQLiteLog is a transaction log stored in a single SQLite file.
type SQLiteLog struct {
	name     string
	db       *sql.DB
	clock    Clock
	readOnly bool

	mu      sync.Mutex
	lastKey int64
	closed  bool
}

// openSQLite opens (or, for writers, creates) the SQLite log at path.
//
// Writers are configured with:
//   - DELETE journal mode so no side files outlive the connection
//   - FULL synchronous mode (a committed append is durable at process exit)
//   - 5-second busy timeout for lock contention
func openSQLite(path string, o options, readOnly bool) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path, readOnly))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	if readOnly {
		if err := verifySchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	} else {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		if err := applySchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}

	l := &SQLiteLog{
		name:     path,
		db:       db,
		clock:    o.clock,
		readOnly: readOnly,
	}

	if err := db.QueryRow(`SELECT COALESCE(MAX(ts), 0) FROM transactions`).Scan(&l.lastKey); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: read last key: %w", path, err)
	}

	return l, nil
}

// sqliteDSN renders path as a SQLite URI with the path escaped, so '?',
// '#' and '%' in a file name are not read as URI syntax.
func sqliteDSN(path string, readOnly bool) string {
	mode := "rwc"
	if readOnly {
		mode = "ro"
	}
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=" + mode}
	return u.String()
}

// Name returns the file path of the log.
func (l *SQLiteLog) Name() string {
	return l.name
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = DELETE",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the transactions table if it doesn't exist.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifySchema checks that db is a transaction log.
func verifySchema(db *sql.DB) error {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'transactions'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("not a transaction log: %w", err)
	}
	if count == 0 {
		return errors.New("not a transaction log: missing transactions table")
	}
	return nil
}

// removeSQLite deletes the database file and any journal side files.
func removeSQLite(path string) error {
	for _, p := range append([]string{path}, sideFilePaths(path)...) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func sideFilePaths(path string) []string {
	paths := make([]string, len(sqliteSideFiles))
	for i, suffix := range sqliteSideFiles {
		paths[i] = path + suffix
	}
	return paths
}
