// Package orderedstore provides a transactional, ordered key/value table
// on top of sqlite, standing in for the embedded "Ordered Store" library
// described in spec §6: a single writer, cursor-style iteration, and a
// comparator-defined total order over a composite key.
//
// Where the original contract binds a comparator to the transaction and
// demands re-registration on every txn (spec §9 "Custom comparator
// scope"), this implementation gets the same effect for free: ordering
// is expressed once, declaratively, as the table's primary key
// (score, hash) and enforced by every query via ORDER BY — there is no
// comparator to forget to re-register.
package orderedstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Environment owns the sqlite connection backing one schedule. The
// schedule is a single sqlite database file at the given path (plus the
// -wal/-shm files sqlite keeps beside it), not a directory. Only one
// Environment should be open against a given path at a time (spec §5).
type Environment struct {
	db   *sql.DB
	path string
}

// Open creates (if absent) and opens the ordered store at path. Flags
// mirror spec §6's "no thread-local storage, no fsync": a single writer
// connection, WAL journaling, and synchronous=OFF, trading durability
// of the last transaction for throughput, exactly as spec §5 specifies.
func Open(path string) (*Environment, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=OFF&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("orderedstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("orderedstore: ping %s: %w", path, err)
	}

	// sqlite only supports one writer; model that as a single connection
	// so the Go driver serializes writers the way spec §5 requires.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	env := &Environment{db: db, path: path}
	if err := env.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return env, nil
}

func (e *Environment) ensureTable() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS schedule (
		score REAL NOT NULL,
		hash  INTEGER NOT NULL,
		freq  REAL NOT NULL,
		PRIMARY KEY (score, hash)
	);`
	if _, err := e.db.Exec(ddl); err != nil {
		return fmt.Errorf("orderedstore: create schedule table: %w", err)
	}
	return nil
}

// Expand is the analogue of the contract's set_mapsize/txn_manager_expand
// sizing hint ahead of a bulk load (spec §4.3). Sqlite auto-grows its
// file, so this is a no-op kept only so callers can express the same
// "ensure capacity" step the contract names; retained per spec §9's
// note that the 2x sizing heuristic is "not proven tight" and should be
// carried as-is rather than second-guessed.
func (e *Environment) Expand(nElements, elementSize int) error {
	_ = nElements
	_ = elementSize
	return nil
}

// Close closes the underlying connection. It does not remove the
// database file or its sidecars; scheduler.Delete removes them after
// calling Close.
func (e *Environment) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("orderedstore: close: %w", err)
	}
	return nil
}

// Path returns the database file path this environment was opened against.
func (e *Environment) Path() string { return e.path }

// CursorOpen begins a read-write transaction and returns a Cursor
// positioned before the first row, matching spec §4.1: "begins a
// read-write transaction, opens the schedule table, positions a cursor."
func (e *Environment) CursorOpen() (*Cursor, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("orderedstore: begin txn: %w", err)
	}
	return &Cursor{tx: tx}, nil
}
