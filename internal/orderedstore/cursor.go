package orderedstore

import (
	"database/sql"
	"fmt"
)

// signBit flips the top bit of a uint64 hash before it's stored in the
// schedule table's signed INTEGER column, and again on the way out.
// sqlite's INTEGER is a signed two's-complement i64; storing a uint64
// via a plain conversion reinterprets any hash with the top bit set
// (about half of all xxhash.Sum64 outputs) as negative, which sorts
// before small positive hashes under ORDER BY hash ASC and breaks the
// ascending-hash tie-break spec §3 and ScheduleKey.Less (key.go) both
// define. XOR-ing the top bit is a monotonic bijection from uint64
// order onto int64 order, so the raw SQL ORDER BY keeps matching
// ScheduleKey.Less without either side needing to know about the other.
const signBit = uint64(1) << 63

func encodeHash(h uint64) int64 { return int64(h ^ signBit) }
func decodeHash(h int64) uint64 { return uint64(h) ^ signBit }

// Entry is a single (key, value) pair in the schedule table: the
// ScheduleKey of spec §3 plus its freq. Cursor.First always copies into
// a fresh Entry by value — never a pointer into driver-owned memory —
// so callers are free to mutate the cursor afterward (spec §9's
// "cursor-invalidation subtlety").
type Entry struct {
	Score float32
	Hash  uint64
	Freq  float32
}

// Cursor is a single read-write transaction plus cursor-style access to
// the schedule table. Exactly one of Commit or Abort must be called.
// Abort is safe to call on an already-finished cursor (idempotent
// cleanup on the error path, per spec §4.1).
type Cursor struct {
	tx   *sql.Tx
	done bool
}

// First reads the entry with the smallest (score, hash), the head of
// the schedule (spec Invariant 4). Returns ok=false if the table is
// empty.
func (c *Cursor) First() (Entry, bool, error) {
	var e Entry
	row := c.tx.QueryRow(`SELECT score, hash, freq FROM schedule ORDER BY score ASC, hash ASC LIMIT 1`)

	var hash int64
	if err := row.Scan(&e.Score, &hash, &e.Freq); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("orderedstore: cursor first: %w", err)
	}
	e.Hash = decodeHash(hash)
	return e, true, nil
}

// Put inserts or replaces the entry at (score, hash).
func (c *Cursor) Put(e Entry) error {
	_, err := c.tx.Exec(
		`INSERT INTO schedule (score, hash, freq) VALUES (?, ?, ?)
		 ON CONFLICT(score, hash) DO UPDATE SET freq = excluded.freq`,
		e.Score, encodeHash(e.Hash), e.Freq,
	)
	if err != nil {
		return fmt.Errorf("orderedstore: cursor put: %w", err)
	}
	return nil
}

// Delete removes the entry at (score, hash).
func (c *Cursor) Delete(score float32, hash uint64) error {
	_, err := c.tx.Exec(`DELETE FROM schedule WHERE score = ? AND hash = ?`, score, encodeHash(hash))
	if err != nil {
		return fmt.Errorf("orderedstore: cursor delete: %w", err)
	}
	return nil
}

// All iterates the full schedule in ascending (score, hash) order,
// calling fn for each entry. Used by the scheduler's Dump (spec §4.6),
// Entries, QueueDepth and Export. The transaction is
// read-only from All's perspective; callers still owe a Commit/Abort.
func (c *Cursor) All(fn func(Entry) error) error {
	rows, err := c.tx.Query(`SELECT score, hash, freq FROM schedule ORDER BY score ASC, hash ASC`)
	if err != nil {
		return fmt.Errorf("orderedstore: cursor scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var hash int64
		if err := rows.Scan(&e.Score, &hash, &e.Freq); err != nil {
			return fmt.Errorf("orderedstore: cursor scan row: %w", err)
		}
		e.Hash = decodeHash(hash)
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Commit commits the underlying transaction. On failure it aborts and
// returns the error, matching spec §4.1: "on failure it aborts and
// records an error."
func (c *Cursor) Commit() error {
	if c.done {
		return nil
	}
	c.done = true
	if err := c.tx.Commit(); err != nil {
		c.tx.Rollback()
		return fmt.Errorf("orderedstore: commit: %w", err)
	}
	return nil
}

// Abort aborts the transaction unconditionally. Safe to call more than
// once or on an already-committed cursor.
func (c *Cursor) Abort() {
	if c.done {
		return
	}
	c.done = true
	c.tx.Rollback()
}
