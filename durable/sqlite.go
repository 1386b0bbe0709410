package durable

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by operations called after Close has run.
var ErrClosed = errors.New("durable: store is closed")

// Store is the SQLite-backed durable tier. A single table holds every
// key, mirroring the reference schema: one row per key, a group tag
// for batch operations, and no expiry column.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists. journal_mode=DELETE keeps SQLite's
// rollback journal, so a transaction that Set rolls back leaves no
// partial write; synchronous=NORMAL favors write throughput over the
// extra crash-durability of a full sync on every commit.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("durable: create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("durable: open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = DELETE",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("durable: apply pragma %q: %w", pragma, err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		group_name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_store_group ON store (group_name);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("durable: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Set inserts or replaces the row for key, per SEM-SET. The write runs
// inside an explicit transaction so a failed INSERT never leaves a
// half-applied change, matching the reference implementation's
// BEGIN/COMMIT/ROLLBACK handling.
func (s *Store) Set(key, value, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("durable: begin transaction: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO store (key, value, group_name) VALUES (?, ?, ?);",
		key, value, group,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("durable: set %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("durable: commit set %q: %w", key, err)
	}
	return nil
}

// GetKey returns the value for key, or "" if absent.
func (s *Store) GetKey(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM store WHERE key = ?;", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("durable: get key %q: %w", key, err)
	}
	return value, nil
}

// KeyValue is a (key, value) pair returned by GetGroup.
type KeyValue struct {
	Key   string
	Value string
}

// GetGroup returns every row tagged with group.
func (s *Store) GetGroup(group string) ([]KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query("SELECT key, value FROM store WHERE group_name = ?;", group)
	if err != nil {
		return nil, fmt.Errorf("durable: get group %q: %w", group, err)
	}
	defer rows.Close()

	out := make([]KeyValue, 0)
	for rows.Next() {
		var kv KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("durable: scan group row: %w", err)
		}
		out = append(out, kv)
	}
	return out, rows.Err()
}

// ListEntry is a (key, value, group) triple returned by List.
type ListEntry struct {
	Key   string
	Value string
	Group string
}

// List returns every row in the store. The reference DiskHandler
// never implemented this operation even though the event protocol it
// shares with RamHandler defines one; this fills that gap so the
// durable tier honors the full collaborator contract.
func (s *Store) List() ([]ListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query("SELECT key, value, group_name FROM store;")
	if err != nil {
		return nil, fmt.Errorf("durable: list: %w", err)
	}
	defer rows.Close()

	out := make([]ListEntry, 0)
	for rows.Next() {
		var e ListEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Group); err != nil {
			return nil, fmt.Errorf("durable: scan list row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteKey removes the row for key, returning 1 if a row was removed
// and 0 otherwise.
func (s *Store) DeleteKey(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	res, err := s.db.Exec("DELETE FROM store WHERE key = ?;", key)
	if err != nil {
		return 0, fmt.Errorf("durable: delete key %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("durable: delete key %q rows affected: %w", key, err)
	}
	if n > 0 {
		return 1, nil
	}
	return 0, nil
}

// DeleteGroup removes every row tagged with group, returning the
// count actually removed.
func (s *Store) DeleteGroup(group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	res, err := s.db.Exec("DELETE FROM store WHERE group_name = ?;", group)
	if err != nil {
		return 0, fmt.Errorf("durable: delete group %q: %w", group, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("durable: delete group %q rows affected: %w", group, err)
	}
	return int(n), nil
}
