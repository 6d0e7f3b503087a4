package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Storage backed by a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	quota int64
}

// NewSQLite opens a SQLite database at the given path.
func NewSQLite(dbPath string, opts Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(1000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps read-modify-write transactions serialized.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, quota: opts.QuotaBytes}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema
func (s *SQLiteStore) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns the record under key.
func (s *SQLiteStore) Get(key string) ([]byte, error) {
	var val []byte
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

// Put stores value under key.
func (s *SQLiteStore) Put(key string, value []byte) error {
	return s.Update(key, func([]byte) ([]byte, error) { return value, nil })
}

// Update runs fn and stores its result in a single transaction.
func (s *SQLiteStore) Update(key string, fn func(old []byte) ([]byte, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var old []byte
	err = tx.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get %s: %w", key, err)
	}

	next, err := fn(old)
	if err != nil {
		return err
	}
	if next == nil {
		next = []byte{}
	}

	var usage int64
	if err := tx.QueryRow("SELECT COALESCE(SUM(LENGTH(value)), 0) FROM records").Scan(&usage); err != nil {
		return fmt.Errorf("measure usage: %w", err)
	}
	if err := checkQuota(s.quota, usage, len(old), len(next)); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, next)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return tx.Commit()
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM records WHERE key = ?", key)
	return err
}

// Keys returns all keys with the given prefix in byte order.
func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM records WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Usage returns the total byte size of all values.
func (s *SQLiteStore) Usage() (int64, error) {
	var usage int64
	err := s.db.QueryRow("SELECT COALESCE(SUM(LENGTH(value)), 0) FROM records").Scan(&usage)
	return usage, err
}
