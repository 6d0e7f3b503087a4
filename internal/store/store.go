// Package store provides the durable key-value record store behind folio.
// Records are JSON values under string keys in a single namespace, backed by
// either an embedded bbolt file or a SQLite database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for a key with no record.
	ErrNotFound = errors.New("record not found")
	// ErrQuotaExceeded is returned when a write would take the store over its byte quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Storage is a namespaced store of whole records. Writes replace the
// previous value; the last write wins.
type Storage interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	// Update replaces the record under key with fn's result in one
	// transaction. old is nil when the key has no record.
	Update(key string, fn func(old []byte) ([]byte, error)) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	// Usage returns the total byte size of all values.
	Usage() (int64, error)
	Close() error
}

// Options configures a store.
type Options struct {
	// QuotaBytes caps the total size of all values. 0 means unlimited.
	QuotaBytes int64
}

// Open opens the store of the named backend ("bbolt" or "sqlite") at path.
func Open(backend, path string, opts Options) (Storage, error) {
	switch backend {
	case "", "bbolt":
		st, err := NewBolt(path, opts)
		if err != nil {
			return nil, err
		}
		if err := st.Initialize(); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := NewSQLite(path, opts)
		if err != nil {
			return nil, err
		}
		if err := st.Initialize(); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// GetJSON decodes the record under key into v.
func GetJSON(s Storage, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// checkQuota reports ErrQuotaExceeded when replacing a value of oldSize with
// one of newSize would take usage over quota.
func checkQuota(quota, usage int64, oldSize, newSize int) error {
	if quota <= 0 {
		return nil
	}
	if next := usage - int64(oldSize) + int64(newSize); next > quota {
		return fmt.Errorf("%w: %d bytes needed, quota is %d", ErrQuotaExceeded, next, quota)
	}
	return nil
}
