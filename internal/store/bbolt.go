package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names used by the bolt store.
var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")
)

var keyUsage = []byte("usage")

// BoltStore is a Storage backed by an embedded bbolt database.
type BoltStore struct {
	db    *bolt.DB
	quota int64
}

// NewBolt opens or creates a bbolt database at the given path.
func NewBolt(dbPath string, opts Options) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &BoltStore{db: db, quota: opts.QuotaBytes}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize creates all required buckets.
func (s *BoltStore) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Get returns a copy of the record under key.
func (s *BoltStore) Get(key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		val = bytes.Clone(v)
		return nil
	})
	return val, err
}

// Put stores value under key.
func (s *BoltStore) Put(key string, value []byte) error {
	return s.Update(key, func([]byte) ([]byte, error) { return value, nil })
}

// Update runs fn and stores its result in a single write transaction.
func (s *BoltStore) Update(key string, fn func(old []byte) ([]byte, error)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		old := b.Get([]byte(key))
		var prev []byte
		if old != nil {
			prev = bytes.Clone(old)
		}

		next, err := fn(prev)
		if err != nil {
			return err
		}
		if next == nil {
			next = []byte{}
		}

		usage := readUsage(tx)
		if err := checkQuota(s.quota, usage, len(old), len(next)); err != nil {
			return err
		}
		if err := b.Put([]byte(key), next); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		return writeUsage(tx, usage-int64(len(old))+int64(len(next)))
	})
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		old := b.Get([]byte(key))
		if old == nil {
			return nil
		}
		size := int64(len(old))
		if err := b.Delete([]byte(key)); err != nil {
			return err
		}
		return writeUsage(tx, readUsage(tx)-size)
	})
}

// Keys returns all keys with the given prefix in byte order.
func (s *BoltStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// Usage returns the total byte size of all values.
func (s *BoltStore) Usage() (int64, error) {
	var usage int64
	err := s.db.View(func(tx *bolt.Tx) error {
		usage = readUsage(tx)
		return nil
	})
	return usage, err
}

func readUsage(tx *bolt.Tx) int64 {
	v := tx.Bucket(bucketMeta).Get(keyUsage)
	if len(v) != 8 {
		return 0
	}
	return int64(btoi(v))
}

func writeUsage(tx *bolt.Tx, usage int64) error {
	if usage < 0 {
		usage = 0
	}
	return tx.Bucket(bucketMeta).Put(keyUsage, itob(uint64(usage)))
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
