// Package storage provides the key-value persistence collaborator behind
// the override store. Values are JSON blobs namespaced per workspace:
// each workspace id maps to a bbolt bucket holding "overrides" and
// "config" keys.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// KV is the narrow contract the override store persists through.
// Get returns (nil, nil) when the key or bucket does not exist.
type KV interface {
	Get(bucket, key string) ([]byte, error)
	Put(bucket, key string, value []byte) error
}

// BoltKV is a bbolt-backed KV.
type BoltKV struct {
	db *bolt.DB
}

// DefaultPath returns the default database location (~/.worklens/worklens.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".worklens", "worklens.db"), nil
}

// Open opens or creates the database at path.
func Open(path string) (*BoltKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating directories: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage error opening %s: %w", path, err)
	}
	return &BoltKV{db: db}, nil
}

// Get reads a value. Missing buckets and keys yield (nil, nil).
func (s *BoltKV) Get(bucket, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s/%s: %w", bucket, key, err)
	}
	return out, nil
}

// Put writes a value, creating the bucket when needed.
func (s *BoltKV) Put(bucket, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("storage error writing %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltKV) Close() error {
	return s.db.Close()
}
