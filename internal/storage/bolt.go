package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltDB stores each column family in its own bucket
type BoltDB struct {
	db *bbolt.DB
}

type boltBatch struct {
	tx *bbolt.Tx
}

// NewBoltDB opens (or creates) a bbolt file and its buckets
func NewBoltDB(path string) (*BoltDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for cf := range cfPrefixes {
			if _, err := tx.CreateBucketIfNotExists([]byte(cf)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func bucket(tx *bbolt.Tx, cf string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(cf))
	if b == nil {
		return nil, fmt.Errorf("column family not found: %s", cf)
	}
	return b, nil
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// SetNoSync skips the fsync after each commit when enabled
func (b *BoltDB) SetNoSync(enabled bool) {
	b.db.NoSync = enabled
}

// Sync forces the data file to disk
func (b *BoltDB) Sync() error {
	return b.db.Sync()
}

// Put stores a key-value pair in the specified column family
func (b *BoltDB) Put(cf string, key, value []byte) error {
	return b.Update(func(batch Batch) error {
		return batch.Put(cf, key, value)
	})
}

// Get retrieves a value from the specified column family
func (b *BoltDB) Get(cf string, key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt, err := bucket(tx, cf)
		if err != nil {
			return err
		}
		// Values are only valid for the life of the transaction
		if v := bkt.Get(key); v != nil {
			result = make([]byte, len(v))
			copy(result, v)
		}
		return nil
	})
	return result, err
}

// Delete removes a key from the specified column family
func (b *BoltDB) Delete(cf string, key []byte) error {
	return b.Update(func(batch Batch) error {
		return batch.Delete(cf, key)
	})
}

// Update runs fn inside a single read-write transaction
func (b *BoltDB) Update(fn func(Batch) error) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltBatch{tx: tx})
	})
}

func (b *boltBatch) Put(cf string, key, value []byte) error {
	bkt, err := bucket(b.tx, cf)
	if err != nil {
		return err
	}
	return bkt.Put(key, value)
}

func (b *boltBatch) Delete(cf string, key []byte) error {
	bkt, err := bucket(b.tx, cf)
	if err != nil {
		return err
	}
	return bkt.Delete(key)
}

// ForEach calls fn for every key of the column family in key order
func (b *BoltDB) ForEach(cf string, fn func(key, value []byte) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		bkt, err := bucket(tx, cf)
		if err != nil {
			return err
		}
		return bkt.ForEach(fn)
	})
}
