package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// PebbleDB wraps the Pebble database
type PebbleDB struct {
	db     *pebble.DB
	noSync bool // When true, uses NoSync for faster writes
}

// Iterator wraps Pebble's iterator
type Iterator struct {
	iter     *pebble.Iterator
	cfPrefix []byte // column family prefix (to strip from keys)
}

// pebbleBatch wraps Pebble's batch for atomic writes
type pebbleBatch struct {
	batch *pebble.Batch
}

// NewPebbleDB creates a new PebbleDB instance
func NewPebbleDB(path string) (*PebbleDB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	cache := pebble.NewCache(64 << 20)
	defer cache.Unref()

	opts := &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: 500,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &PebbleDB{db: db}, nil
}

// Close closes the database
func (p *PebbleDB) Close() error {
	return p.db.Close()
}

// SetNoSync enables/disables unsynced writes.
// Call Sync() at checkpoints to ensure data durability.
func (p *PebbleDB) SetNoSync(enabled bool) {
	p.noSync = enabled
}

// Sync forces a flush to disk
func (p *PebbleDB) Sync() error {
	return p.db.Flush()
}

// writeOptions returns the appropriate write options based on sync mode
func (p *PebbleDB) writeOptions() *pebble.WriteOptions {
	if p.noSync {
		return pebble.NoSync
	}
	return pebble.Sync
}

// Put stores a key-value pair in the specified column family
func (p *PebbleDB) Put(cf string, key, value []byte) error {
	prefixedKey, err := prefixKey(cf, key)
	if err != nil {
		return err
	}
	return p.db.Set(prefixedKey, value, p.writeOptions())
}

// Get retrieves a value from the specified column family
func (p *PebbleDB) Get(cf string, key []byte) ([]byte, error) {
	prefixedKey, err := prefixKey(cf, key)
	if err != nil {
		return nil, err
	}

	value, closer, err := p.db.Get(prefixedKey)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value since it's only valid until closer.Close()
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Delete removes a key from the specified column family
func (p *PebbleDB) Delete(cf string, key []byte) error {
	prefixedKey, err := prefixKey(cf, key)
	if err != nil {
		return err
	}
	return p.db.Delete(prefixedKey, p.writeOptions())
}

// Update runs fn against a batch and commits it atomically
func (p *PebbleDB) Update(fn func(Batch) error) error {
	b := &pebbleBatch{batch: p.db.NewBatch()}
	defer b.batch.Close()

	if err := fn(b); err != nil {
		return err
	}
	return b.batch.Commit(p.writeOptions())
}

func (b *pebbleBatch) Put(cf string, key, value []byte) error {
	prefixedKey, err := prefixKey(cf, key)
	if err != nil {
		return err
	}
	return b.batch.Set(prefixedKey, value, nil)
}

func (b *pebbleBatch) Delete(cf string, key []byte) error {
	prefixedKey, err := prefixKey(cf, key)
	if err != nil {
		return err
	}
	return b.batch.Delete(prefixedKey, nil)
}

// ForEach calls fn for every key of the column family in key order
func (p *PebbleDB) ForEach(cf string, fn func(key, value []byte) error) error {
	it, err := p.NewIterator(cf)
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// NewIterator creates an iterator for the specified column family
func (p *PebbleDB) NewIterator(cf string) (*Iterator, error) {
	prefix, ok := cfPrefixes[cf]
	if !ok {
		return nil, fmt.Errorf("column family not found: %s", cf)
	}

	prefixBytes := []byte(prefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixBytes,
		UpperBound: prefixUpperBound(prefixBytes),
	})
	if err != nil {
		return nil, err
	}

	iter.First()
	return &Iterator{iter: iter, cfPrefix: prefixBytes}, nil
}

// prefixUpperBound returns the upper bound for prefix iteration
func prefixUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

// Valid returns true if the iterator is positioned at a valid key
func (i *Iterator) Valid() bool {
	return i.iter.Valid()
}

// Next advances the iterator to the next key
func (i *Iterator) Next() bool {
	return i.iter.Next()
}

// Key returns the current key (without the column family prefix)
func (i *Iterator) Key() []byte {
	key := i.iter.Key()
	if bytes.HasPrefix(key, i.cfPrefix) {
		return key[len(i.cfPrefix):]
	}
	return key
}

// Value returns the current value
func (i *Iterator) Value() []byte {
	return i.iter.Value()
}

// Close closes the iterator
func (i *Iterator) Close() error {
	return i.iter.Close()
}
