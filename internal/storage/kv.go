package storage

import (
	"fmt"
	"path/filepath"
)

// Column family names
const (
	CFBlocks      = "blocks"
	CFBlockHashes = "block_hashes"
	CFMeta        = "meta"
)

// Key prefixes (simulating column families in Pebble)
const (
	PrefixBlocks      = "blk:"
	PrefixBlockHashes = "bhs:"
	PrefixMeta        = "met:"
)

// Column family name to prefix mapping
var cfPrefixes = map[string]string{
	CFBlocks:      PrefixBlocks,
	CFBlockHashes: PrefixBlockHashes,
	CFMeta:        PrefixMeta,
}

// Batch collects writes that are applied atomically
type Batch interface {
	Put(cf string, key, value []byte) error
	Delete(cf string, key []byte) error
}

// KV is the key-value engine behind the ledger stores.
// Get returns nil, nil when the key does not exist.
type KV interface {
	Put(cf string, key, value []byte) error
	Get(cf string, key []byte) ([]byte, error)
	Delete(cf string, key []byte) error
	Update(fn func(Batch) error) error
	ForEach(cf string, fn func(key, value []byte) error) error
	SetNoSync(enabled bool)
	Sync() error
	Close() error
}

// Open opens the engine named by engine under path
func Open(engine, path string) (KV, error) {
	switch engine {
	case "pebble", "":
		return NewPebbleDB(path)
	case "bolt":
		return NewBoltDB(filepath.Join(path, "ledger.db"))
	default:
		return nil, fmt.Errorf("unknown storage engine: %s", engine)
	}
}

// prefixKey creates a prefixed key for the given column family
func prefixKey(cf string, key []byte) ([]byte, error) {
	prefix, ok := cfPrefixes[cf]
	if !ok {
		return nil, fmt.Errorf("column family not found: %s", cf)
	}
	return append([]byte(prefix), key...), nil
}
