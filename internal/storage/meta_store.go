package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thanhnp/pow-ledger/internal/models"
	"github.com/thanhnp/pow-ledger/pkg/semver"
)

// SchemaVersion is the layout version written with every chain
const SchemaVersion = "1.0.0"

var metaKey = []byte("chain")

// ErrIncompatibleSchema is returned when stored data was written by an
// incompatible major version
var ErrIncompatibleSchema = errors.New("incompatible storage schema")

// MetaStore handles the chain header
type MetaStore struct {
	db KV
}

// NewMetaStore creates a new MetaStore
func NewMetaStore(db KV) *MetaStore {
	return &MetaStore{db: db}
}

// Load returns the stored chain header, or nil when none exists
func (s *MetaStore) Load() (*models.ChainMeta, error) {
	data, err := s.db.Get(CFMeta, metaKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var meta models.ChainMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chain meta: %w", err)
	}
	if err := checkSchema(meta.SchemaVersion); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Save stores the chain header, stamping the current schema version
func (s *MetaStore) Save(meta models.ChainMeta) error {
	return s.db.Update(func(batch Batch) error {
		return putMeta(batch, meta)
	})
}

func putMeta(batch Batch, meta models.ChainMeta) error {
	meta.SchemaVersion = SchemaVersion
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal chain meta: %w", err)
	}
	return batch.Put(CFMeta, metaKey, data)
}

func checkSchema(stored string) error {
	have, err := semver.Parse(stored)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatibleSchema, err)
	}
	want := semver.MustParse(SchemaVersion)
	if !want.Compatible(have) {
		return fmt.Errorf("%w: stored %s, supported %s", ErrIncompatibleSchema, have, want)
	}
	return nil
}
