package storage

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/thanhnp/pow-ledger/internal/models"
)

// BlockStore handles block storage operations
type BlockStore struct {
	db KV
}

// NewBlockStore creates a new BlockStore
func NewBlockStore(db KV) *BlockStore {
	return &BlockStore{db: db}
}

// blockHeightKey creates a key for the blocks column family.
// Zero padding keeps iteration in height order.
func blockHeightKey(height int) []byte {
	return []byte(fmt.Sprintf("%012d", height))
}

func putBlock(batch Batch, block models.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	// Store block by height
	if err := batch.Put(CFBlocks, blockHeightKey(block.Index), data); err != nil {
		return err
	}

	// Store height by hash for lookup
	return batch.Put(CFBlockHashes, []byte(block.Hash), []byte(strconv.Itoa(block.Index)))
}

// Save stores a block in the database
func (s *BlockStore) Save(block models.Block) error {
	return s.db.Update(func(batch Batch) error {
		return putBlock(batch, block)
	})
}

// Append stores block together with the chain header that makes it the tail,
// in one atomic write
func (s *BlockStore) Append(block models.Block, meta models.ChainMeta) error {
	return s.db.Update(func(batch Batch) error {
		if err := putBlock(batch, block); err != nil {
			return err
		}
		return putMeta(batch, meta)
	})
}

// SaveAll saves multiple blocks in a single batch operation
func (s *BlockStore) SaveAll(blocks []models.Block) error {
	return s.db.Update(func(batch Batch) error {
		for _, block := range blocks {
			if err := putBlock(batch, block); err != nil {
				return err
			}
		}
		return nil
	})
}

// Overwrite replaces the block stored at block.Index, dropping the hash
// index entry of the block it replaces
func (s *BlockStore) Overwrite(block models.Block) error {
	old, err := s.GetByHeight(block.Index)
	if err != nil {
		return err
	}

	return s.db.Update(func(batch Batch) error {
		if old != nil && old.Hash != block.Hash {
			if err := batch.Delete(CFBlockHashes, []byte(old.Hash)); err != nil {
				return err
			}
		}
		return putBlock(batch, block)
	})
}

// GetByHeight retrieves a block by its height
func (s *BlockStore) GetByHeight(height int) (*models.Block, error) {
	data, err := s.db.Get(CFBlocks, blockHeightKey(height))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var block models.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return &block, nil
}

// GetByHash retrieves a block by its hash
func (s *BlockStore) GetByHash(hash string) (*models.Block, error) {
	heightData, err := s.db.Get(CFBlockHashes, []byte(hash))
	if err != nil {
		return nil, err
	}
	if heightData == nil {
		return nil, nil
	}

	height, err := strconv.Atoi(string(heightData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse block height: %w", err)
	}
	return s.GetByHeight(height)
}

// List returns every stored block ordered by height
func (s *BlockStore) List() ([]models.Block, error) {
	var blocks []models.Block
	err := s.db.ForEach(CFBlocks, func(_, value []byte) error {
		var block models.Block
		if err := json.Unmarshal(value, &block); err != nil {
			return fmt.Errorf("failed to unmarshal block: %w", err)
		}
		blocks = append(blocks, block)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}
