package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thanhnp/pow-ledger/internal/blockchain"
	"github.com/thanhnp/pow-ledger/internal/models"
	"github.com/thanhnp/pow-ledger/internal/storage"
)

var (
	// ErrTamperDisabled is returned by Tamper unless AllowTamper is set
	ErrTamperDisabled = errors.New("tamper endpoint disabled")

	// ErrDifficultyMismatch is returned when the stored chain was mined at a
	// different difficulty than the one configured
	ErrDifficultyMismatch = errors.New("stored difficulty differs from configuration")

	// ErrNotFound is returned for unknown block indexes
	ErrNotFound = errors.New("block not found")

	// ErrNoChain is returned by OpenExisting when the store holds no chain
	ErrNoChain = errors.New("no chain stored")
)

// Options configures a Service
type Options struct {
	Difficulty  int
	Store       storage.KV // nil keeps the chain in memory only
	Sink        blockchain.EventSink
	Logger      *slog.Logger
	Clock       blockchain.Clock
	AllowTamper bool
}

// Service owns the process's chain. It serializes access, persists every
// change and keeps mining statistics.
type Service struct {
	mu          sync.Mutex
	chain       *blockchain.Chain
	blocks      *storage.BlockStore
	meta        *storage.MetaStore
	allowTamper bool
	logger      *slog.Logger

	stats *statsRecorder
	sink  blockchain.EventSink
}

// Open loads the chain from the store, or creates and persists a new one
func Open(ctx context.Context, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		allowTamper: opts.AllowTamper,
		logger:      logger.With("component", "ledger"),
		stats:       newStatsRecorder(statsHistory),
		sink:        opts.Sink,
	}
	if opts.Store != nil {
		s.blocks = storage.NewBlockStore(opts.Store)
		s.meta = storage.NewMetaStore(opts.Store)
	}

	chainOpts := []blockchain.Option{
		blockchain.WithEventSink(blockchain.EventSinkFunc(s.onMined)),
		blockchain.WithLogger(logger),
		blockchain.WithClock(opts.Clock),
	}

	restored, err := s.load(opts.Difficulty, chainOpts)
	if err != nil {
		return nil, err
	}
	if restored != nil {
		s.chain = restored
		s.logger.Info("chain restored", "height", restored.Len()-1, "difficulty", restored.Difficulty())
		if err := restored.Validate(); err != nil {
			s.logger.Warn("restored chain is invalid", "error", err)
		}
		return s, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := blockchain.New(opts.Difficulty, chainOpts...)
	if err != nil {
		return nil, err
	}
	if err := s.persist(c.Difficulty(), c.Block(0)); err != nil {
		return nil, err
	}
	s.chain = c
	s.logger.Info("chain created", "difficulty", opts.Difficulty, "genesis", c.Block(0).Hash())
	return s, nil
}

// OpenExisting opens a chain previously written to store, at the difficulty
// recorded with it. It never creates a chain.
func OpenExisting(ctx context.Context, store storage.KV, logger *slog.Logger) (*Service, error) {
	meta, err := storage.NewMetaStore(store).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load chain meta: %w", err)
	}
	if meta == nil {
		return nil, ErrNoChain
	}
	return Open(ctx, Options{Difficulty: meta.Difficulty, Store: store, Logger: logger})
}

func (s *Service) load(difficulty int, chainOpts []blockchain.Option) (*blockchain.Chain, error) {
	if s.meta == nil {
		return nil, nil
	}

	meta, err := s.meta.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load chain meta: %w", err)
	}
	if meta == nil {
		return nil, nil
	}
	if meta.Difficulty != difficulty {
		return nil, fmt.Errorf("%w: stored %d, configured %d", ErrDifficultyMismatch, meta.Difficulty, difficulty)
	}

	records, err := s.blocks.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}
	if len(records) != meta.Height+1 {
		return nil, fmt.Errorf("failed to load blocks: expected %d, found %d", meta.Height+1, len(records))
	}
	return blockchain.Restore(meta.Difficulty, records, chainOpts...)
}

// persist stores b as the new tail together with the chain header in one
// write. Callers hold s.mu.
func (s *Service) persist(difficulty int, b *blockchain.Block) error {
	if s.blocks == nil {
		return nil
	}
	meta := models.ChainMeta{Difficulty: difficulty, Height: b.Index()}
	if err := s.blocks.Append(b.Record(), meta); err != nil {
		return fmt.Errorf("failed to save block %d: %w", b.Index(), err)
	}
	return nil
}

// onMined runs on the mining goroutine while s.mu is held
func (s *Service) onMined(e blockchain.MiningEvent) {
	s.stats.record(e)
	if s.sink != nil {
		s.sink.Publish(e)
	}
}

// Difficulty returns the chain difficulty
func (s *Service) Difficulty() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.Difficulty()
}

// Height returns the index of the tail block
func (s *Service) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.Len() - 1
}

// AddBlock mines data into a new block and persists it. Mining holds the
// service lock; ctx cancellation abandons the block. The block joins the
// in-memory chain only once it is stored.
func (s *Service) AddBlock(ctx context.Context, data string) (models.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.chain.MineNext(ctx, data)
	if err != nil {
		return models.Block{}, err
	}
	if err := s.persist(s.chain.Difficulty(), b); err != nil {
		return models.Block{}, err
	}
	if err := s.chain.Append(b); err != nil {
		return models.Block{}, err
	}
	return b.Record(), nil
}

// Blocks returns every block
func (s *Service) Blocks() []models.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.Records()
}

// Block returns the block at index
func (s *Service) Block(index int) (models.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.chain.Block(index)
	if b == nil {
		return models.Block{}, fmt.Errorf("%w: %d", ErrNotFound, index)
	}
	return b.Record(), nil
}

// Latest returns the tail block
func (s *Service) Latest() models.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.Last().Record()
}

// Validate re-verifies the chain
func (s *Service) Validate() models.ValidationReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Report(s.chain.Validate())
}

// Report converts a Chain.Validate result to its wire form
func Report(err error) models.ValidationReport {
	if err == nil {
		return models.ValidationReport{Valid: true}
	}
	var verr *blockchain.ValidationError
	if errors.As(err, &verr) {
		return models.ValidationReport{Index: verr.Index, Reason: string(verr.Reason)}
	}
	return models.ValidationReport{Reason: err.Error()}
}

// Tamper rewrites a block payload without mining. It is a diagnostic that
// must be enabled explicitly.
func (s *Service) Tamper(index int, data string) (models.Block, error) {
	if !s.allowTamper {
		return models.Block{}, ErrTamperDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chain.TamperUnsafe(index, data); err != nil {
		return models.Block{}, err
	}
	rec := s.chain.Block(index).Record()
	if s.blocks != nil {
		if err := s.blocks.Overwrite(rec); err != nil {
			return models.Block{}, fmt.Errorf("failed to save block %d: %w", index, err)
		}
	}
	s.logger.Warn("block tampered via service", "index", index)
	return rec, nil
}

// Stats summarises the mining events seen by this process
func (s *Service) Stats() models.MiningStats {
	return s.stats.summary()
}
