package blockchain

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/thanhnp/pow-ledger/internal/models"
)

// MaxDifficulty is the digest length in hex characters
const MaxDifficulty = 64

// Clock returns the current time in fractional seconds since the epoch
type Clock func() float64

// MiningEvent is emitted once for every successfully mined block
type MiningEvent struct {
	Index    int
	Nonce    uint64
	Hash     string
	Elapsed  time.Duration
	Attempts uint64
}

// Model converts the event to its wire form
func (e MiningEvent) Model(minedAt time.Time) models.MiningEvent {
	return models.MiningEvent{
		Index:     e.Index,
		Nonce:     e.Nonce,
		Hash:      e.Hash,
		ElapsedMS: float64(e.Elapsed) / float64(time.Millisecond),
		Attempts:  e.Attempts,
		MinedAt:   minedAt,
	}
}

// EventSink receives mining events. Publish is called on the mining
// goroutine and must not block.
type EventSink interface {
	Publish(MiningEvent)
}

// EventSinkFunc adapts a function to an EventSink
type EventSinkFunc func(MiningEvent)

func (f EventSinkFunc) Publish(e MiningEvent) { f(e) }

// Option configures a Chain
type Option func(*Chain)

// WithClock sets the timestamp source for new blocks
func WithClock(clock Clock) Option {
	return func(c *Chain) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithEventSink sets the receiver of mining events
func WithEventSink(sink EventSink) Option {
	return func(c *Chain) {
		c.sink = sink
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Chain is an append-only sequence of mined blocks. It is not safe for
// concurrent use.
type Chain struct {
	difficulty int
	prefix     string
	blocks     []*Block

	clock  Clock
	sink   EventSink
	logger *slog.Logger
}

func newChain(difficulty int, opts []Option) (*Chain, error) {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidDifficulty, difficulty, MaxDifficulty)
	}

	c := &Chain{
		difficulty: difficulty,
		prefix:     targetPrefix(difficulty),
		clock:      UnixNow,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "chain")
	return c, nil
}

// New creates a chain with a freshly mined genesis block
func New(difficulty int, opts ...Option) (*Chain, error) {
	c, err := newChain(difficulty, opts)
	if err != nil {
		return nil, err
	}

	genesis := NewBlock(0, c.clock(), GenesisData, GenesisPreviousHash)
	c.blocks = []*Block{c.Mine(genesis)}
	return c, nil
}

// Restore rebuilds a chain from stored records without mining. Records must
// be ordered by index. Linkage is not checked here; call Validate.
func Restore(difficulty int, records []models.Block, opts ...Option) (*Chain, error) {
	c, err := newChain(difficulty, opts)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("restore: no blocks")
	}

	c.blocks = make([]*Block, 0, len(records))
	for i, r := range records {
		if r.Index != i {
			return nil, fmt.Errorf("restore: record %d has index %d", i, r.Index)
		}
		b, err := BlockFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
		c.blocks = append(c.blocks, b)
	}
	return c, nil
}

// Difficulty returns the number of leading zero hex characters required
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Len returns the number of blocks including genesis
func (c *Chain) Len() int {
	return len(c.blocks)
}

// Block returns the block at index i, or nil
func (c *Chain) Block(i int) *Block {
	if i < 0 || i >= len(c.blocks) {
		return nil
	}
	return c.blocks[i]
}

// Last returns the tail block
func (c *Chain) Last() *Block {
	return c.blocks[len(c.blocks)-1]
}

// Blocks returns a copy of the block slice. The blocks themselves are shared.
func (c *Chain) Blocks() []*Block {
	out := make([]*Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Records returns the storable form of every block
func (c *Chain) Records() []models.Block {
	out := make([]models.Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		out = append(out, b.Record())
	}
	return out
}

// AddBlock mines a block carrying data on top of the tail and appends it
func (c *Chain) AddBlock(data string) *Block {
	return c.AddBlockAt(data, c.clock())
}

// AddBlockAt is AddBlock with an explicit timestamp
func (c *Chain) AddBlockAt(data string, timestamp float64) *Block {
	b := c.Mine(c.nextBlock(data, timestamp))
	c.blocks = append(c.blocks, b)
	return b
}

// Append adds a block mined by MineNext. The block must extend the current
// tail and meet the difficulty target; otherwise ErrStaleBlock is returned and
// the chain is unchanged.
func (c *Chain) Append(b *Block) error {
	tail := c.Last()
	if b.index != len(c.blocks) || b.previousHash != tail.hash {
		return fmt.Errorf("%w: block %d does not extend tail %d", ErrStaleBlock, b.index, tail.index)
	}
	if b.CalculateHash() != b.hash || !MeetsDifficulty(b.hash, c.difficulty) {
		return fmt.Errorf("%w: block %d is not sealed", ErrStaleBlock, b.index)
	}
	c.blocks = append(c.blocks, b)
	return nil
}

func (c *Chain) nextBlock(data string, timestamp float64) *Block {
	return NewBlock(len(c.blocks), timestamp, data, c.Last().Hash())
}
