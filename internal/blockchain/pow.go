package blockchain

import (
	"context"
	"strings"
	"time"
)

// ctxCheckInterval is the number of attempts between context polls
const ctxCheckInterval = 4096

func targetPrefix(difficulty int) string {
	return strings.Repeat("0", difficulty)
}

// MeetsDifficulty reports whether hash starts with difficulty zero characters
func MeetsDifficulty(hash string, difficulty int) bool {
	return strings.HasPrefix(hash, targetPrefix(difficulty))
}

// Mine searches nonces starting from the block's current nonce until its hash
// meets the chain difficulty. The block is modified in place and returned.
// There is no attempt bound; at difficulty 0 the first hash qualifies.
func (c *Chain) Mine(block *Block) *Block {
	b, _ := c.mine(context.Background(), block)
	return b
}

// AddBlockContext is AddBlock with cancellation. The context is polled
// periodically during mining; on cancellation nothing is appended.
func (c *Chain) AddBlockContext(ctx context.Context, data string) (*Block, error) {
	b, err := c.MineNext(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := c.Append(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MineNext mines a successor of the current tail without appending it.
// Callers that must persist a block before exposing it pass the result to
// Append afterwards.
func (c *Chain) MineNext(ctx context.Context, data string) (*Block, error) {
	return c.mine(ctx, c.nextBlock(data, c.clock()))
}

func (c *Chain) mine(ctx context.Context, block *Block) (*Block, error) {
	start := time.Now()
	done := ctx.Done()

	var attempts uint64
	nonce := block.nonce
	for {
		attempts++
		hash := block.seal(nonce)
		if strings.HasPrefix(hash, c.prefix) {
			break
		}
		nonce++

		if done != nil && attempts%ctxCheckInterval == 0 {
			select {
			case <-done:
				return nil, ctx.Err()
			default:
			}
		}
	}

	event := MiningEvent{
		Index:    block.index,
		Nonce:    block.nonce,
		Hash:     block.hash,
		Elapsed:  time.Since(start),
		Attempts: attempts,
	}
	c.logger.Debug("block mined",
		"index", event.Index,
		"nonce", event.Nonce,
		"hash", event.Hash,
		"attempts", event.Attempts,
		"elapsed", event.Elapsed)
	if c.sink != nil {
		c.sink.Publish(event)
	}
	return block, nil
}
