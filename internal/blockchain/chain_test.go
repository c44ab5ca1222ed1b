package blockchain

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns start, start+1, start+2, ...
func fixedClock(start float64) Clock {
	next := start
	return func() float64 {
		ts := next
		next++
		return ts
	}
}

type recordingSink struct {
	events []MiningEvent
}

func (r *recordingSink) Publish(e MiningEvent) {
	r.events = append(r.events, e)
}

func newTestChain(t *testing.T, difficulty int, opts ...Option) *Chain {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock(1700000000))}, opts...)
	c, err := New(difficulty, opts...)
	require.NoError(t, err)
	return c
}

func TestNewMinesGenesis(t *testing.T) {
	sink := &recordingSink{}
	c := newTestChain(t, 2, WithEventSink(sink))

	require.Equal(t, 1, c.Len())
	g := c.Block(0)
	assert.Equal(t, 0, g.Index())
	assert.Equal(t, GenesisData, g.Data())
	assert.Equal(t, GenesisPreviousHash, g.PreviousHash())
	assert.Equal(t, uint64(102), g.Nonce())
	assert.Equal(t, "005c4224d912ffc171e94a1077701f9175d20109a438d942c85984cb8be6cec0", g.Hash())

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, 0, ev.Index)
	assert.Equal(t, uint64(102), ev.Nonce)
	assert.Equal(t, uint64(103), ev.Attempts)
	assert.Equal(t, g.Hash(), ev.Hash)
}

func TestMiningDoesNotLogAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	c := newTestChain(t, 1, WithLogger(logger))
	c.AddBlock("A")
	assert.Empty(t, buf.String())
}

func TestNewRejectsInvalidDifficulty(t *testing.T) {
	for _, d := range []int{-1, MaxDifficulty + 1} {
		c, err := New(d)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrInvalidDifficulty)
	}
}

func TestMinePostcondition(t *testing.T) {
	c := newTestChain(t, 2)
	for i := 1; i <= 5; i++ {
		b := c.Mine(NewBlock(i, float64(i), "payload", c.Last().Hash()))
		assert.True(t, strings.HasPrefix(b.Hash(), "00"))
		assert.Equal(t, b.CalculateHash(), b.Hash())
	}
}

func TestMineDifficultyZeroSingleAttempt(t *testing.T) {
	sink := &recordingSink{}
	c := newTestChain(t, 0, WithEventSink(sink))
	for _, data := range []string{"a", "b", "c"} {
		b := c.AddBlock(data)
		assert.Equal(t, uint64(0), b.Nonce())
	}

	require.Len(t, sink.events, 4)
	for _, ev := range sink.events {
		assert.Equal(t, uint64(1), ev.Attempts)
	}
	assert.True(t, c.IsValid())
}

func TestAddBlockLinksToTail(t *testing.T) {
	c := newTestChain(t, 1)
	for _, data := range []string{"one", "two", "three", "four"} {
		c.AddBlock(data)
	}

	require.Equal(t, 5, c.Len())
	blocks := c.Blocks()
	for i := 1; i < len(blocks); i++ {
		assert.Equal(t, i, blocks[i].Index())
		assert.Equal(t, blocks[i-1].Hash(), blocks[i].PreviousHash())
		assert.True(t, MeetsDifficulty(blocks[i].Hash(), 1))
	}
	assert.True(t, c.IsValid())
	assert.NoError(t, c.Validate())
}

func TestAddBlockAtUsesTimestamp(t *testing.T) {
	c := newTestChain(t, 0)
	b := c.AddBlockAt("x", 1234.5)
	assert.Equal(t, 1234.5, b.Timestamp())
	assert.Equal(t, NewBlock(1, 1234.5, "x", c.Block(0).Hash()).Hash(), b.Hash())
}

func TestAddBlockContextCancelled(t *testing.T) {
	c := newTestChain(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// difficulty 0 succeeds on the first attempt before any poll
	b, err := c.AddBlockContext(ctx, "fast")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Index())
	assert.Equal(t, 2, c.Len())
}

func TestAddBlockContextStopsMining(t *testing.T) {
	c := newTestChain(t, 1)
	c.difficulty = 20
	c.prefix = targetPrefix(20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, err := c.AddBlockContext(ctx, "never")
	assert.Nil(t, b)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.Len())
}

func TestMineNextDoesNotAppend(t *testing.T) {
	c := newTestChain(t, 1)

	b, err := c.MineNext(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, b.Index())

	require.NoError(t, c.Append(b))
	assert.Equal(t, 2, c.Len())
	assert.Same(t, b, c.Last())
	assert.True(t, c.IsValid())
}

func TestAppendRejectsStaleBlock(t *testing.T) {
	c := newTestChain(t, 1)

	stale, err := c.MineNext(context.Background(), "A")
	require.NoError(t, err)
	c.AddBlock("B")

	assert.ErrorIs(t, c.Append(stale), ErrStaleBlock)
	assert.Equal(t, 2, c.Len())

	unsealed := NewBlock(2, 1700000005, "C", c.Last().Hash())
	nonce := uint64(0)
	for MeetsDifficulty(unsealed.seal(nonce), 1) {
		nonce++
	}
	assert.ErrorIs(t, c.Append(unsealed), ErrStaleBlock)
	assert.Equal(t, 2, c.Len())
}

func TestTamperDetected(t *testing.T) {
	c := newTestChain(t, 2)
	c.AddBlock("first")
	c.AddBlock("second")
	c.AddBlock("third")
	require.True(t, c.IsValid())

	require.NoError(t, c.TamperUnsafe(1, "X"))
	assert.Equal(t, "X", c.Block(1).Data())
	assert.Equal(t, c.Block(1).CalculateHash(), c.Block(1).Hash())
	assert.False(t, c.IsValid())
}

func TestTamperOutOfRange(t *testing.T) {
	c := newTestChain(t, 1)
	c.AddBlock("a")
	c.AddBlock("b")
	before := c.Records()

	for _, idx := range []int{0, c.Len(), -1, 100} {
		err := c.TamperUnsafe(idx, "X")
		require.ErrorIs(t, err, ErrOutOfRange, "index %d", idx)

		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, idx, oor.Index)
	}

	assert.Equal(t, before, c.Records())
	assert.True(t, c.IsValid())
}

func TestEndToEndScenario(t *testing.T) {
	c := newTestChain(t, 2)
	c.AddBlock("A")
	c.AddBlock("B")

	require.Equal(t, 3, c.Len())
	assert.True(t, c.IsValid())
	for _, b := range c.Blocks() {
		assert.True(t, strings.HasPrefix(b.Hash(), "00"), "block %d hash %s", b.Index(), b.Hash())
	}

	require.NoError(t, c.TamperUnsafe(1, "A-modified"))
	assert.False(t, c.IsValid())

	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalidChain)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Index)
	assert.Equal(t, ReasonPrevHashMismatch, verr.Reason)
}

func TestValidateReportsReason(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Chain)
		index  int
		reason Reason
	}{
		{
			name:   "genesis previous hash",
			mutate: func(c *Chain) { c.blocks[0].previousHash = "1" },
			index:  0,
			reason: ReasonGenesisPrevHash,
		},
		{
			name:   "genesis hash",
			mutate: func(c *Chain) { c.blocks[0].data = "forged" },
			index:  0,
			reason: ReasonHashMismatch,
		},
		{
			name:   "index",
			mutate: func(c *Chain) { c.blocks[2].index = 7 },
			index:  2,
			reason: ReasonIndexMismatch,
		},
		{
			name:   "stored hash",
			mutate: func(c *Chain) { c.blocks[2].nonce++ },
			index:  2,
			reason: ReasonHashMismatch,
		},
		{
			name: "tail difficulty",
			mutate: func(c *Chain) {
				tail := c.blocks[len(c.blocks)-1]
				nonce := tail.nonce + 1
				for MeetsDifficulty(tail.seal(nonce), c.difficulty) {
					nonce++
				}
			},
			index:  2,
			reason: ReasonDifficultyNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChain(t, 1)
			c.AddBlock("a")
			c.AddBlock("b")
			tt.mutate(c)

			var verr *ValidationError
			require.ErrorAs(t, c.Validate(), &verr)
			assert.Equal(t, tt.index, verr.Index)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestRestore(t *testing.T) {
	c := newTestChain(t, 1)
	c.AddBlock("a")
	c.AddBlock("b")

	restored, err := Restore(1, c.Records())
	require.NoError(t, err)
	assert.Equal(t, c.Records(), restored.Records())
	assert.True(t, restored.IsValid())

	restored.AddBlock("c")
	assert.Equal(t, 4, restored.Len())
	assert.True(t, restored.IsValid())
}

func TestRestoreKeepsTamperedChain(t *testing.T) {
	c := newTestChain(t, 1)
	c.AddBlock("a")
	c.AddBlock("b")
	require.NoError(t, c.TamperUnsafe(1, "z"))

	restored, err := Restore(1, c.Records())
	require.NoError(t, err)
	assert.False(t, restored.IsValid())
}

func TestRestoreErrors(t *testing.T) {
	c := newTestChain(t, 1)
	c.AddBlock("a")

	_, err := Restore(1, nil)
	assert.Error(t, err)

	_, err = Restore(-2, c.Records())
	assert.ErrorIs(t, err, ErrInvalidDifficulty)

	records := c.Records()
	records[1].Hash = strings.Repeat("0", 64)
	_, err = Restore(1, records)
	assert.ErrorIs(t, err, ErrCorruptRecord)

	records = c.Records()
	records[0], records[1] = records[1], records[0]
	_, err = Restore(1, records)
	assert.Error(t, err)
}
