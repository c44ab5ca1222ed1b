package blockchain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHashKnownDigests(t *testing.T) {
	b := NewBlock(0, 1700000000.0, GenesisData, GenesisPreviousHash)
	assert.Equal(t, "609c453a919ad7e4e0e0dc90f7e51fd579e454e31dec1879c597ed6c651af8f6", b.Hash())
	assert.Equal(t, uint64(0), b.Nonce())

	b = NewBlock(1, 1700000000.5, "A", "abc")
	b.seal(7)
	assert.Equal(t, "f646c6859b37f6652256b6d67a65f0f0f132c6877b8538a24aaf78627b8d709f", b.Hash())
}

func TestCalculateHashDeterministic(t *testing.T) {
	b := NewBlock(3, 1712345678.25, "payload", "ff00")
	first := b.CalculateHash()
	for i := 0; i < 10; i++ {
		require.Equal(t, first, b.CalculateHash())
	}
	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)

	other := NewBlock(3, 1712345678.25, "payload", "ff00")
	assert.Equal(t, first, other.Hash())
}

func TestCalculateHashIsPure(t *testing.T) {
	b := NewBlock(1, 1.5, "x", "y")
	before := b.Hash()
	b.nonce = 42
	_ = b.CalculateHash()
	assert.Equal(t, uint64(42), b.Nonce())
	assert.Equal(t, before, b.Hash(), "CalculateHash must not store its result")
}

func TestCalculateHashCoversEveryField(t *testing.T) {
	base := NewBlock(1, 10.0, "data", "prev")
	variants := []*Block{
		NewBlock(2, 10.0, "data", "prev"),
		NewBlock(1, 10.5, "data", "prev"),
		NewBlock(1, 10.0, "datb", "prev"),
		NewBlock(1, 10.0, "data", "prew"),
	}
	for _, v := range variants {
		assert.NotEqual(t, base.Hash(), v.Hash())
	}

	bumped := base.Copy()
	bumped.seal(1)
	assert.NotEqual(t, base.Hash(), bumped.Hash())
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1700000000.0, "1700000000.0"},
		{1700000000.5, "1700000000.5"},
		{1700000000.123456, "1700000000.123456"},
		{0, "0.0"},
		{-3, "-3.0"},
		{0.0001, "0.0001"},
		{1.5e-05, "1.5e-05"},
		{1e16, "1e+16"},
		{1.2345678901234568e+17, "1.2345678901234568e+17"},
		{math.Copysign(0, -1), "-0.0"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimestamp(tt.in), "FormatTimestamp(%v)", tt.in)
	}
}

func TestBlockFromRecord(t *testing.T) {
	b := NewBlock(4, 1700000001.75, "rec", "abcd")
	b.seal(99)

	restored, err := BlockFromRecord(b.Record())
	require.NoError(t, err)
	assert.Equal(t, b.Record(), restored.Record())

	rec := b.Record()
	rec.Data = "changed"
	_, err = BlockFromRecord(rec)
	require.ErrorIs(t, err, ErrCorruptRecord)

	var corrupt *CorruptRecordError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 4, corrupt.Index)
	assert.Equal(t, b.Hash(), corrupt.Stored)
}

func TestBlockString(t *testing.T) {
	b := NewBlock(2, 1700000000.0, "hello", "00ab")
	s := b.String()
	assert.Contains(t, s, "Block 2")
	assert.Contains(t, s, "Data: hello")
	assert.Contains(t, s, "PrevHash: 00ab")
	assert.Contains(t, s, b.Hash())
}
