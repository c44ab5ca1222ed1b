package blockchain

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/thanhnp/pow-ledger/internal/models"
)

// GenesisData is the payload of every genesis block
const GenesisData = "Genesis Block"

// GenesisPreviousHash is the previous hash placeholder of the genesis block
const GenesisPreviousHash = "0"

// Block is a single ledger entry. Its hash is derived from the other fields
// and only changes through CalculateHash.
type Block struct {
	index        int
	timestamp    float64
	data         string
	previousHash string
	nonce        uint64
	hash         string
}

// NewBlock creates a block with nonce 0 and its hash already computed
func NewBlock(index int, timestamp float64, data, previousHash string) *Block {
	b := &Block{
		index:        index,
		timestamp:    timestamp,
		data:         data,
		previousHash: previousHash,
	}
	b.hash = b.CalculateHash()
	return b
}

// BlockFromRecord rebuilds a block from a stored record. The hash is
// recomputed and compared with the stored one.
func BlockFromRecord(r models.Block) (*Block, error) {
	b := &Block{
		index:        r.Index,
		timestamp:    r.Timestamp,
		data:         r.Data,
		previousHash: r.PreviousHash,
		nonce:        r.Nonce,
	}
	b.hash = b.CalculateHash()
	if b.hash != r.Hash {
		return nil, &CorruptRecordError{Index: r.Index, Stored: r.Hash, Computed: b.hash}
	}
	return b, nil
}

// CalculateHash returns the lowercase hex SHA-256 of
// index + timestamp + data + previousHash + nonce.
func (b *Block) CalculateHash() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(b.index))
	sb.WriteString(FormatTimestamp(b.timestamp))
	sb.WriteString(b.data)
	sb.WriteString(b.previousHash)
	sb.WriteString(strconv.FormatUint(b.nonce, 10))

	digest := chainhash.HashH([]byte(sb.String()))
	return hex.EncodeToString(digest[:])
}

func (b *Block) Index() int { return b.index }
func (b *Block) Timestamp() float64 { return b.timestamp }
func (b *Block) Data() string { return b.data }
func (b *Block) PreviousHash() string { return b.previousHash }
func (b *Block) Nonce() uint64 { return b.nonce }
func (b *Block) Hash() string { return b.hash }

// seal sets the nonce and refreshes the hash from it
func (b *Block) seal(nonce uint64) string {
	b.nonce = nonce
	b.hash = b.CalculateHash()
	return b.hash
}

// Record returns the storable form of the block
func (b *Block) Record() models.Block {
	return models.Block{
		Index:        b.index,
		Timestamp:    b.timestamp,
		Data:         b.data,
		PreviousHash: b.previousHash,
		Nonce:        b.nonce,
		Hash:         b.hash,
	}
}

// Copy makes a deep copy of the block
func (b *Block) Copy() *Block {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func (b *Block) String() string {
	sec, frac := math.Modf(b.timestamp)
	created := time.Unix(int64(sec), int64(frac*1e9)).UTC()

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Block %d", b.index))
	builder.WriteString(fmt.Sprintf("\n\tTimestamp: %s (%s)", FormatTimestamp(b.timestamp), created.Format("2006-01-02 15:04:05.000")))
	builder.WriteString(fmt.Sprintf("\n\tData: %s", b.data))
	builder.WriteString(fmt.Sprintf("\n\tNonce: %d", b.nonce))
	builder.WriteString(fmt.Sprintf("\n\tHash: %s", b.hash))
	builder.WriteString(fmt.Sprintf("\n\tPrevHash: %s", b.previousHash))
	return builder.String()
}

// FormatTimestamp renders a timestamp in shortest round-trip form. Integral
// values keep a ".0" suffix and magnitudes outside [1e-4, 1e16) use exponent
// notation, matching the float rendering used by existing ledgers.
func FormatTimestamp(ts float64) string {
	switch {
	case math.IsNaN(ts):
		return "nan"
	case math.IsInf(ts, 1):
		return "inf"
	case math.IsInf(ts, -1):
		return "-inf"
	}

	abs := math.Abs(ts)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(ts, 'e', -1, 64)
	}

	s := strconv.FormatFloat(ts, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// UnixNow returns the current wall-clock time in fractional seconds
func UnixNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
