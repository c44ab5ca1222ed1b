package blockchain

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a block index is the genesis block or
	// outside the chain.
	ErrOutOfRange = errors.New("block index out of range")

	// ErrInvalidDifficulty is returned when a chain is built with a
	// difficulty outside [0, MaxDifficulty].
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrCorruptRecord is returned when a stored hash does not match the
	// hash recomputed from the stored fields.
	ErrCorruptRecord = errors.New("corrupt block record")

	// ErrInvalidChain is the target every *ValidationError matches
	ErrInvalidChain = errors.New("invalid chain")

	// ErrStaleBlock is returned by Append for a block that does not extend
	// the current tail.
	ErrStaleBlock = errors.New("stale block")
)

// OutOfRangeError reports a rejected block index
type OutOfRangeError struct {
	Index  int
	Length int
}

func (e *OutOfRangeError) Error() string {
	if e.Index == 0 {
		return "block index out of range: genesis block cannot be modified"
	}
	return fmt.Sprintf("block index out of range: %d not in [1, %d)", e.Index, e.Length)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// CorruptRecordError reports a stored block whose hash does not verify
type CorruptRecordError struct {
	Index    int
	Stored   string
	Computed string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt block record %d: stored hash %s, computed %s", e.Index, e.Stored, e.Computed)
}

func (e *CorruptRecordError) Is(target error) bool { return target == ErrCorruptRecord }

// Reason names the check a block failed during validation
type Reason string

const (
	ReasonGenesisIndex     Reason = "genesis_index"
	ReasonGenesisPrevHash  Reason = "genesis_previous_hash"
	ReasonIndexMismatch    Reason = "index_mismatch"
	ReasonPrevHashMismatch Reason = "previous_hash_mismatch"
	ReasonHashMismatch     Reason = "hash_mismatch"
	ReasonDifficultyNotMet Reason = "difficulty_not_met"
)

// ValidationError describes the first block that failed validation
type ValidationError struct {
	Index  int
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid chain: block %d: %s", e.Index, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidChain }
