package blockchain

// IsValid reports whether every block passes validation
func (c *Chain) IsValid() bool {
	return c.Validate() == nil
}

// Validate re-verifies the whole chain and returns a *ValidationError for
// the first failure, or nil.
//
// Linkage is checked across the chain before hashes and difficulty, so a
// block whose payload was rewritten surfaces as a broken link at its
// successor. Hashes are always recomputed, never trusted.
func (c *Chain) Validate() error {
	if err := c.validateGenesis(); err != nil {
		return err
	}

	for i := 1; i < len(c.blocks); i++ {
		cur, prev := c.blocks[i], c.blocks[i-1]
		if cur.index != i {
			return &ValidationError{Index: i, Reason: ReasonIndexMismatch}
		}
		if cur.previousHash != prev.hash {
			return &ValidationError{Index: i, Reason: ReasonPrevHashMismatch}
		}
	}

	for i := 1; i < len(c.blocks); i++ {
		if err := c.validateSeal(i); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) validateGenesis() error {
	g := c.blocks[0]
	if g.index != 0 {
		return &ValidationError{Index: 0, Reason: ReasonGenesisIndex}
	}
	if g.previousHash != GenesisPreviousHash {
		return &ValidationError{Index: 0, Reason: ReasonGenesisPrevHash}
	}
	return c.validateSeal(0)
}

// validateSeal checks that the stored hash is reproducible and meets the
// difficulty target
func (c *Chain) validateSeal(i int) error {
	b := c.blocks[i]
	if b.CalculateHash() != b.hash {
		return &ValidationError{Index: i, Reason: ReasonHashMismatch}
	}
	if !MeetsDifficulty(b.hash, c.difficulty) {
		return &ValidationError{Index: i, Reason: ReasonDifficultyNotMet}
	}
	return nil
}
