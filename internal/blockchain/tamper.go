package blockchain

// TamperUnsafe overwrites the payload of a sealed block and refreshes its
// hash without mining. It exists to demonstrate that validation detects
// rewritten history and must never be used as a mutation path. Genesis and
// out-of-range indexes return an error matching ErrOutOfRange and leave the
// chain untouched.
func (c *Chain) TamperUnsafe(index int, data string) error {
	if index <= 0 || index >= len(c.blocks) {
		return &OutOfRangeError{Index: index, Length: len(c.blocks)}
	}

	b := c.blocks[index]
	b.data = data
	b.hash = b.CalculateHash()

	c.logger.Warn("block tampered", "index", index, "hash", b.hash)
	return nil
}
