package chain

// BlockOrdinal returns the zero-based index of block within the first branch
// that stores it (matched by hash).
//
// For the root branch this is the chain height. For a forked branch the
// count starts at the fork point, so ordinals are not comparable across
// branches. A block no branch contains yields 0, which therefore does not
// prove the block is a genesis block.
func BlockOrdinal(block Block, set BranchSet) int {
	_, ordinal, ok := set.FindBlock(block.Hash)
	if !ok {
		return 0
	}
	return ordinal
}
