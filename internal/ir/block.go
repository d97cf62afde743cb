package ir

// Block is an ordered sequence of phi ids, the sibling chain of
// instruction ids, the control-flow-chain subsequence, and the set of
// public labels reachable via indirect jump (spec.md §3 "Block").
type Block struct {
	ID BlockID

	Phis []PhiID

	// Siblings is the block's full instruction sequence in program order —
	// the spec's "sibling chain". It includes control-flow instructions as
	// well as ordinary data instructions.
	Siblings []InstrID

	// ControlHead/ControlTail are the ends of the control-flow chain;
	// walking NextControl from ControlHead (or PrevControl from
	// ControlTail) must reproduce the control-flow subsequence of
	// Siblings, in order (spec.md §3's "control-flow chain" invariant).
	ControlHead InstrID
	ControlTail InstrID

	PublicLabels map[string]bool

	// IsIndirectTarget marks a block created with new_block(is_indirect_
	// target=true) (spec.md §6); such blocks are never chosen as
	// Split_block_after's new block.
	IsIndirectTarget bool
}

func newBlock(id BlockID, indirectTarget bool) *Block {
	return &Block{
		ID:               id,
		ControlHead:      NoInstr,
		ControlTail:      NoInstr,
		PublicLabels:     make(map[string]bool),
		IsIndirectTarget: indirectTarget,
	}
}

// removeSibling deletes id from the Siblings slice, if present.
func (b *Block) removeSibling(id InstrID) {
	for i, s := range b.Siblings {
		if s == id {
			b.Siblings = append(b.Siblings[:i], b.Siblings[i+1:]...)
			return
		}
	}
}
