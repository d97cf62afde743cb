package ir

// moveInstr relocates id into targetBlock: copy, redirect every reference
// to the copy, carry the debug binding forward via ReplaceLocalVariable,
// transfer control-flow-chain membership if id was on one, then drop the
// original entry. This is the common core of Move_with_local_dependencies
// and Split_block_after (spec.md §4.3).
func moveInstr(c *Code, debug *DebugInfo, id InstrID, target BlockID) (InstrID, error) {
	in, err := c.Instr(id)
	if err != nil {
		return NoInstr, err
	}
	wasControl := IsControlFlow(in)
	newID, err := c.CopyInstruction(id, target)
	if err != nil {
		return NoInstr, err
	}
	if err := c.ReplaceReferences(newID, id); err != nil {
		return NoInstr, err
	}
	if debug != nil {
		debug.ReplaceLocalVariable(id, newID)
	}
	if wasControl {
		if err := c.DropControl(id); err != nil {
			return NoInstr, err
		}
		if err := c.AddControl(target, newID); err != nil {
			return NoInstr, err
		}
	}
	if err := c.DropInstr(id); err != nil {
		return NoInstr, err
	}
	return newID, nil
}

// MergeInto appends source's instructions onto target and drops source
// (spec.md §4.3 "merge_into"). PHI nodes living in source are resolved
// using the link keyed by target (target is source's edge being
// absorbed) rather than copied; every other instruction is relocated with
// moveInstr so existing uses follow automatically. mergeTail selects
// whether source's terminator is carried over (true) or left for the
// caller to supply a new one (false) — either way a terminator must end
// up last, so non-control instructions are always relocated before the
// terminator regardless of the prose order they're named in.
func MergeInto(c *Code, debug *DebugInfo, target, source BlockID, mergeTail bool) error {
	if _, err := c.Block(target); err != nil {
		return err
	}
	sb, err := c.Block(source)
	if err != nil {
		return err
	}

	for _, pid := range append([]PhiID(nil), sb.Phis...) {
		p, ok := c.phis[pid]
		if !ok {
			continue
		}
		if v, linked := p.Links[target]; linked {
			if err := c.ReplaceReferences(v, p.Result); err != nil {
				return err
			}
		}
		sb.removeSibling(p.Result)
		delete(c.instrs, p.Result)
		delete(c.phis, pid)
	}
	sb.Phis = nil

	terminator := sb.ControlTail
	for _, id := range append([]InstrID(nil), sb.Siblings...) {
		if id == terminator {
			continue
		}
		if _, err := moveInstr(c, debug, id, target); err != nil {
			return err
		}
	}
	if terminator.Valid() {
		if mergeTail {
			if _, err := moveInstr(c, debug, terminator, target); err != nil {
				return err
			}
		} else {
			if err := c.DropControl(terminator); err != nil {
				return err
			}
			if err := c.DropInstr(terminator); err != nil {
				return err
			}
		}
	}

	delete(c.blocks, source)
	return nil
}

// RedirectPhiLinks moves, for every phi in block, the link keyed by
// oldPred (if any) to be keyed by newPred instead (spec.md §4.3
// "redirect_phi_links"). Idempotent: a block with no oldPred link is left
// untouched.
func RedirectPhiLinks(c *Code, oldPred, newPred, block BlockID) error {
	b, err := c.Block(block)
	if err != nil {
		return err
	}
	for _, pid := range b.Phis {
		p, err := c.Phi(pid)
		if err != nil {
			return err
		}
		v, ok := p.Links[oldPred]
		if !ok {
			continue
		}
		if err := c.PhiDropLink(pid, oldPred); err != nil {
			return err
		}
		if err := c.PhiDropLink(pid, newPred); err != nil {
			return err
		}
		if err := c.PhiAttach(pid, newPred, v); err != nil {
			return err
		}
	}
	return nil
}

// SplitBlockAfter carves a new block B' out of splitInstr's block, moving
// every instruction not sequenced before splitInstr (and not a phi, and
// not splitInstr itself) into B', redirecting successors' phi links from
// the old block to B', and appending a JUMP from the old block to B'
// (spec.md §4.3 "split_block_after"). The code structure is rebuilt in
// place on s before returning, since the edge set changed.
func SplitBlockAfter(fn *Function, s *CodeStructure, splitInstr InstrID) (BlockID, error) {
	c := fn.Code
	in, err := c.Instr(splitInstr)
	if err != nil {
		return NoBlock, err
	}
	block := in.Block
	b, err := c.Block(block)
	if err != nil {
		return NoBlock, err
	}

	var toMove []InstrID
	for _, id := range append([]InstrID(nil), b.Siblings...) {
		if id == splitInstr {
			continue
		}
		other := c.instrs[id]
		if other == nil || other.Op == OpPhi {
			continue
		}
		if s.IsSequencedBefore(id, splitInstr) {
			continue
		}
		toMove = append(toMove, id)
	}

	newBlock := c.NewBlock(false)
	for _, id := range toMove {
		if _, err := moveInstr(c, fn.Debug, id, newBlock); err != nil {
			return NoBlock, err
		}
	}

	for _, succ := range s.Successors(block) {
		if err := RedirectPhiLinks(c, block, newBlock, succ); err != nil {
			return NoBlock, err
		}
	}

	bdr := NewBuilder(c, fn.Debug)
	if _, err := bdr.BuilderFinalizeJump(block, newBlock); err != nil {
		return NoBlock, err
	}

	rebuilt, err := LinkBlocks(c)
	if err != nil {
		return NoBlock, err
	}
	if err := FindDominators(rebuilt, c.Entry); err != nil {
		return NoBlock, err
	}
	*s = *rebuilt
	return newBlock, nil
}

// MoveInstructionWithLocalDependencies relocates instr into target,
// first relocating (in dependency order) every transitive input that
// still lives in instr's original block (spec.md §4.3
// "move_with_local_dependencies"). Returns the id instr was relocated to,
// since moveInstr always replaces an id rather than reusing it.
func MoveInstructionWithLocalDependencies(fn *Function, instr InstrID, target BlockID) (InstrID, error) {
	c := fn.Code
	in, err := c.Instr(instr)
	if err != nil {
		return NoInstr, err
	}
	order, err := localDependencyOrder(c, instr, in.Block)
	if err != nil {
		return NoInstr, err
	}
	newID := NoInstr
	for _, id := range order {
		moved, err := moveInstr(c, fn.Debug, id, target)
		if err != nil {
			return NoInstr, err
		}
		if id == instr {
			newID = moved
		}
	}
	return newID, nil
}

// localDependencyOrder returns instr and every same-block transitive
// input it depends on, inputs first (post-order DFS), deduplicated.
func localDependencyOrder(c *Code, instr InstrID, source BlockID) ([]InstrID, error) {
	visited := make(map[InstrID]bool)
	var order []InstrID
	var visit func(id InstrID) error
	visit = func(id InstrID) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		in, err := c.Instr(id)
		if err != nil {
			return err
		}
		if in.Block != source {
			return nil
		}
		var inner error
		ExtractInputs(c, in, true, func(ref InstrID) {
			if inner != nil || !ref.Valid() {
				return
			}
			inner = visit(ref)
		})
		if inner != nil {
			return inner
		}
		order = append(order, id)
		return nil
	}
	if err := visit(instr); err != nil {
		return nil, err
	}
	return order, nil
}

// CanMoveInstructionWithLocalDependencies is the recursive legality test
// from spec.md §4.3 "can_move_with_local_dependencies": instr must be
// non-control-flow and side-effect-free, not already in target, every use
// outside the moved set must be ignorable or dominated by target (and not a
// target-block phi), and every same-block input must itself pass this
// same test (memoized), while inputs defined elsewhere must already be
// dominated by target.
func CanMoveInstructionWithLocalDependencies(c *Code, s *CodeStructure, instr InstrID, target BlockID, ignoreUse func(InstrID) bool) (bool, error) {
	memo := make(map[InstrID]bool)
	var check func(id InstrID) (bool, error)
	check = func(id InstrID) (bool, error) {
		if v, ok := memo[id]; ok {
			return v, nil
		}
		in, err := c.Instr(id)
		if err != nil {
			return false, err
		}
		if IsControlFlow(in) || !IsSideEffectFree(in) || in.Block == target {
			memo[id] = false
			return false, nil
		}

		for _, u := range c.Uses(id) {
			if memo[u] {
				continue
			}
			if ignoreUse != nil && ignoreUse(u) {
				continue
			}
			useInstr, err := c.Instr(u)
			if err != nil {
				return false, err
			}
			if !s.IsDominator(useInstr.Block, target) {
				memo[id] = false
				return false, nil
			}
			if useInstr.Op == OpPhi && useInstr.Block == target {
				memo[id] = false
				return false, nil
			}
		}

		ok := true
		var inner error
		ExtractInputs(c, in, true, func(ref InstrID) {
			if !ok || inner != nil || !ref.Valid() {
				return
			}
			refInstr, err := c.Instr(ref)
			if err != nil {
				inner = err
				return
			}
			if refInstr.Block == in.Block {
				sub, err := check(ref)
				if err != nil {
					inner = err
					return
				}
				if !sub {
					ok = false
				}
				return
			}
			if !s.IsDominator(target, refInstr.Block) {
				ok = false
			}
		})
		if inner != nil {
			return false, inner
		}
		memo[id] = ok
		return ok, nil
	}
	return check(instr)
}

