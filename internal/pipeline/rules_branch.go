package pipeline

import "ssaopt/internal/ir"

// dropTerminatorAndJump retires in's terminator and replaces it with an
// unconditional JUMP to target, invalidating the sequenced-before cache
// since the edge set changed. Shared by every branch fold that collapses
// to a single successor (spec.md §4.4 "branches").
func dropTerminatorAndJump(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction, target ir.BlockID) (bool, error) {
	if err := c.DropControl(in.ID); err != nil {
		return false, err
	}
	if err := c.DropInstr(in.ID); err != nil {
		return false, err
	}
	b := builderFor(fn)
	if _, err := b.BuilderFinalizeJump(in.Block, target); err != nil {
		return false, err
	}
	s.DropSequencingCache()
	return true, nil
}

// isUnreachableBlock reports whether block's only instructions, besides
// bookkeeping (LOCAL_LIFETIME_MARK, SCOPE_PUSH/POP, FLOAT_ENV_*, VARARG_*),
// are a trailing UNREACHABLE terminator — i.e. every sibling up to the tail
// is bookkeeping (spec.md §4.4's "unreachable merge" test). This walks the
// sibling chain rather than the control-flow chain: bookkeeping opcodes
// never sit on the control-flow chain in this container, so the
// control-flow-chain walk the original test performs has no analogue here.
func isUnreachableBlock(c *ir.Code, block ir.BlockID) (bool, error) {
	b, err := c.Block(block)
	if err != nil {
		return false, err
	}
	if len(b.Siblings) == 0 {
		return false, nil
	}
	tail := b.Siblings[len(b.Siblings)-1]
	tailIn, err := c.Instr(tail)
	if err != nil || tailIn.Op != ir.OpUnreachable {
		return false, nil
	}
	for i := len(b.Siblings) - 2; i >= 0; i-- {
		in, err := c.Instr(b.Siblings[i])
		if err != nil {
			return false, err
		}
		if !isBookkeeping(in.Op) {
			return false, nil
		}
	}
	return true, nil
}

// mergeUnreachableArm absorbs an UNREACHABLE-only arm of a two-way branch
// into the branching block itself and replaces the terminator with a
// JUMP to the surviving edge (spec.md §4.4 "branches": "merge an
// unreachable arm and fall through to the other target").
func mergeUnreachableArm(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction, unreachableBlock, otherTarget ir.BlockID) (bool, error) {
	if err := ir.MergeInto(c, fn.Debug, in.Block, unreachableBlock, false); err != nil {
		return false, err
	}
	return dropTerminatorAndJump(c, fn, s, in, otherTarget)
}

// simplifyBranch covers spec.md §4.4's "branches" family: target==alt
// collapses to a JUMP outright, an UNREACHABLE-only arm is merged away in
// favor of the other, a compile-time-constant condition folds to a JUMP,
// a SCALAR_COMPARE condition fuses into a single BRANCH_COMPARE, and a
// BOOL_NOT condition unwraps with the branch polarity swapped. A fused or
// unwrapped condition left with no other use is dropped.
func simplifyBranch(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.BranchParams)

	if p.Target == p.Alt {
		return dropTerminatorAndJump(c, fn, s, in, p.Target)
	}

	if unreachable, err := isUnreachableBlock(c, p.Target); err != nil {
		return false, err
	} else if unreachable {
		return mergeUnreachableArm(c, fn, s, in, p.Target, p.Alt)
	}
	if unreachable, err := isUnreachableBlock(c, p.Alt); err != nil {
		return false, err
	} else if unreachable {
		return mergeUnreachableArm(c, fn, s, in, p.Alt, p.Target)
	}

	if imm, ok := constOf(c, p.Cond); ok && !imm.Float {
		taken := imm.Value != 0
		if p.Variant == ir.BranchIfFalse {
			taken = !taken
		}
		target := p.Alt
		if taken {
			target = p.Target
		}
		return dropTerminatorAndJump(c, fn, s, in, target)
	}

	cond, err := c.Instr(p.Cond)
	if err != nil {
		return false, nil
	}

	if cond.Op == ir.OpScalarCompare {
		cp := cond.Params.(ir.CompareRef2)
		cmp := cp.Cmp
		if p.Variant == ir.BranchIfFalse {
			inv, ok := cmp.Inverse()
			if !ok {
				return false, nil
			}
			cmp = inv
		}
		if err := c.DropControl(in.ID); err != nil {
			return false, err
		}
		if err := c.DropInstr(in.ID); err != nil {
			return false, err
		}
		b := builderFor(fn)
		if _, err := b.BuilderFinalizeBranchCompare(in.Block, cp.X, cp.Y, cmp, p.Target, p.Alt); err != nil {
			return false, err
		}
		if len(c.Uses(p.Cond)) == 0 {
			if err := c.DropInstr(p.Cond); err != nil {
				return false, err
			}
		}
		s.DropSequencingCache()
		return true, nil
	}

	if cond.Op == ir.OpBoolNot {
		inner := cond.Params.(ir.UnaryWidth)
		// BOOL_NOT inverts the tested polarity; flip the variant to
		// compensate rather than touching target/alt.
		variant := ir.BranchIfFalse
		if p.Variant == ir.BranchIfFalse {
			variant = ir.BranchIfTrue
		}
		if err := c.DropControl(in.ID); err != nil {
			return false, err
		}
		if err := c.DropInstr(in.ID); err != nil {
			return false, err
		}
		b := builderFor(fn)
		if _, err := b.BuilderFinalizeBranch(in.Block, inner.X, p.Target, p.Alt, variant); err != nil {
			return false, err
		}
		if len(c.Uses(p.Cond)) == 0 {
			if err := c.DropInstr(p.Cond); err != nil {
				return false, err
			}
		}
		s.DropSequencingCache()
		return true, nil
	}

	return false, nil
}

// simplifyBranchCompare covers the BRANCH_COMPARE counterparts of
// simplifyBranch's control-flow folds: target==alt and an UNREACHABLE-only
// arm. A BRANCH_COMPARE's condition is already a fused comparison, so
// neither the SCALAR_COMPARE-fusion nor the BOOL_NOT-unwrap rule applies.
func simplifyBranchCompare(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.BranchCompareParams)

	if p.Target == p.Alt {
		return dropTerminatorAndJump(c, fn, s, in, p.Target)
	}
	if unreachable, err := isUnreachableBlock(c, p.Target); err != nil {
		return false, err
	} else if unreachable {
		return mergeUnreachableArm(c, fn, s, in, p.Target, p.Alt)
	}
	if unreachable, err := isUnreachableBlock(c, p.Alt); err != nil {
		return false, err
	} else if unreachable {
		return mergeUnreachableArm(c, fn, s, in, p.Alt, p.Target)
	}
	return false, nil
}

// isIntegralComparison excludes the float orderings from PHI-to-select's
// BRANCH_COMPARE path, matching the dominator-branch comparison having to
// be an integral one.
func isIntegralComparison(cmp ir.Comparison) bool {
	switch cmp {
	case ir.CmpFloatOrderedLess, ir.CmpFloatOrderedLessEqual, ir.CmpFloatOrderedGreater, ir.CmpFloatOrderedGreaterEqual:
		return false
	default:
		return true
	}
}

// simplifyPhi converts a two-predecessor phi into a SELECT (or
// SELECT_COMPARE) when its block's immediate dominator ends in a BRANCH or
// BRANCH_COMPARE whose two successors are exactly the phi's own block and,
// at most, one intermediate block per side that exclusively funnels into
// it (spec.md §4.4 "PHI-to-select conversion"). An intermediate block's
// incoming value is hoisted into the dominator block first, when legal,
// since SELECT evaluates both arms unconditionally.
func simplifyPhi(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.PhiRefParams)
	phi, err := c.Phi(p.Phi)
	if err != nil {
		return false, nil
	}
	if len(phi.Links) != 2 {
		return false, nil
	}

	phiBlock := in.Block
	idomBlock := s.ImmediateDominator(phiBlock)
	if !idomBlock.Valid() {
		return false, nil
	}
	idomTailRef, err := c.BlockInstrControlTail(idomBlock)
	if err != nil || !idomTailRef.Valid() {
		return false, nil
	}
	idomTail, err := c.Instr(idomTailRef)
	if err != nil {
		return false, nil
	}

	var (
		isCompare   bool
		condRef     ir.InstrID
		variant     ir.BranchVariant
		cmp         ir.Comparison
		cmpX, cmpY  ir.InstrID
		target, alt ir.BlockID
	)
	switch idomTail.Op {
	case ir.OpBranch:
		bp := idomTail.Params.(ir.BranchParams)
		condRef, variant, target, alt = bp.Cond, bp.Variant, bp.Target, bp.Alt
	case ir.OpBranchCompare:
		bp := idomTail.Params.(ir.BranchCompareParams)
		if !isIntegralComparison(bp.Cmp) {
			return false, nil
		}
		cmp, cmpX, cmpY, target, alt = bp.Cmp, bp.X, bp.Y, bp.Target, bp.Alt
		isCompare = true
	default:
		return false, nil
	}
	if target == alt {
		return false, nil
	}

	link1, move1, ok1, err := phiSelectOperand(c, s, in.ID, phi, idomBlock, target, phiBlock)
	if err != nil || !ok1 {
		return false, err
	}
	link2, move2, ok2, err := phiSelectOperand(c, s, in.ID, phi, idomBlock, alt, phiBlock)
	if err != nil || !ok2 {
		return false, err
	}

	if move1 {
		newID, err := ir.MoveInstructionWithLocalDependencies(fn, link1, idomBlock)
		if err != nil {
			return false, err
		}
		link1 = newID
	}
	if move2 {
		newID, err := ir.MoveInstructionWithLocalDependencies(fn, link2, idomBlock)
		if err != nil {
			return false, err
		}
		link2 = newID
	}

	b := builderFor(fn)
	var (
		newID    ir.InstrID
		buildErr error
	)
	if !isCompare {
		trueValue, falseValue := link1, link2
		if variant == ir.BranchIfFalse {
			trueValue, falseValue = link2, link1
		}
		newID, buildErr = b.BuilderSelect(phiBlock, condRef, trueValue, falseValue)
	} else {
		newID, buildErr = b.BuilderSelectCompare(phiBlock, cmp, cmpX, cmpY, link1, link2)
	}
	if buildErr != nil {
		return false, buildErr
	}

	if err := c.ReplaceReferences(newID, in.ID); err != nil {
		return false, err
	}
	if fn.Debug != nil {
		fn.Debug.ReplaceLocalVariable(in.ID, newID)
	}
	if err := c.DropPhi(p.Phi); err != nil {
		return false, err
	}
	return true, nil
}

// phiSelectOperand resolves the value a phi's dominator-diamond side
// contributes: side==phiBlock means the dominator branches straight into
// the phi block and the link is keyed by idomBlock itself; otherwise side
// must be an intermediate block that idomBlock exclusively feeds and that
// exclusively feeds phiBlock in turn, and its incoming value either
// already lives in idomBlock or is legal to hoist there.
func phiSelectOperand(c *ir.Code, s *ir.CodeStructure, phiInstr ir.InstrID, phi *ir.Phi, idomBlock, side, phiBlock ir.BlockID) (ir.InstrID, bool, bool, error) {
	if side == phiBlock {
		ref, err := c.PhiLinkFor(phi.ID, idomBlock)
		if err != nil {
			return ir.NoInstr, false, false, nil
		}
		return ref, false, true, nil
	}

	if !s.IsExclusivePredecessor(idomBlock, side) || !s.IsDirectPredecessor(side, phiBlock) {
		return ir.NoInstr, false, false, nil
	}

	ref, err := c.PhiLinkFor(phi.ID, side)
	if err != nil {
		return ir.NoInstr, false, false, nil
	}
	linkInstr, err := c.Instr(ref)
	if err != nil {
		return ir.NoInstr, false, false, err
	}
	if linkInstr.Block != side {
		return ref, false, true, nil
	}

	ok, err := ir.CanMoveInstructionWithLocalDependencies(c, s, ref, idomBlock, func(u ir.InstrID) bool {
		return u == phiInstr
	})
	if err != nil || !ok {
		return ir.NoInstr, false, false, err
	}
	return ref, true, true, nil
}

// sweepUnreachable walks backward from an UNREACHABLE terminator along the
// sibling chain, dropping every preceding bookkeeping-only instruction
// (LOCAL_LIFETIME_MARK, SCOPE_PUSH/POP, FLOAT_ENV_*, VARARG_*) that has no
// remaining use, per spec.md §4.4's "unreachable backward sweep": nothing
// after the point of known-unreachability needs its lifetime bookkeeping
// preserved, since control never reaches a point where it would matter.
// The sweep stops at the first instruction that is not bookkeeping or
// still has a use, and never touches a different kind of instruction — a
// conservative reading of the rule's intent.
func sweepUnreachable(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	changed := false
	for {
		prev, err := prevSibling(c, in.Block, in.ID)
		if err != nil || !prev.Valid() {
			break
		}
		prevIn, err := c.Instr(prev)
		if err != nil {
			break
		}
		if !isBookkeeping(prevIn.Op) {
			break
		}
		if len(c.Uses(prev)) != 0 {
			break
		}
		if err := c.DropInstr(prev); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

func isBookkeeping(op ir.Opcode) bool {
	switch op {
	case ir.OpLocalLifetimeMark, ir.OpScopePush, ir.OpScopePop,
		ir.OpFloatEnvSave, ir.OpFloatEnvClear, ir.OpFloatEnvUpdate,
		ir.OpVarargStart, ir.OpVarargGet, ir.OpVarargEnd:
		return true
	default:
		return false
	}
}

// prevSibling returns the sibling immediately preceding id in block's
// instruction order, or NoInstr if id is first.
func prevSibling(c *ir.Code, block ir.BlockID, id ir.InstrID) (ir.InstrID, error) {
	b, err := c.Block(block)
	if err != nil {
		return ir.NoInstr, err
	}
	for i, sib := range b.Siblings {
		if sib == id {
			if i == 0 {
				return ir.NoInstr, nil
			}
			return b.Siblings[i-1], nil
		}
	}
	return ir.NoInstr, nil
}
