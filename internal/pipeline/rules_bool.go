package pipeline

import "ssaopt/internal/ir"

// simplifyBoolNot covers spec.md §4.4's boolean-normalization family:
// BOOL_NOT(SCALAR_COMPARE) folds to the inverse comparison, BOOL_NOT of a
// bool-producing value is canonicalized to width 8, and BOOL_NOT(BOOL_NOT(x))
// collapses to x (re-normalized to a bool if x isn't already one).
func simplifyBoolNot(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.UnaryWidth)
	xi, err := c.Instr(p.X)
	if err != nil {
		return false, nil
	}

	if xi.Op == ir.OpScalarCompare {
		cp := xi.Params.(ir.CompareRef2)
		if inv, ok := cp.Cmp.Inverse(); ok {
			b := builderFor(fn)
			newID, err := b.BuilderScalarCompare(in.Block, cp.X, cp.Y, inv)
			if err != nil {
				return false, err
			}
			return true, replaceValue(c, fn, in.ID, newID)
		}
	}

	if xi.Op == ir.OpBoolNot {
		inner := xi.Params.(ir.UnaryWidth)
		b := builderFor(fn)
		if isBoolProducing(c, inner.X) {
			if inner.Width == p.Width {
				return true, replaceValue(c, fn, in.ID, inner.X)
			}
			newID, err := b.BuilderToBool(in.Block, inner.X, p.Width)
			if err != nil {
				return false, err
			}
			return true, replaceValue(c, fn, in.ID, newID)
		}
		newID, err := b.BuilderToBool(in.Block, inner.X, p.Width)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}

	if isBoolProducing(c, p.X) && p.Width != 8 {
		b := builderFor(fn)
		newID, err := b.BuilderBoolNot(in.Block, p.X, 8)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}

	return false, nil
}

// simplifyBoolOp covers BOOL_OR/BOOL_AND's family of folds (spec.md §4.4
// "short-circuit boolean fusion"): literal-operand absorption/identity,
// X op X, idempotence through an operand that is itself the same op
// sharing a leg with this one, the two short-circuit patterns that prove
// the other operand's truth value is already decided by the time this
// block runs, and fusing two SCALAR_COMPAREs of the same operand pair
// into a single non-strict comparison.
func simplifyBoolOp(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.BoolOp)
	isOr := in.Op == ir.OpBoolOr

	if p.X == p.Y {
		return true, replaceValue(c, fn, in.ID, p.X)
	}

	if imm, ok := constOf(c, p.X); ok {
		if done, err := foldBoolConst(c, fn, in, imm, p.Y, p.Width, isOr); done || err != nil {
			return done, err
		}
	}
	if imm, ok := constOf(c, p.Y); ok {
		if done, err := foldBoolConst(c, fn, in, imm, p.X, p.Width, isOr); done || err != nil {
			return done, err
		}
	}

	if rep, ok := idempotentBoolOp(c, in, p, isOr); ok {
		return true, replaceValue(c, fn, in.ID, rep)
	}

	if done, err := shortCircuitBoolOp(c, fn, s, in, p, isOr); done || err != nil {
		return done, err
	}

	if isOr {
		if done, err := fuseCompareOr(c, fn, in, p); done || err != nil {
			return done, err
		}
	}

	return false, nil
}

func foldBoolConst(c *ir.Code, fn *ir.Function, in *ir.Instruction, imm ir.Immediate, other ir.InstrID, width int, isOr bool) (bool, error) {
	if imm.Float {
		return false, nil
	}
	truthy := imm.Value != 0
	// OR with true is always true; AND with false is always false: the
	// result is a fresh 1 (OR) or 0 (AND) immediate of the op's width.
	if (isOr && truthy) || (!isOr && !truthy) {
		b := builderFor(fn)
		var v uint64
		if truthy {
			v = 1
		}
		newID, err := b.BuilderImmediate(in.Block, v, width, false)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}
	// OR with false / AND with true: the result is simply the other operand.
	return true, replaceValue(c, fn, in.ID, other)
}

// idempotentBoolOp matches `(a op b) op a` (or a `op`-sharing variant on
// either leg): one operand is itself the same BOOL_OR/BOOL_AND sharing a
// leg with the outer instruction's other operand, so the outer op adds
// nothing and collapses to that operand directly. The first operand's legs
// are checked against the second operand and vice versa, for OR and AND
// alike.
func idempotentBoolOp(c *ir.Code, in *ir.Instruction, p ir.BoolOp, isOr bool) (ir.InstrID, bool) {
	matchX, matchY := p.Y, p.X

	if arg1, err := c.Instr(p.X); err == nil && arg1.Op == in.Op {
		bp := arg1.Params.(ir.BoolOp)
		if bp.X == matchX || bp.Y == matchX {
			return p.X, true
		}
	}
	if arg2, err := c.Instr(p.Y); err == nil && arg2.Op == in.Op {
		bp := arg2.Params.(ir.BoolOp)
		if bp.X == matchY || bp.Y == matchY {
			return p.Y, true
		}
	}
	return ir.NoInstr, false
}

// shortCircuitBoolOp recognizes the two control-flow shapes spec.md §4.4
// names for proving `a op b`'s left operand is already decided by the time
// this instruction's block runs, letting the whole expression collapse to
// TO_BOOL(b): either p.X's block is this block's exclusive predecessor and
// branches here exactly when p.X's own (possibly implied) truth value
// rules out short-circuiting, or this instruction's sole use is a SELECT
// whose condition and "then" arm are both p.X and whose "else" arm is this
// instruction itself (so p.X's truth in the other arm never reaches here).
func shortCircuitBoolOp(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction, p ir.BoolOp, isOr bool) (bool, error) {
	arg1, err := c.Instr(p.X)
	if err != nil {
		return false, nil
	}

	wantVariant := ir.BranchIfTrue
	if !isOr {
		wantVariant = ir.BranchIfFalse
	}

	if arg1.Block != in.Block && s.IsExclusivePredecessor(arg1.Block, in.Block) {
		tailRef, err := c.BlockInstrControlTail(arg1.Block)
		if err != nil || !tailRef.Valid() {
			return false, nil
		}
		tailIn, err := c.Instr(tailRef)
		if err != nil || tailIn.Op != ir.OpBranch {
			return false, nil
		}
		bp := tailIn.Params.(ir.BranchParams)
		if bp.Alt != in.Block || bp.Cond != p.X || bp.Variant != wantVariant {
			return false, nil
		}
		return toBoolFold(c, fn, in, p.Y, p.Width)
	}

	uses := c.Uses(in.ID)
	if len(uses) != 1 {
		return false, nil
	}
	useIn, err := c.Instr(uses[0])
	if err != nil || useIn.Op != ir.OpSelect {
		return false, nil
	}
	sp := useIn.Params.(ir.SelectCond)
	if sp.Cond != p.X || sp.A != p.X || sp.B != in.ID {
		return false, nil
	}
	return toBoolFold(c, fn, in, p.Y, p.Width)
}

func toBoolFold(c *ir.Code, fn *ir.Function, in *ir.Instruction, x ir.InstrID, width int) (bool, error) {
	b := builderFor(fn)
	newID, err := b.BuilderToBool(in.Block, x, width)
	if err != nil {
		return false, err
	}
	return true, replaceValue(c, fn, in.ID, newID)
}

// fuseCompareOr fuses `(x strictCmp y) || (x == y)` (in either operand
// order, operands possibly swapped between the two comparisons) into the
// single non-strict comparison, e.g. SIGNED_LESS || EQUAL -> SIGNED_LESS_EQUAL.
// BOOL_AND has no analogous fusion: a strict comparison and its equality
// case can never both hold, so there is nothing for BOOL_AND to collapse.
func fuseCompareOr(c *ir.Code, fn *ir.Function, in *ir.Instruction, p ir.BoolOp) (bool, error) {
	arg1, err := c.Instr(p.X)
	if err != nil || arg1.Op != ir.OpScalarCompare {
		return false, nil
	}
	arg2, err := c.Instr(p.Y)
	if err != nil || arg2.Op != ir.OpScalarCompare {
		return false, nil
	}
	cp1 := arg1.Params.(ir.CompareRef2)
	cp2 := arg2.Params.(ir.CompareRef2)

	fused, x, y, ok := fuseComparisons(cp1, cp2)
	if !ok {
		return false, nil
	}
	b := builderFor(fn)
	newID, err := b.BuilderScalarCompare(in.Block, x, y, fused)
	if err != nil {
		return false, err
	}
	return true, replaceValue(c, fn, in.ID, newID)
}

// fuseComparisons matches cp1/cp2 against the six (strict, equal) pairs
// this container's width-free Comparison enum admits, checking both
// argument orders since the two SCALAR_COMPAREs need not share operand
// order to be fusable.
func fuseComparisons(cp1, cp2 ir.CompareRef2) (ir.Comparison, ir.InstrID, ir.InstrID, bool) {
	sameOrder := cp1.X == cp2.X && cp1.Y == cp2.Y
	swapped := cp1.X == cp2.Y && cp1.Y == cp2.X
	if !sameOrder && !swapped {
		return 0, ir.NoInstr, ir.NoInstr, false
	}

	pairs := [...][2]ir.Comparison{
		{ir.CmpSignedLess, ir.CmpSignedLessEqual},
		{ir.CmpSignedGreater, ir.CmpSignedGreaterEqual},
		{ir.CmpUnsignedLess, ir.CmpUnsignedLessEqual},
		{ir.CmpUnsignedGreater, ir.CmpUnsignedGreaterEqual},
		{ir.CmpFloatOrderedLess, ir.CmpFloatOrderedLessEqual},
		{ir.CmpFloatOrderedGreater, ir.CmpFloatOrderedGreaterEqual},
	}
	for _, pr := range pairs {
		strict, nonStrict := pr[0], pr[1]
		if cp1.Cmp == strict && cp2.Cmp == ir.CmpEqual {
			return nonStrict, cp1.X, cp1.Y, true
		}
		if cp1.Cmp == ir.CmpEqual && cp2.Cmp == strict {
			return nonStrict, cp2.X, cp2.Y, true
		}
	}
	return 0, ir.NoInstr, ir.NoInstr, false
}

// simplifyToBool collapses TO_BOOL of an already bool-producing value to
// that value directly. Widths are not compared, and an immediate 0/1
// operand is left wrapped.
func simplifyToBool(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.UnaryWidth)
	if isBoolProducing(c, p.X) {
		xi, err := c.Instr(p.X)
		if err == nil && xi.Op != ir.OpImmediate {
			return true, replaceValue(c, fn, in.ID, p.X)
		}
	}
	return false, nil
}

// simplifySelect folds SELECT with a constant condition, SELECT whose two
// arms are equal, and SELECT(cond=A, A, B) where both arms are already
// bool-producing into a plain BOOL_OR — the select is then exactly the
// short-circuit OR of its own condition with its else arm.
func simplifySelect(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.SelectCond)
	if p.A == p.B {
		return true, replaceValue(c, fn, in.ID, p.A)
	}
	if imm, ok := constOf(c, p.Cond); ok {
		chosen := p.B
		if imm.Value != 0 {
			chosen = p.A
		}
		return true, replaceValue(c, fn, in.ID, chosen)
	}
	if p.Cond == p.A && isBoolProducing(c, p.A) && isBoolProducing(c, p.B) {
		b := builderFor(fn)
		newID, err := b.BuilderBoolOr(in.Block, p.A, p.B, 8)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}
	return false, nil
}

// simplifySelectCompare folds SELECT_COMPARE whose two results are equal
// into that shared value, and fuses a "then" arm that is itself a
// SCALAR_COMPARE over the same operand pair as this SELECT_COMPARE's own
// comparison: if the two comparisons are inverses, the result is exactly
// BOOL_AND(then, else); if they're the same comparison, it's BOOL_OR(then,
// else) — either way the comparison itself decides which arm of "then" vs
// "else" can ever matter.
func simplifySelectCompare(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.SelectCompareParams)
	if p.Then == p.Else {
		return true, replaceValue(c, fn, in.ID, p.Then)
	}

	thenIn, err := c.Instr(p.Then)
	if err != nil || thenIn.Op != ir.OpScalarCompare {
		return false, nil
	}
	cp := thenIn.Params.(ir.CompareRef2)
	if cp.X != p.A || cp.Y != p.B || !isBoolProducing(c, p.Else) {
		return false, nil
	}

	b := builderFor(fn)
	if inv, ok := cp.Cmp.Inverse(); ok && inv == p.Cmp {
		newID, err := b.BuilderBoolAnd(in.Block, p.Then, p.Else, 8)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}
	if cp.Cmp == p.Cmp {
		newID, err := b.BuilderBoolOr(in.Block, p.Then, p.Else, 8)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}
	return false, nil
}

// simplifyExtract covers bit-field extraction (spec.md §4.4): an
// EXTRACT_{UNSIGNED,SIGNED} at offset 0 that covers an immediate constant's
// entire width is that constant itself (no other base has a known width
// here), and an extraction whose base is itself another
// extraction composes into a single extraction at a combined offset —
// same-kind composition narrows the length to whatever the inner
// extraction actually supplied, while a signedness-mixing composition
// keeps the outer extraction's own length and signedness since its bits
// are a strict sub-range of the inner one's already-extracted bits.
func simplifyExtract(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.Bitfield)
	if p.Offset == 0 {
		if imm, ok := constOf(c, p.Base); ok && imm.Width == int(p.Length) {
			return true, replaceValue(c, fn, in.ID, p.Base)
		}
	}

	arg1, err := c.Instr(p.Base)
	if err != nil || (arg1.Op != ir.OpExtractUnsigned && arg1.Op != ir.OpExtractSigned) {
		return false, nil
	}
	inner := arg1.Params.(ir.Bitfield)
	b := builderFor(fn)
	sameKind := in.Op == arg1.Op

	if sameKind && p.Offset < inner.Length {
		newOffset := inner.Offset + p.Offset
		newLength := p.Length
		if rem := inner.Length - p.Offset; rem < newLength {
			newLength = rem
		}
		var (
			newID ir.InstrID
			err   error
		)
		if in.Op == ir.OpExtractUnsigned {
			newID, err = b.BuilderExtractUnsigned(in.Block, inner.Base, newOffset, newLength)
		} else {
			newID, err = b.BuilderExtractSigned(in.Block, inner.Base, newOffset, newLength)
		}
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}

	if !sameKind && p.Offset < inner.Length && p.Offset+p.Length <= inner.Length {
		newOffset := inner.Offset + p.Offset
		var (
			newID ir.InstrID
			err   error
		)
		if in.Op == ir.OpExtractUnsigned {
			newID, err = b.BuilderExtractUnsigned(in.Block, inner.Base, newOffset, p.Length)
		} else {
			newID, err = b.BuilderExtractSigned(in.Block, inner.Base, newOffset, p.Length)
		}
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}

	return false, nil
}
