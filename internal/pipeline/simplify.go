package pipeline

import "ssaopt/internal/ir"

// Simplify is the peephole/algebraic rewrite engine (spec.md §4.4): for
// each block, walk siblings in order applying the opcode-specific rewrite
// table, repeating per block until a full walk makes no change.
type Simplify struct{}

func (Simplify) Name() string { return "simplify" }
func (Simplify) Description() string {
	return "fixpoint peephole/algebraic rewrite over every block"
}

func (Simplify) Apply(fn *ir.Function, s *ir.CodeStructure) (bool, error) {
	c := fn.Code
	changedAny := false
	for _, bid := range c.Blocks() {
		for {
			changed, err := simplifyBlockOnce(c, fn, s, bid)
			if err != nil {
				return changedAny, err
			}
			if !changed {
				break
			}
			changedAny = true
		}
	}
	return changedAny, nil
}

func simplifyBlockOnce(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, bid ir.BlockID) (bool, error) {
	b, err := c.Block(bid)
	if err != nil {
		return false, nil // merged away earlier in this same walk
	}
	changed := false
	for _, id := range append([]ir.InstrID(nil), b.Siblings...) {
		in, err := c.Instr(id)
		if err != nil {
			continue // dropped earlier in this same walk
		}
		did, err := rewriteOnce(c, fn, s, in)
		if err != nil {
			return changed, err
		}
		if did {
			changed = true
			s.DropSequencingCache()
		}
	}
	return changed, nil
}

// rewriteOnce dispatches a single instruction to its opcode-specific
// rewrite rule, if any. Each rule function is responsible for performing
// the full replacement (ReplaceReferences, debug rebinding, control-chain
// splicing where relevant, and dropping the old instruction) before
// returning true.
func rewriteOnce(c *ir.Code, fn *ir.Function, s *ir.CodeStructure, in *ir.Instruction) (bool, error) {
	switch in.Op {
	case ir.OpBoolNot:
		return simplifyBoolNot(c, fn, in)
	case ir.OpBoolOr, ir.OpBoolAnd:
		return simplifyBoolOp(c, fn, s, in)
	case ir.OpBitwiseAnd, ir.OpBitwiseOr, ir.OpBitwiseXor:
		return simplifyBitwise(c, fn, in)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		return simplifyArith(c, fn, in)
	case ir.OpShl, ir.OpShr, ir.OpAshr:
		return simplifyShift(c, fn, in)
	case ir.OpZeroExtend, ir.OpSignExtend:
		return simplifyExtension(c, fn, in)
	case ir.OpBitintCast:
		return simplifyBitintCast(c, fn, in)
	case ir.OpToBool:
		return simplifyToBool(c, fn, in)
	case ir.OpSelect:
		return simplifySelect(c, fn, in)
	case ir.OpSelectCompare:
		return simplifySelectCompare(c, fn, in)
	case ir.OpExtractUnsigned, ir.OpExtractSigned:
		return simplifyExtract(c, fn, in)
	case ir.OpLoad:
		return simplifyLoad(c, fn, in)
	case ir.OpStore:
		return simplifyStore(c, fn, in)
	case ir.OpCopyMemory:
		return simplifyCopyMemory(c, fn, in)
	case ir.OpAtomicStore, ir.OpAtomicCmpxchg:
		return simplifyAtomic(c, fn, in)
	case ir.OpBranch:
		return simplifyBranch(c, fn, s, in)
	case ir.OpBranchCompare:
		return simplifyBranchCompare(c, fn, s, in)
	case ir.OpPhi:
		return simplifyPhi(c, fn, s, in)
	case ir.OpUnreachable:
		return sweepUnreachable(c, fn, in)
	default:
		return false, nil
	}
}

func builderFor(fn *ir.Function) *ir.Builder {
	return ir.NewBuilder(fn.Code, fn.Debug)
}

// replaceValue is the common non-control-flow rewrite tail: redirect
// every use of oldID to newID, carry the debug binding forward, drop the
// superseded instruction.
func replaceValue(c *ir.Code, fn *ir.Function, oldID, newID ir.InstrID) error {
	if err := c.ReplaceReferences(newID, oldID); err != nil {
		return err
	}
	if fn.Debug != nil {
		fn.Debug.ReplaceLocalVariable(oldID, newID)
	}
	return c.DropInstr(oldID)
}

func constOf(c *ir.Code, id ir.InstrID) (ir.Immediate, bool) {
	in, err := c.Instr(id)
	if err != nil || in.Op != ir.OpImmediate {
		return ir.Immediate{}, false
	}
	return in.Params.(ir.Immediate), true
}

// isBoolProducing matches spec.md §4.4's definition: SCALAR_COMPARE, any
// BOOL_{OR,AND,NOT}/TO_BOOL, or an immediate 0/1 constant.
func isBoolProducing(c *ir.Code, id ir.InstrID) bool {
	in, err := c.Instr(id)
	if err != nil {
		return false
	}
	switch in.Op {
	case ir.OpScalarCompare, ir.OpBoolOr, ir.OpBoolAnd, ir.OpBoolNot, ir.OpToBool:
		return true
	case ir.OpImmediate:
		imm := in.Params.(ir.Immediate)
		return !imm.Float && (imm.Value == 0 || imm.Value == 1)
	default:
		return false
	}
}

func maskOf(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}
