package ir

// visitRefs calls visit for every InstrID operand held directly in p,
// independent of instruction kind. It is the single place that knows the
// field layout of every Params shape (spec.md §4.1 "extract_inputs"); every
// other introspection helper in this package is built on top of it.
func visitRefs(p Params, visit func(InstrID)) {
	switch v := p.(type) {
	case Ref1:
		visit(v.X)
	case Ref2:
		visit(v.X)
		visit(v.Y)
	case Ref3:
		visit(v.X)
		visit(v.Y)
		visit(v.Z)
	case Ref4:
		visit(v.W)
		visit(v.X)
		visit(v.Y)
		visit(v.Z)
	case BinaryWidth:
		visit(v.X)
		visit(v.Y)
	case UnaryWidth:
		visit(v.X)
	case CompareRef2:
		visit(v.X)
		visit(v.Y)
	case BoolOp:
		visit(v.X)
		visit(v.Y)
	case SelectCond:
		visit(v.Cond)
		visit(v.A)
		visit(v.B)
	case SelectCompareParams:
		visit(v.A)
		visit(v.B)
		visit(v.Then)
		visit(v.Else)
	case Extension:
		visit(v.X)
	case Bitfield:
		visit(v.Base)
	case LoadMem:
		visit(v.Addr)
	case StoreMem:
		visit(v.Addr)
		visit(v.Value)
	case StackAllocParams:
		visit(v.Align)
		visit(v.Size)
	case OverflowArith:
		visit(v.X)
		visit(v.Y)
		visit(v.ResultSpace)
	case AtomicOp:
		visit(v.Object)
		visit(v.Expected)
		visit(v.Desired)
	case BranchParams:
		visit(v.Cond)
	case BranchCompareParams:
		visit(v.X)
		visit(v.Y)
	}
	// NoParams, Immediate, Index, AllocLocal, TypeRef, AddrBase, CallRefParams,
	// PhiRefParams, JumpParams, InlineAsmParams, BlockRef hold no direct
	// InstrID operands (calls/asm reference their operands out-of-line, see
	// ExtractInputs).
}

// replaceInParams rewrites every direct occurrence of oldID to newID inside
// p, returning the (possibly identical) replacement value. Params structs
// are immutable value types, so replacement always produces a new Params
// rather than mutating p in place (spec.md §3 "Immutable entries").
func replaceInParams(p Params, oldID, newID InstrID) Params {
	swap := func(id InstrID) InstrID {
		if id == oldID {
			return newID
		}
		return id
	}
	switch v := p.(type) {
	case Ref1:
		v.X = swap(v.X)
		return v
	case Ref2:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		return v
	case Ref3:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		v.Z = swap(v.Z)
		return v
	case Ref4:
		v.W = swap(v.W)
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		v.Z = swap(v.Z)
		return v
	case BinaryWidth:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		return v
	case UnaryWidth:
		v.X = swap(v.X)
		return v
	case CompareRef2:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		return v
	case BoolOp:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		return v
	case SelectCond:
		v.Cond = swap(v.Cond)
		v.A = swap(v.A)
		v.B = swap(v.B)
		return v
	case SelectCompareParams:
		v.A = swap(v.A)
		v.B = swap(v.B)
		v.Then = swap(v.Then)
		v.Else = swap(v.Else)
		return v
	case Extension:
		v.X = swap(v.X)
		return v
	case Bitfield:
		v.Base = swap(v.Base)
		return v
	case LoadMem:
		v.Addr = swap(v.Addr)
		return v
	case StoreMem:
		v.Addr = swap(v.Addr)
		v.Value = swap(v.Value)
		return v
	case StackAllocParams:
		v.Align = swap(v.Align)
		v.Size = swap(v.Size)
		return v
	case OverflowArith:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		v.ResultSpace = swap(v.ResultSpace)
		return v
	case AtomicOp:
		v.Object = swap(v.Object)
		v.Expected = swap(v.Expected)
		v.Desired = swap(v.Desired)
		return v
	case BranchParams:
		v.Cond = swap(v.Cond)
		return v
	case BranchCompareParams:
		v.X = swap(v.X)
		v.Y = swap(v.Y)
		return v
	default:
		return p
	}
}

// ExtractInputs visits every instruction id the instruction consumes as a
// data input. When resolvePhi is true, an OpPhi instruction yields the ids
// on its Phi's Links rather than nothing (spec.md §4.1: "extract_inputs may
// optionally resolve through a phi to its incoming values").
func ExtractInputs(c *Code, instr *Instruction, resolvePhi bool, visit func(InstrID)) {
	visitRefs(instr.Params, visit)
	switch p := instr.Params.(type) {
	case PhiRefParams:
		if !resolvePhi {
			return
		}
		phi := c.phis[p.Phi]
		if phi == nil {
			return
		}
		blocks := phiLinkBlocks(phi)
		sortBlockIDs(blocks)
		for _, blk := range blocks {
			visit(phi.Links[blk])
		}
	case CallRefParams:
		call := c.calls[p.Call]
		if call == nil {
			return
		}
		if call.Indirect.Valid() {
			visit(call.Indirect)
		}
		for _, a := range call.Args {
			visit(a)
		}
		if call.ReturnSpace.Valid() {
			visit(call.ReturnSpace)
		}
	case InlineAsmParams:
		asm := c.asms[p.Asm]
		if asm == nil {
			return
		}
		for _, prm := range asm.Params {
			if prm.ReadRef.Valid() {
				visit(prm.ReadRef)
			}
			if prm.LoadStore.Valid() {
				visit(prm.LoadStore)
			}
		}
	}
}

func phiLinkBlocks(p *Phi) []BlockID {
	blocks := make([]BlockID, 0, len(p.Links))
	for b := range p.Links {
		blocks = append(blocks, b)
	}
	return blocks
}

// IsControlFlow reports whether instr sits on (or may sit on) a block's
// control-flow chain: any instruction with a chain neighbor (e.g. an INVOKE
// placed on the chain), plus the terminators and inline assembly, which can
// act as a terminator when it carries jump targets (spec.md §3, §4.1). A
// non-terminator that is the chain's only member has no neighbor and is
// not reported.
func IsControlFlow(instr *Instruction) bool {
	if instr.PrevControl.Valid() || instr.NextControl.Valid() {
		return true
	}
	switch instr.Op {
	case OpJump, OpBranch, OpBranchCompare, OpIJump, OpReturn, OpUnreachable,
		OpTailInvoke, OpTailInvokeVirtual, OpInlineAssembly:
		return true
	default:
		return false
	}
}

// IsSideEffectFree reports whether instr can be deleted outright when it
// has no uses, without observably changing program behavior (spec.md §4.1).
// Memory/atomic operations, calls and control flow are never side-effect
// free; everything else that merely computes a value from its inputs is.
func IsSideEffectFree(instr *Instruction) bool {
	switch instr.Op {
	case OpLoad, OpStore, OpStackAlloc, OpCopyMemory,
		OpAtomicStore, OpAtomicCmpxchg,
		OpInvoke, OpTailInvoke, OpTailInvokeVirtual,
		OpInlineAssembly,
		OpJump, OpBranch, OpBranchCompare, OpIJump, OpReturn, OpUnreachable,
		OpLocalLifetimeMark, OpScopePush, OpScopePop,
		OpFloatEnvSave, OpFloatEnvClear, OpFloatEnvUpdate,
		OpVarargStart, OpVarargGet, OpVarargEnd,
		OpBlockLabel:
		return false
	default:
		return true
	}
}

// SoleUse returns the single instruction that consumes v's result, or
// (NoInstr, false) if v has zero or more-than-one consumer. Used by the
// simplifier's fusion rules (spec.md §4.4), which only fire when an
// intermediate result has exactly one use.
func SoleUse(c *Code, v InstrID) (InstrID, bool) {
	uses := c.Uses(v)
	if len(uses) != 1 {
		return NoInstr, false
	}
	return uses[0], true
}
