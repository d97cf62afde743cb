package ir

// Builder wraps a *Code with one constructor method per opcode (spec.md §6
// "builder functions for each opcode"), in the naming convention the spec
// itself gives as examples (BuilderScalarCompare, BuilderInt8ToBool, …,
// BuilderFinalizeJump, BuilderFinalizeBranch, BuilderFinalizeBranchCompare).
// Every plain (non-finalize) builder appends to the block's sibling chain
// only; the Finalize* builders additionally splice the new instruction
// onto the control-flow chain, since they construct terminators.
type Builder struct {
	Code  *Code
	Debug *DebugInfo
}

func NewBuilder(c *Code, d *DebugInfo) *Builder {
	return &Builder{Code: c, Debug: d}
}

func (b *Builder) emit(block BlockID, op Opcode, params Params) (InstrID, error) {
	id, err := b.Code.newInstr(block, op, params)
	if err != nil {
		return NoInstr, err
	}
	if b.Debug != nil {
		b.Debug.SetInstructionLocationCursorOf(id)
	}
	return id, nil
}

func (b *Builder) finalize(block BlockID, op Opcode, params Params) (InstrID, error) {
	id, err := b.emit(block, op, params)
	if err != nil {
		return NoInstr, err
	}
	if err := b.Code.AddControl(block, id); err != nil {
		return NoInstr, err
	}
	return id, nil
}

// --- Literals and pure leaves ---

func (b *Builder) BuilderImmediate(block BlockID, value uint64, width int, float bool) (InstrID, error) {
	return b.emit(block, OpImmediate, Immediate{Value: value, Width: width, Float: float})
}

func (b *Builder) BuilderGetArgument(block BlockID, i int) (InstrID, error) {
	return b.emit(block, OpGetArgument, Index{I: i})
}

func (b *Builder) BuilderAllocLocal(block BlockID, slot int, size int64) (InstrID, error) {
	return b.emit(block, OpAllocLocal, AllocLocal{Slot: slot, Size: size})
}

func (b *Builder) BuilderTypeConst(block BlockID, t TypeID) (InstrID, error) {
	return b.emit(block, OpTypeConst, TypeRef{Type: t})
}

// --- Address-producing ---

func (b *Builder) BuilderRefLocal(block BlockID, slot int, offset int64) (InstrID, error) {
	return b.emit(block, OpRefLocal, AddrBase{Base: slot, Offset: offset})
}

func (b *Builder) BuilderGetGlobal(block BlockID, id int, offset int64) (InstrID, error) {
	return b.emit(block, OpGetGlobal, AddrBase{Base: id, Offset: offset})
}

func (b *Builder) BuilderGetThreadLocal(block BlockID, id int, offset int64) (InstrID, error) {
	return b.emit(block, OpGetThreadLocal, AddrBase{Base: id, Offset: offset})
}

// --- Memory ---

func (b *Builder) BuilderLoad(block BlockID, addr InstrID, width int, ext LoadExtension) (InstrID, error) {
	return b.emit(block, OpLoad, LoadMem{Addr: addr, Width: width, Extension: ext})
}

func (b *Builder) BuilderStore(block BlockID, addr, value InstrID, width int) (InstrID, error) {
	return b.emit(block, OpStore, StoreMem{Addr: addr, Value: value, Width: width})
}

func (b *Builder) BuilderStackAlloc(block BlockID, align, size InstrID) (InstrID, error) {
	return b.emit(block, OpStackAlloc, StackAllocParams{Align: align, Size: size})
}

func (b *Builder) BuilderCopyMemory(block BlockID, dst, src InstrID) (InstrID, error) {
	return b.emit(block, OpCopyMemory, Ref2{X: dst, Y: src})
}

// --- Arithmetic / bitwise / shifts ---

func (b *Builder) binaryWidth(block BlockID, op Opcode, x, y InstrID, width int) (InstrID, error) {
	return b.emit(block, op, BinaryWidth{X: x, Y: y, Width: width})
}

func (b *Builder) BuilderAdd(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpAdd, x, y, width)
}
func (b *Builder) BuilderSub(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpSub, x, y, width)
}
func (b *Builder) BuilderMul(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpMul, x, y, width)
}
func (b *Builder) BuilderDiv(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpDiv, x, y, width)
}
func (b *Builder) BuilderBitwiseAnd(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpBitwiseAnd, x, y, width)
}
func (b *Builder) BuilderBitwiseOr(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpBitwiseOr, x, y, width)
}
func (b *Builder) BuilderBitwiseXor(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpBitwiseXor, x, y, width)
}
func (b *Builder) BuilderShl(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpShl, x, y, width)
}
func (b *Builder) BuilderShr(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpShr, x, y, width)
}
func (b *Builder) BuilderAshr(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.binaryWidth(block, OpAshr, x, y, width)
}

func (b *Builder) BuilderBitwiseNot(block BlockID, x InstrID, width int) (InstrID, error) {
	return b.emit(block, OpBitwiseNot, UnaryWidth{X: x, Width: width})
}

func (b *Builder) overflowArith(block BlockID, op Opcode, x, y, resultSpace InstrID, width int) (InstrID, error) {
	return b.emit(block, op, OverflowArith{X: x, Y: y, ResultSpace: resultSpace, Width: width})
}

func (b *Builder) BuilderOverflowAdd(block BlockID, x, y, resultSpace InstrID, width int) (InstrID, error) {
	return b.overflowArith(block, OpOverflowAdd, x, y, resultSpace, width)
}
func (b *Builder) BuilderOverflowSub(block BlockID, x, y, resultSpace InstrID, width int) (InstrID, error) {
	return b.overflowArith(block, OpOverflowSub, x, y, resultSpace, width)
}
func (b *Builder) BuilderOverflowMul(block BlockID, x, y, resultSpace InstrID, width int) (InstrID, error) {
	return b.overflowArith(block, OpOverflowMul, x, y, resultSpace, width)
}

// --- Booleans ---

func (b *Builder) BuilderScalarCompare(block BlockID, x, y InstrID, cmp Comparison) (InstrID, error) {
	return b.emit(block, OpScalarCompare, CompareRef2{X: x, Y: y, Cmp: cmp})
}

func (b *Builder) BuilderBoolNot(block BlockID, x InstrID, width int) (InstrID, error) {
	return b.emit(block, OpBoolNot, UnaryWidth{X: x, Width: width})
}

func (b *Builder) BuilderBoolOr(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.emit(block, OpBoolOr, BoolOp{X: x, Y: y, Width: width})
}

func (b *Builder) BuilderBoolAnd(block BlockID, x, y InstrID, width int) (InstrID, error) {
	return b.emit(block, OpBoolAnd, BoolOp{X: x, Y: y, Width: width})
}

func (b *Builder) BuilderToBool(block BlockID, x InstrID, width int) (InstrID, error) {
	return b.emit(block, OpToBool, UnaryWidth{X: x, Width: width})
}

// BuilderInt8ToBool is the narrow-width BuilderToBool the spec names
// directly (spec.md §6 example list): 8-bit is the canonical bool width
// every BOOL_NOT/TO_BOOL narrowing rule converges on (spec.md §4.4).
func (b *Builder) BuilderInt8ToBool(block BlockID, x InstrID) (InstrID, error) {
	return b.BuilderToBool(block, x, 8)
}

func (b *Builder) BuilderSelect(block BlockID, cond, a, c InstrID) (InstrID, error) {
	return b.emit(block, OpSelect, SelectCond{Cond: cond, A: a, B: c})
}

func (b *Builder) BuilderSelectCompare(block BlockID, cmp Comparison, a, c, then, els InstrID) (InstrID, error) {
	return b.emit(block, OpSelectCompare, SelectCompareParams{Cmp: cmp, A: a, B: c, Then: then, Else: els})
}

// --- Extensions / casts / bit-fields ---

func (b *Builder) BuilderZeroExtend(block BlockID, x InstrID, from, to int) (InstrID, error) {
	return b.emit(block, OpZeroExtend, Extension{X: x, FromWidth: from, ToWidth: to})
}

func (b *Builder) BuilderSignExtend(block BlockID, x InstrID, from, to int) (InstrID, error) {
	return b.emit(block, OpSignExtend, Extension{X: x, FromWidth: from, ToWidth: to})
}

func (b *Builder) BuilderBitintCast(block BlockID, x InstrID, from, to int) (InstrID, error) {
	return b.emit(block, OpBitintCast, Extension{X: x, FromWidth: from, ToWidth: to})
}

func (b *Builder) BuilderExtractUnsigned(block BlockID, base InstrID, offset, length uint8) (InstrID, error) {
	return b.emit(block, OpExtractUnsigned, Bitfield{Base: base, Offset: offset, Length: length})
}

func (b *Builder) BuilderExtractSigned(block BlockID, base InstrID, offset, length uint8) (InstrID, error) {
	return b.emit(block, OpExtractSigned, Bitfield{Base: base, Offset: offset, Length: length})
}

// --- Atomics ---

func (b *Builder) BuilderAtomicStore(block BlockID, object, desired InstrID, ordering string, scalar bool) (InstrID, error) {
	return b.emit(block, OpAtomicStore, AtomicOp{Object: object, Desired: desired, Ordering: ordering, Scalar: scalar})
}

func (b *Builder) BuilderAtomicCmpxchg(block BlockID, object, expected, desired InstrID, ordering string, scalar bool) (InstrID, error) {
	return b.emit(block, OpAtomicCmpxchg, AtomicOp{Object: object, Expected: expected, Desired: desired, Ordering: ordering, Scalar: scalar})
}

// --- Calls ---

// BuilderInvoke wires a non-tail call: the CallNode must already exist
// (Code.NewCall) with its arguments/return-space populated.
func (b *Builder) BuilderInvoke(block BlockID, indirect InstrID, call CallID) (InstrID, error) {
	return b.emit(block, OpInvoke, CallRefParams{Indirect: indirect, Call: call})
}

// --- Phi ---
// New phis are constructed via Code.NewPhi, which already allocates the
// backing instruction; no separate builder is needed (spec.md §6 groups
// phi construction under "Phi ops", not "Builder functions").

// --- Control flow (Finalize* terminators) ---

func (b *Builder) BuilderFinalizeJump(block, target BlockID) (InstrID, error) {
	return b.finalize(block, OpJump, JumpParams{Target: target})
}

func (b *Builder) BuilderFinalizeBranch(block BlockID, cond InstrID, target, alt BlockID, variant BranchVariant) (InstrID, error) {
	return b.finalize(block, OpBranch, BranchParams{Cond: cond, Target: target, Alt: alt, Variant: variant})
}

func (b *Builder) BuilderFinalizeBranchCompare(block BlockID, x, y InstrID, cmp Comparison, target, alt BlockID) (InstrID, error) {
	return b.finalize(block, OpBranchCompare, BranchCompareParams{X: x, Y: y, Cmp: cmp, Target: target, Alt: alt})
}

func (b *Builder) BuilderFinalizeIJump(block BlockID, addr InstrID) (InstrID, error) {
	return b.finalize(block, OpIJump, Ref1{X: addr})
}

func (b *Builder) BuilderFinalizeInlineAssembly(block BlockID, asm AsmID) (InstrID, error) {
	return b.finalize(block, OpInlineAssembly, InlineAsmParams{Asm: asm})
}

func (b *Builder) BuilderFinalizeReturn(block BlockID, value InstrID) (InstrID, error) {
	return b.finalize(block, OpReturn, Ref1{X: value})
}

func (b *Builder) BuilderFinalizeUnreachable(block BlockID) (InstrID, error) {
	return b.finalize(block, OpUnreachable, NoParams{})
}

func (b *Builder) BuilderFinalizeTailInvoke(block BlockID, indirect InstrID, call CallID, virtual bool) (InstrID, error) {
	op := OpTailInvoke
	if virtual {
		op = OpTailInvokeVirtual
	}
	return b.finalize(block, op, CallRefParams{Indirect: indirect, Call: call})
}

func (b *Builder) BuilderBlockLabel(block BlockID, target BlockID) (InstrID, error) {
	return b.emit(block, OpBlockLabel, BlockRef{Block: target})
}

// --- Lifetime / scope / environment bookkeeping ---

func (b *Builder) BuilderLocalLifetimeMark(block BlockID) (InstrID, error) {
	return b.emit(block, OpLocalLifetimeMark, NoParams{})
}
func (b *Builder) BuilderScopePush(block BlockID) (InstrID, error) {
	return b.emit(block, OpScopePush, NoParams{})
}
func (b *Builder) BuilderScopePop(block BlockID) (InstrID, error) {
	return b.emit(block, OpScopePop, NoParams{})
}
func (b *Builder) BuilderFloatEnvSave(block BlockID) (InstrID, error) {
	return b.emit(block, OpFloatEnvSave, NoParams{})
}
func (b *Builder) BuilderFloatEnvClear(block BlockID) (InstrID, error) {
	return b.emit(block, OpFloatEnvClear, NoParams{})
}
func (b *Builder) BuilderFloatEnvUpdate(block BlockID) (InstrID, error) {
	return b.emit(block, OpFloatEnvUpdate, NoParams{})
}
func (b *Builder) BuilderVarargStart(block BlockID) (InstrID, error) {
	return b.emit(block, OpVarargStart, NoParams{})
}
func (b *Builder) BuilderVarargGet(block BlockID) (InstrID, error) {
	return b.emit(block, OpVarargGet, NoParams{})
}
func (b *Builder) BuilderVarargEnd(block BlockID) (InstrID, error) {
	return b.emit(block, OpVarargEnd, NoParams{})
}

func (b *Builder) BuilderBitintExtract(block BlockID, x InstrID) (InstrID, error) {
	return b.emit(block, OpBitintExtract, Ref1{X: x})
}
func (b *Builder) BuilderBitintInsert(block BlockID, dst, src InstrID) (InstrID, error) {
	return b.emit(block, OpBitintInsert, Ref2{X: dst, Y: src})
}
