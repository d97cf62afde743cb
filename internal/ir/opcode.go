package ir

// Opcode is the tagged-union discriminant for Instruction.Params. Widths
// (8/16/32/64 bits) are carried as a field on the parameter struct rather
// than as separate opcode constants per width — see DESIGN.md's Open
// Question decision on per-width opcode explosion.
type Opcode int

const (
	OpInvalid Opcode = iota

	// Literals and pure leaves (no inputs).
	OpImmediate    // integer/float constant; Params = Immediate
	OpGetArgument  // i-th function argument; Params = Index
	OpAllocLocal   // declares local storage slot; Params = AllocLocal
	OpTypeConst    // reified type operand; Params = TypeRef

	// Address-producing opcodes (constant offset folded in by simplifier).
	OpRefLocal        // Params = AddrBase (local slot + offset)
	OpGetGlobal       // Params = AddrBase (global id + offset)
	OpGetThreadLocal  // Params = AddrBase (TLS id + offset)

	// Memory.
	OpLoad        // Params = LoadMem
	OpStore       // Params = StoreMem
	OpStackAlloc  // Params = StackAllocParams
	OpCopyMemory  // Params = Ref2 (dst, src)

	// Arithmetic / bitwise / shifts, all width-tagged BinaryWidth (or
	// UnaryWidth for NOT).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpBitwiseNot // UnaryWidth
	OpShl
	OpShr
	OpAshr
	OpOverflowAdd // Params = OverflowArith
	OpOverflowSub
	OpOverflowMul

	// Booleans.
	OpScalarCompare // Params = CompareRef2
	OpBoolNot       // Params = UnaryWidth
	OpBoolOr        // Params = BoolOp
	OpBoolAnd       // Params = BoolOp
	OpToBool        // Params = UnaryWidth ("INTw_TO_BOOL")
	OpSelect        // Params = SelectCond
	OpSelectCompare // Params = SelectCompareParams

	// Extensions / casts / bit-fields.
	OpZeroExtend   // Params = Extension
	OpSignExtend   // Params = Extension
	OpBitintCast   // Params = Extension (FromWidth == ToWidth is the identity rule)
	OpExtractUnsigned // Params = Bitfield
	OpExtractSigned   // Params = Bitfield

	// Atomics.
	OpAtomicStore    // Params = AtomicOp
	OpAtomicCmpxchg  // Params = AtomicOp

	// Calls.
	OpInvoke            // Params = CallRefParams
	OpTailInvoke        // terminator; Params = CallRefParams
	OpTailInvokeVirtual // terminator; Params = CallRefParams

	// Phi.
	OpPhi // Params = PhiRefParams

	// Control-flow / block-local bookkeeping.
	OpJump               // terminator; Params = JumpParams
	OpBranch              // terminator; Params = BranchParams
	OpBranchCompare        // terminator; Params = BranchCompareParams
	OpIJump                // terminator; Params = Ref1 (indirect target address)
	OpInlineAssembly       // terminator-capable; Params = InlineAsmParams
	OpReturn               // terminator; Params = Ref1 (NoInstr if void)
	OpUnreachable          // terminator; Params = NoParams
	OpBlockLabel           // Params = BlockRef; marks a block as an indirect-jump target

	// Lifetime / scope / environment bookkeeping the unreachable sweep walks
	// past or deletes; bookkeeping with no data inputs (IsSideEffectFree
	// reports them as not side-effect free).
	OpLocalLifetimeMark
	OpScopePush
	OpScopePop
	OpFloatEnvSave
	OpFloatEnvClear
	OpFloatEnvUpdate
	OpVarargStart
	OpVarargGet
	OpVarargEnd

	// BitInt extract/insert referenced only by the unreachable sweep (§4.4)
	// and escape analysis (§4.5); modelled generically since no rewrite in
	// this spec inspects their internals.
	OpBitintExtract // Params = Ref1
	OpBitintInsert  // Params = Ref2
)

// Comparison is the dual-taggable comparison kind carried by
// OpScalarCompare/OpBranchCompare/OpSelectCompare.
type Comparison int

const (
	CmpEqual Comparison = iota
	CmpNotEqual
	CmpSignedLess
	CmpSignedLessEqual
	CmpSignedGreater
	CmpSignedGreaterEqual
	CmpUnsignedLess
	CmpUnsignedLessEqual
	CmpUnsignedGreater
	CmpUnsignedGreaterEqual
	CmpFloatOrderedLess
	CmpFloatOrderedLessEqual
	CmpFloatOrderedGreater
	CmpFloatOrderedGreaterEqual
)

// Inverse returns the mathematically dual comparison: the one whose result
// is always the logical negation of cmp's (BOOL_NOT(SCALAR_COMPARE(cmp))
// folds to SCALAR_COMPARE(Inverse(cmp))). Float orderings invert to their
// negated-ordered counterpart, matching the spec's note that floating
// comparisons each have a distinct dual (no NaN-unordered here: this
// IR's float comparisons are assumed already-ordered by construction,
// consistent with the C source's post-promotion float compare opcodes).
func (c Comparison) Inverse() (Comparison, bool) {
	switch c {
	case CmpEqual:
		return CmpNotEqual, true
	case CmpNotEqual:
		return CmpEqual, true
	case CmpSignedLess:
		return CmpSignedGreaterEqual, true
	case CmpSignedGreaterEqual:
		return CmpSignedLess, true
	case CmpSignedGreater:
		return CmpSignedLessEqual, true
	case CmpSignedLessEqual:
		return CmpSignedGreater, true
	case CmpUnsignedLess:
		return CmpUnsignedGreaterEqual, true
	case CmpUnsignedGreaterEqual:
		return CmpUnsignedLess, true
	case CmpUnsignedGreater:
		return CmpUnsignedLessEqual, true
	case CmpUnsignedLessEqual:
		return CmpUnsignedGreater, true
	case CmpFloatOrderedLess:
		return CmpFloatOrderedGreaterEqual, true
	case CmpFloatOrderedGreaterEqual:
		return CmpFloatOrderedLess, true
	case CmpFloatOrderedGreater:
		return CmpFloatOrderedLessEqual, true
	case CmpFloatOrderedLessEqual:
		return CmpFloatOrderedGreater, true
	default:
		return 0, false
	}
}
