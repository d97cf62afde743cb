package ir

// Params holds the opcode-specific operand shape of an Instruction. Every
// concrete type below corresponds to one row of the parameter-shape table
// in spec.md §3. Using an interface plus one struct per shape is the Go
// analogue of the tagged union/variant the spec's design notes (§9)
// recommend; kanso's Instruction implementations (types.go) use the same
// "one struct type per instruction kind" shape, just without a shared
// sum-type marker.
type Params interface {
	isParams()
}

type NoParams struct{}

func (NoParams) isParams() {}

type Ref1 struct{ X InstrID }

func (Ref1) isParams() {}

type Ref2 struct{ X, Y InstrID }

func (Ref2) isParams() {}

type Ref3 struct{ X, Y, Z InstrID }

func (Ref3) isParams() {}

type Ref4 struct{ W, X, Y, Z InstrID }

func (Ref4) isParams() {}

// Immediate is a compile-time literal of Width bits. Float is set when the
// literal should be interpreted as a floating value (Value then holds the
// raw bit pattern).
type Immediate struct {
	Value uint64
	Width int
	Float bool
}

func (Immediate) isParams() {}

type Index struct{ I int }

func (Index) isParams() {}

type AllocLocal struct {
	Slot int
	Size int64
}

func (AllocLocal) isParams() {}

type TypeRef struct{ Type TypeID }

func (TypeRef) isParams() {}

// AddrBase is the parameter shape of the address-producing opcodes
// (REF_LOCAL/GET_GLOBAL/GET_THREAD_LOCAL). Offset is the constant byte
// offset the ADD/SUB folding rules (spec.md §4.4) collapse into the
// address computation.
type AddrBase struct {
	Base   int
	Offset int64
}

func (AddrBase) isParams() {}

// BinaryWidth is the common shape of ADD/SUB/MUL/DIV/bitwise ops and
// shifts: two operand refs at a fixed bit width.
type BinaryWidth struct {
	X, Y  InstrID
	Width int
}

func (BinaryWidth) isParams() {}

type UnaryWidth struct {
	X     InstrID
	Width int
}

func (UnaryWidth) isParams() {}

type CompareRef2 struct {
	X, Y InstrID
	Cmp  Comparison
}

func (CompareRef2) isParams() {}

// BoolOp is BOOL_OR/BOOL_AND at a given width.
type BoolOp struct {
	X, Y  InstrID
	Width int
}

func (BoolOp) isParams() {}

type SelectCond struct {
	Cond, A, B InstrID
}

func (SelectCond) isParams() {}

type SelectCompareParams struct {
	Cmp     Comparison
	A, B    InstrID
	Then, Else InstrID
}

func (SelectCompareParams) isParams() {}

// Extension covers zero/sign-extend and the bit-int identity cast.
type Extension struct {
	X                    InstrID
	FromWidth, ToWidth int
}

func (Extension) isParams() {}

// Bitfield is the EXTRACT_{UNSIGNED,SIGNED} shape.
type Bitfield struct {
	Base           InstrID
	Offset, Length uint8
}

func (Bitfield) isParams() {}

// LoadExtension tags what a LOAD does to bits above its natural width.
type LoadExtension int

const (
	NoExtend LoadExtension = iota
	ZeroExtend
	SignExtend
)

type LoadMem struct {
	Addr      InstrID
	Width     int
	Extension LoadExtension
}

func (LoadMem) isParams() {}

type StoreMem struct {
	Addr, Value InstrID
	Width       int
}

func (StoreMem) isParams() {}

type StackAllocParams struct {
	Align, Size InstrID
}

func (StackAllocParams) isParams() {}

type OverflowArith struct {
	X, Y        InstrID
	ResultSpace InstrID
	Width       int
}

func (OverflowArith) isParams() {}

type AtomicOp struct {
	Object, Expected, Desired InstrID
	Ordering                  string
	Scalar                    bool
}

func (AtomicOp) isParams() {}

type CallRefParams struct {
	Indirect InstrID // NoInstr for a direct call
	Call     CallID
}

func (CallRefParams) isParams() {}

type PhiRefParams struct{ Phi PhiID }

func (PhiRefParams) isParams() {}

type JumpParams struct{ Target BlockID }

func (JumpParams) isParams() {}

type BranchVariant int

const (
	BranchIfTrue BranchVariant = iota
	BranchIfFalse
)

type BranchParams struct {
	Cond         InstrID
	Target, Alt  BlockID
	Variant      BranchVariant
}

func (BranchParams) isParams() {}

type BranchCompareParams struct {
	X, Y        InstrID
	Cmp         Comparison
	Target, Alt BlockID
}

func (BranchCompareParams) isParams() {}

type InlineAsmParams struct{ Asm AsmID }

func (InlineAsmParams) isParams() {}

type BlockRef struct{ Block BlockID }

func (BlockRef) isParams() {}
