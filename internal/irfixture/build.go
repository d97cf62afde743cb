package irfixture

import (
	"fmt"

	"ssaopt/internal/ir"
)

// cmpKinds maps the short comparison-kind spellings fixtures use onto the
// Comparison constants cmp/branch-compare/select-compare carry.
var cmpKinds = map[string]ir.Comparison{
	"eq":  ir.CmpEqual,
	"ne":  ir.CmpNotEqual,
	"slt": ir.CmpSignedLess,
	"sle": ir.CmpSignedLessEqual,
	"sgt": ir.CmpSignedGreater,
	"sge": ir.CmpSignedGreaterEqual,
	"ult": ir.CmpUnsignedLess,
	"ule": ir.CmpUnsignedLessEqual,
	"ugt": ir.CmpUnsignedGreater,
	"uge": ir.CmpUnsignedGreaterEqual,
}

type pendingPhiLink struct {
	phi  ir.PhiID
	pred string
	val  string
}

// builder walks a parsed File once, emitting one Function. Block names
// are resolved in a first pass so forward jump/branch targets work; value
// names are resolved as their defining statement is reached, except for
// phi operands, which are deferred until every block has been built so a
// loop's back-edge value can be named before it is written.
type builder struct {
	fn      *ir.Function
	code    *ir.Code
	bd      *ir.Builder
	blocks  map[string]ir.BlockID
	values  map[string]ir.InstrID
	pending []pendingPhiLink
}

// Build interprets a parsed fixture into a fresh Function named name.
func Build(name string, f *File) (*ir.Function, error) {
	if len(f.Blocks) == 0 {
		return nil, fmt.Errorf("irfixture: no blocks")
	}
	fn := ir.NewFunction(name)
	b := &builder{
		fn:     fn,
		code:   fn.Code,
		bd:     ir.NewBuilder(fn.Code, fn.Debug),
		blocks: make(map[string]ir.BlockID),
		values: make(map[string]ir.InstrID),
	}
	for i, blk := range f.Blocks {
		if i == 0 {
			b.blocks[blk.Name] = b.code.Entry
			continue
		}
		if _, dup := b.blocks[blk.Name]; dup {
			return nil, fmt.Errorf("irfixture: block %q redeclared", blk.Name)
		}
		b.blocks[blk.Name] = b.code.NewBlock(false)
	}
	for _, blk := range f.Blocks {
		bid := b.blocks[blk.Name]
		for _, st := range blk.Stmts {
			if err := b.stmt(bid, st); err != nil {
				return nil, fmt.Errorf("irfixture: block %q: %w", blk.Name, err)
			}
		}
	}
	for _, link := range b.pending {
		pred, ok := b.blocks[link.pred]
		if !ok {
			return nil, fmt.Errorf("irfixture: phi refers to undeclared block %q", link.pred)
		}
		val, ok := b.values[link.val]
		if !ok {
			return nil, fmt.Errorf("irfixture: phi refers to undeclared value %q", link.val)
		}
		if err := b.code.PhiAttach(link.phi, pred, val); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

// Parse lexes and parses source into a File; see grammar.go for the
// notation ("block name: stmt*", "dest = op arg, arg" | "op arg, arg").
func Parse(source string) (*File, error) {
	return parse(source)
}

// BuildFunction is the one-call convenience most tests reach for: parse
// source and interpret it into a named Function in a single step.
func BuildFunction(name, source string) (*ir.Function, error) {
	f, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Build(name, f)
}

func (b *builder) stmt(bid ir.BlockID, st *Stmt) error {
	switch st.Op {
	case "arg":
		i, err := intArg(st, 0)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderGetArgument(bid, int(i))
		return b.bind(st, v, err)
	case "imm":
		val, err := intArg(st, 0)
		if err != nil {
			return err
		}
		width, err := intArg(st, 1)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderImmediate(bid, uint64(val), int(width), false)
		return b.bind(st, v, err)
	case "add", "sub", "mul", "div", "and", "or", "xor", "shl", "shr", "ashr":
		x, y, err := b.refPair(st, 0, 1)
		if err != nil {
			return err
		}
		width, err := intArg(st, 2)
		if err != nil {
			return err
		}
		v, err := b.binaryOp(st.Op, bid, x, y, int(width))
		return b.bind(st, v, err)
	case "bool_and", "bool_or":
		x, y, err := b.refPair(st, 0, 1)
		if err != nil {
			return err
		}
		width, err := intArg(st, 2)
		if err != nil {
			return err
		}
		var v ir.InstrID
		if st.Op == "bool_and" {
			v, err = b.bd.BuilderBoolAnd(bid, x, y, int(width))
		} else {
			v, err = b.bd.BuilderBoolOr(bid, x, y, int(width))
		}
		return b.bind(st, v, err)
	case "bool_not":
		x, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		width, err := intArg(st, 1)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderBoolNot(bid, x, int(width))
		return b.bind(st, v, err)
	case "to_bool":
		x, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		width, err := intArg(st, 1)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderToBool(bid, x, int(width))
		return b.bind(st, v, err)
	case "cmp":
		x, y, err := b.refPair(st, 0, 1)
		if err != nil {
			return err
		}
		kindName, err := nameArg(st, 2)
		if err != nil {
			return err
		}
		kind, ok := cmpKinds[kindName]
		if !ok {
			return fmt.Errorf("unknown comparison kind %q", kindName)
		}
		v, err := b.bd.BuilderScalarCompare(bid, x, y, kind)
		return b.bind(st, v, err)
	case "select":
		cond, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		a, err := b.ref(st, 1)
		if err != nil {
			return err
		}
		c, err := b.ref(st, 2)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderSelect(bid, cond, a, c)
		return b.bind(st, v, err)
	case "alloc_local":
		slot, err := intArg(st, 0)
		if err != nil {
			return err
		}
		size, err := intArg(st, 1)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderAllocLocal(bid, int(slot), size)
		return b.bind(st, v, err)
	case "ref_local":
		slot, err := intArg(st, 0)
		if err != nil {
			return err
		}
		offset, err := intArg(st, 1)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderRefLocal(bid, int(slot), offset)
		return b.bind(st, v, err)
	case "load":
		addr, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		width, err := intArg(st, 1)
		if err != nil {
			return err
		}
		ext := ir.NoExtend
		if len(st.Args) > 2 {
			name, err := nameArg(st, 2)
			if err != nil {
				return err
			}
			switch name {
			case "zx":
				ext = ir.ZeroExtend
			case "sx":
				ext = ir.SignExtend
			default:
				return fmt.Errorf("unknown load extension %q", name)
			}
		}
		v, err := b.bd.BuilderLoad(bid, addr, int(width), ext)
		return b.bind(st, v, err)
	case "store":
		addr, value, err := b.refPair(st, 0, 1)
		if err != nil {
			return err
		}
		width, err := intArg(st, 2)
		if err != nil {
			return err
		}
		_, err = b.bd.BuilderStore(bid, addr, value, int(width))
		return err
	case "zext", "sext":
		x, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		from, err := intArg(st, 1)
		if err != nil {
			return err
		}
		to, err := intArg(st, 2)
		if err != nil {
			return err
		}
		var v ir.InstrID
		if st.Op == "zext" {
			v, err = b.bd.BuilderZeroExtend(bid, x, int(from), int(to))
		} else {
			v, err = b.bd.BuilderSignExtend(bid, x, int(from), int(to))
		}
		return b.bind(st, v, err)
	case "bitcast":
		x, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		from, err := intArg(st, 1)
		if err != nil {
			return err
		}
		to, err := intArg(st, 2)
		if err != nil {
			return err
		}
		v, err := b.bd.BuilderBitintCast(bid, x, int(from), int(to))
		return b.bind(st, v, err)
	case "phi":
		if len(st.Args)%2 != 0 {
			return fmt.Errorf("phi needs pred,value pairs, got %d args", len(st.Args))
		}
		phiID, instrID, err := b.code.NewPhi(bid)
		if err != nil {
			return err
		}
		if st.Dest == "" {
			return fmt.Errorf("phi statement needs a destination name")
		}
		b.values[st.Dest] = instrID
		for i := 0; i+1 < len(st.Args); i += 2 {
			pred, err := nameArg(st, i)
			if err != nil {
				return err
			}
			val, err := nameArg(st, i+1)
			if err != nil {
				return err
			}
			b.pending = append(b.pending, pendingPhiLink{phi: phiID, pred: pred, val: val})
		}
		return nil
	case "jump":
		target, err := b.blockArg(st, 0)
		if err != nil {
			return err
		}
		_, err = b.bd.BuilderFinalizeJump(bid, target)
		return err
	case "branch":
		cond, err := b.ref(st, 0)
		if err != nil {
			return err
		}
		target, err := b.blockArg(st, 1)
		if err != nil {
			return err
		}
		alt, err := b.blockArg(st, 2)
		if err != nil {
			return err
		}
		variant := ir.BranchIfTrue
		if len(st.Args) > 3 {
			name, err := nameArg(st, 3)
			if err != nil {
				return err
			}
			if name == "iffalse" {
				variant = ir.BranchIfFalse
			}
		}
		_, err = b.bd.BuilderFinalizeBranch(bid, cond, target, alt, variant)
		return err
	case "return":
		value := ir.NoInstr
		if len(st.Args) > 0 {
			v, err := b.ref(st, 0)
			if err != nil {
				return err
			}
			value = v
		}
		_, err := b.bd.BuilderFinalizeReturn(bid, value)
		return err
	case "unreachable":
		_, err := b.bd.BuilderFinalizeUnreachable(bid)
		return err
	default:
		return fmt.Errorf("unknown fixture op %q", st.Op)
	}
}

func (b *builder) binaryOp(op string, bid ir.BlockID, x, y ir.InstrID, width int) (ir.InstrID, error) {
	switch op {
	case "add":
		return b.bd.BuilderAdd(bid, x, y, width)
	case "sub":
		return b.bd.BuilderSub(bid, x, y, width)
	case "mul":
		return b.bd.BuilderMul(bid, x, y, width)
	case "div":
		return b.bd.BuilderDiv(bid, x, y, width)
	case "and":
		return b.bd.BuilderBitwiseAnd(bid, x, y, width)
	case "or":
		return b.bd.BuilderBitwiseOr(bid, x, y, width)
	case "xor":
		return b.bd.BuilderBitwiseXor(bid, x, y, width)
	case "shl":
		return b.bd.BuilderShl(bid, x, y, width)
	case "shr":
		return b.bd.BuilderShr(bid, x, y, width)
	case "ashr":
		return b.bd.BuilderAshr(bid, x, y, width)
	default:
		return ir.NoInstr, fmt.Errorf("unreachable binary op %q", op)
	}
}

func (b *builder) bind(st *Stmt, v ir.InstrID, err error) error {
	if err != nil {
		return err
	}
	if st.Dest != "" {
		b.values[st.Dest] = v
	}
	return nil
}

func (b *builder) ref(st *Stmt, i int) (ir.InstrID, error) {
	name, err := nameArg(st, i)
	if err != nil {
		return ir.NoInstr, err
	}
	v, ok := b.values[name]
	if !ok {
		return ir.NoInstr, fmt.Errorf("undefined value %q", name)
	}
	return v, nil
}

func (b *builder) refPair(st *Stmt, i, j int) (ir.InstrID, ir.InstrID, error) {
	x, err := b.ref(st, i)
	if err != nil {
		return ir.NoInstr, ir.NoInstr, err
	}
	y, err := b.ref(st, j)
	if err != nil {
		return ir.NoInstr, ir.NoInstr, err
	}
	return x, y, nil
}

func (b *builder) blockArg(st *Stmt, i int) (ir.BlockID, error) {
	name, err := nameArg(st, i)
	if err != nil {
		return ir.NoBlock, err
	}
	bid, ok := b.blocks[name]
	if !ok {
		return ir.NoBlock, fmt.Errorf("undeclared block %q", name)
	}
	return bid, nil
}

func intArg(st *Stmt, i int) (int64, error) {
	if i >= len(st.Args) || st.Args[i].Int == nil {
		return 0, fmt.Errorf("%s: expected integer argument at position %d", st.Op, i)
	}
	return *st.Args[i].Int, nil
}

func nameArg(st *Stmt, i int) (string, error) {
	if i >= len(st.Args) || st.Args[i].Name == nil {
		return "", fmt.Errorf("%s: expected name argument at position %d", st.Op, i)
	}
	return *st.Args[i].Name, nil
}
