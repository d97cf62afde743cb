package pipeline

import "ssaopt/internal/ir"

// simplifyLoad fuses a LOAD whose sole use is an extension of the same
// kind the load already performs away to nothing — i.e. a LOAD declared
// with NoExtend immediately sign/zero-extended by its only consumer is
// rewritten to load with that extension directly, folding the two into
// one memory operation (spec.md §4.4 "narrow loads").
func simplifyLoad(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.LoadMem)
	if p.Extension != ir.NoExtend {
		return false, nil
	}
	use, ok := ir.SoleUse(c, in.ID)
	if !ok {
		return false, nil
	}
	useIn, err := c.Instr(use)
	if err != nil {
		return false, nil
	}
	var want ir.LoadExtension
	switch useIn.Op {
	case ir.OpZeroExtend:
		want = ir.ZeroExtend
	case ir.OpSignExtend:
		want = ir.SignExtend
	default:
		return false, nil
	}
	ext := useIn.Params.(ir.Extension)
	if ext.FromWidth != p.Width {
		return false, nil
	}
	b := builderFor(fn)
	newLoad, err := b.BuilderLoad(in.Block, p.Addr, ext.ToWidth, want)
	if err != nil {
		return false, err
	}
	// useIn becomes redundant once newLoad already produces its target
	// width directly; replace useIn first (it is the one with external
	// uses) then drop the now-unused original load.
	if err := replaceValue(c, fn, use, newLoad); err != nil {
		return false, err
	}
	if len(c.Uses(in.ID)) == 0 {
		return true, c.DropInstr(in.ID)
	}
	return true, nil
}

// simplifyStore forwards a stored value to a LOAD that immediately
// reloads it: when a STORE's next sibling is a non-extending LOAD of the
// same Addr/Width, every use of the load is redirected to the stored value
// and the load is dropped. The STORE itself is kept.
func simplifyStore(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.StoreMem)
	next, err := c.InstrNextSibling(in.ID)
	if err != nil || !next.Valid() {
		return false, nil
	}
	nextIn, err := c.Instr(next)
	if err != nil || nextIn.Op != ir.OpLoad {
		return false, nil
	}
	lp := nextIn.Params.(ir.LoadMem)
	if lp.Addr != p.Addr || lp.Width != p.Width || lp.Extension != ir.NoExtend {
		return false, nil
	}
	return true, replaceValue(c, fn, next, p.Value)
}

// simplifyAtomic drops a scalar ATOMIC_CMPXCHG whose Expected and Desired
// operands are identical and whose result is unused: the exchange writes
// back exactly what was already there, so with no consumer observing the
// (old-value or success) result it is a pure no-op (spec.md §4.4 "narrow
// stores/atomics"). A used result is left alone — this container has no
// way to materialize "the previous value at Object" without performing
// the exchange.
func simplifyAtomic(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	if in.Op != ir.OpAtomicCmpxchg {
		return false, nil
	}
	p := in.Params.(ir.AtomicOp)
	if !p.Scalar || p.Expected != p.Desired {
		return false, nil
	}
	if len(c.Uses(in.ID)) != 0 {
		return false, nil
	}
	return true, c.DropInstr(in.ID)
}

// simplifyCopyMemory elides a COPY_MEMORY whose destination and source
// are the same address.
func simplifyCopyMemory(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.Ref2)
	if p.X != p.Y {
		return false, nil
	}
	if len(c.Uses(in.ID)) != 0 {
		return false, nil
	}
	return true, c.DropInstr(in.ID)
}
