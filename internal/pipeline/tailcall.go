package pipeline

import "ssaopt/internal/ir"

// TailCallPromote rewrites a RETURN immediately fed by a non-tail INVOKE
// into a TAIL_INVOKE/TAIL_INVOKE_VIRTUAL terminator, when escape analysis
// shows none of the call's arguments depends on local storage (spec.md
// §4.5), grounded on
// original_source/source/optimizer/pipeline/tail_call.c.
type TailCallPromote struct {
	Module *ir.Module
}

func (TailCallPromote) Name() string        { return "tail-call-promote" }
func (TailCallPromote) Description() string { return "promote eligible calls to tail calls" }

func (t TailCallPromote) Apply(fn *ir.Function, s *ir.CodeStructure) (bool, error) {
	c := fn.Code
	changed := false
	for _, bid := range c.Blocks() {
		did, err := t.applyBlock(c, fn, bid)
		if err != nil {
			return changed, err
		}
		if did {
			changed = true
		}
	}
	return changed, nil
}

// applyBlock finds, at most once per block, the pattern:
//
//	r := INVOKE(...)            (possibly preceded by LOCAL_LIFETIME_MARKs)
//	RETURN r                    (block's terminator)
//
// and, if the call is eligible, rewrites it to a tail call.
func (t TailCallPromote) applyBlock(c *ir.Code, fn *ir.Function, bid ir.BlockID) (bool, error) {
	b, err := c.Block(bid)
	if err != nil {
		return false, err
	}
	tailID := b.ControlTail
	if !tailID.Valid() {
		return false, nil
	}
	tailIn, err := c.Instr(tailID)
	if err != nil || tailIn.Op != ir.OpReturn {
		return false, nil
	}
	retRef := tailIn.Params.(ir.Ref1).X

	callID, callIn, ok := findPrecedingInvoke(c, tailID, retRef)
	if !ok {
		return false, nil
	}

	if use, sole := ir.SoleUse(c, callID); !sole || use != tailID {
		return false, nil
	}

	if !t.eligible(c, callIn) {
		return false, nil
	}

	callParams := callIn.Params.(ir.CallRefParams)
	callNode, err := c.Call(callParams.Call)
	if err != nil {
		return false, err
	}
	virtual := callIn.Op == ir.OpInvoke && callParams.Indirect.Valid()

	newCallID, newInstrID, err := c.NewTailCall(bid, callNode.Decl, len(callNode.Args), callParams.Indirect, virtual)
	if err != nil {
		return false, err
	}
	for i, a := range callNode.Args {
		if err := c.CallSetArgument(newCallID, i, a); err != nil {
			return false, err
		}
	}
	if callNode.ReturnSpace.Valid() {
		if err := c.CallSetReturnSpace(newCallID, callNode.ReturnSpace); err != nil {
			return false, err
		}
	}

	if err := c.DropControl(tailID); err != nil {
		return false, err
	}
	if err := c.DropControl(callID); err != nil {
		return false, err
	}
	if err := c.DropInstr(tailID); err != nil {
		return false, err
	}
	if err := c.DropInstr(callID); err != nil {
		return false, err
	}
	if err := c.AddControl(bid, newInstrID); err != nil {
		return false, err
	}
	return true, nil
}

// findPrecedingInvoke walks backward from tailID along the control-flow
// chain, skipping any LOCAL_LIFETIME_MARKs, looking for an INVOKE whose
// result is retRef.
func findPrecedingInvoke(c *ir.Code, tailID, retRef ir.InstrID) (ir.InstrID, *ir.Instruction, bool) {
	if !retRef.Valid() {
		return ir.NoInstr, nil, false
	}
	cur, err := c.InstrPrevControl(tailID)
	if err != nil {
		return ir.NoInstr, nil, false
	}
	for cur.Valid() {
		in, err := c.Instr(cur)
		if err != nil {
			return ir.NoInstr, nil, false
		}
		if in.Op == ir.OpInvoke {
			if cur != retRef {
				return ir.NoInstr, nil, false
			}
			return cur, in, true
		}
		if in.Op != ir.OpLocalLifetimeMark {
			return ir.NoInstr, nil, false
		}
		cur, err = c.InstrPrevControl(cur)
		if err != nil {
			return ir.NoInstr, nil, false
		}
	}
	return ir.NoInstr, nil, false
}

// eligible runs the escape analysis of spec.md §4.5: the callee must not
// be declared returns_twice (checked only when a Module was supplied), and
// no argument may depend on local storage as escapeSafe defines it. Every
// argument is checked; there is no scalar/aggregate distinction. Volatile
// loads/stores and non-scalar atomics are not examined.
func (t TailCallPromote) eligible(c *ir.Code, callIn *ir.Instruction) bool {
	p := callIn.Params.(ir.CallRefParams)
	callNode, err := c.Call(p.Call)
	if err != nil {
		return false
	}
	if t.Module != nil {
		if decl, ok := t.Module.Functions[callNode.Decl]; ok && decl.ReturnsTwice {
			return false
		}
	}

	for _, arg := range callNode.Args {
		if !escapeSafe(c, arg, make(map[ir.InstrID]bool)) {
			return false
		}
	}
	return true
}

// escapeSafe performs the backward reachability walk check_escape
// implements: an argument value is unsafe if any instruction it
// transitively depends on allocates or addresses local/stack storage
// (ALLOC_LOCAL, REF_LOCAL, STACK_ALLOC) or is a scope marker (SCOPE_PUSH,
// SCOPE_POP).
func escapeSafe(c *ir.Code, ref ir.InstrID, visited map[ir.InstrID]bool) bool {
	if !ref.Valid() || visited[ref] {
		return true
	}
	visited[ref] = true
	in, err := c.Instr(ref)
	if err != nil {
		return true
	}
	switch in.Op {
	case ir.OpAllocLocal, ir.OpRefLocal, ir.OpStackAlloc, ir.OpScopePush, ir.OpScopePop:
		return false
	}
	safe := true
	ir.ExtractInputs(c, in, false, func(sub ir.InstrID) {
		if !safe {
			return
		}
		if !escapeSafe(c, sub, visited) {
			safe = false
		}
	})
	return safe
}
