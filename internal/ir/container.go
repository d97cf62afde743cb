package ir

import (
	"sort"

	oerrors "ssaopt/internal/errors"
)

// Code is the IR container of a single function: a mapping from block id
// to Block and from instruction id to Instruction, plus the phi/call/asm
// node side-tables (spec.md §3 "Code container"). This is the primitive
// surface named in spec.md §6 — block ops, instruction ops, phi ops, call
// ops, inline-asm ops, and builder functions all operate on a *Code.
type Code struct {
	Entry BlockID

	blocks map[BlockID]*Block
	instrs map[InstrID]*Instruction
	phis   map[PhiID]*Phi
	calls  map[CallID]*CallNode
	asms   map[AsmID]*AsmNode

	nextBlock BlockID
	nextInstr InstrID
	nextPhi   PhiID
	nextCall  CallID
	nextAsm   AsmID

	structure *CodeStructure // cached derived view; see structure.go
}

// NewCode returns an empty container with a single entry block, mirroring
// the "exactly one entry block per function" invariant (spec.md §3).
func NewCode() *Code {
	c := &Code{
		blocks: make(map[BlockID]*Block),
		instrs: make(map[InstrID]*Instruction),
		phis:   make(map[PhiID]*Phi),
		calls:  make(map[CallID]*CallNode),
		asms:   make(map[AsmID]*AsmNode),
	}
	c.Entry = c.NewBlock(false)
	return c
}

// --- Block ops (spec.md §6) ---

func (c *Code) Block(id BlockID) (*Block, error) {
	b, ok := c.blocks[id]
	if !ok {
		return nil, oerrors.Newf(oerrors.NotFound, "block %s not found", id)
	}
	return b, nil
}

func (c *Code) BlockCount() int { return len(c.blocks) }

// Blocks returns every live block id in a deterministic (ascending)
// order — spec.md §5 requires iteration orders to be stable and
// reproducible, never keyed on map/pointer identity.
func (c *Code) Blocks() []BlockID {
	ids := make([]BlockID, 0, len(c.blocks))
	for id := range c.blocks {
		ids = append(ids, id)
	}
	sortBlockIDs(ids)
	return ids
}

func (c *Code) NewBlock(isIndirectTarget bool) BlockID {
	id := c.nextBlock
	c.nextBlock++
	c.blocks[id] = newBlock(id, isIndirectTarget)
	return id
}

func (c *Code) DropBlock(id BlockID) error {
	if _, ok := c.blocks[id]; !ok {
		return oerrors.Newf(oerrors.NotFound, "block %s not found", id)
	}
	delete(c.blocks, id)
	return nil
}

func (c *Code) BlockInstrHead(id BlockID) (InstrID, error) {
	b, err := c.Block(id)
	if err != nil {
		return NoInstr, err
	}
	if len(b.Siblings) == 0 {
		return NoInstr, nil
	}
	return b.Siblings[0], nil
}

func (c *Code) BlockInstrTail(id BlockID) (InstrID, error) {
	b, err := c.Block(id)
	if err != nil {
		return NoInstr, err
	}
	if len(b.Siblings) == 0 {
		return NoInstr, nil
	}
	return b.Siblings[len(b.Siblings)-1], nil
}

func (c *Code) BlockInstrControlHead(id BlockID) (InstrID, error) {
	b, err := c.Block(id)
	if err != nil {
		return NoInstr, err
	}
	return b.ControlHead, nil
}

func (c *Code) BlockInstrControlTail(id BlockID) (InstrID, error) {
	b, err := c.Block(id)
	if err != nil {
		return NoInstr, err
	}
	return b.ControlTail, nil
}

// --- Instruction ops (spec.md §6) ---

func (c *Code) Instr(id InstrID) (*Instruction, error) {
	in, ok := c.instrs[id]
	if !ok {
		return nil, oerrors.Newf(oerrors.NotFound, "instruction %s not found", id)
	}
	return in, nil
}

// newInstr allocates a fresh instruction id with the given opcode/params in
// block, appended to the sibling chain but not the control-flow chain. This
// is the common core every builder_* helper (builder.go) funnels through.
func (c *Code) newInstr(block BlockID, op Opcode, params Params) (InstrID, error) {
	b, err := c.Block(block)
	if err != nil {
		return NoInstr, err
	}
	id := c.nextInstr
	c.nextInstr++
	in := &Instruction{ID: id, Block: block, Op: op, Params: params, PrevControl: NoInstr, NextControl: NoInstr}
	c.instrs[id] = in
	b.Siblings = append(b.Siblings, id)
	return id, nil
}

// CopyInstruction duplicates src's opcode/params into block as a new
// instruction id (spec.md §6 "copy_instruction"). It does not copy
// control-flow membership or use the phi-resolution rule merge_into needs
// — callers that need that do it explicitly.
func (c *Code) CopyInstruction(src InstrID, into BlockID) (InstrID, error) {
	s, err := c.Instr(src)
	if err != nil {
		return NoInstr, err
	}
	return c.newInstr(into, s.Op, s.Params)
}

func (c *Code) DropInstr(id InstrID) error {
	in, ok := c.instrs[id]
	if !ok {
		return oerrors.Newf(oerrors.NotFound, "instruction %s not found", id)
	}
	if in.PrevControl.Valid() || in.NextControl.Valid() || c.isControlHead(in) {
		return oerrors.Newf(oerrors.InvalidRequest, "instruction %s still on control chain", id)
	}
	if b, ok := c.blocks[in.Block]; ok {
		b.removeSibling(id)
	}
	delete(c.instrs, id)
	return nil
}

func (c *Code) isControlHead(in *Instruction) bool {
	b, ok := c.blocks[in.Block]
	return ok && b.ControlHead == in.ID
}

// AddControl appends id to the tail of block's control-flow chain.
func (c *Code) AddControl(block BlockID, id InstrID) error {
	b, err := c.Block(block)
	if err != nil {
		return err
	}
	in, err := c.Instr(id)
	if err != nil {
		return err
	}
	in.Block = block
	if b.ControlTail.Valid() {
		tail, _ := c.Instr(b.ControlTail)
		tail.NextControl = id
		in.PrevControl = b.ControlTail
	} else {
		b.ControlHead = id
		in.PrevControl = NoInstr
	}
	b.ControlTail = id
	in.NextControl = NoInstr
	return nil
}

// DropControl removes id from its block's control-flow chain without
// deleting the instruction itself.
func (c *Code) DropControl(id InstrID) error {
	in, err := c.Instr(id)
	if err != nil {
		return err
	}
	b, err := c.Block(in.Block)
	if err != nil {
		return err
	}
	prev, next := in.PrevControl, in.NextControl
	if prev.Valid() {
		p, _ := c.Instr(prev)
		p.NextControl = next
	} else if b.ControlHead == id {
		b.ControlHead = next
	}
	if next.Valid() {
		n, _ := c.Instr(next)
		n.PrevControl = prev
	} else if b.ControlTail == id {
		b.ControlTail = prev
	}
	in.PrevControl, in.NextControl = NoInstr, NoInstr
	return nil
}

// InsertControl splices new into block's control-flow chain immediately
// after after (or at the head, if after is NoInstr).
func (c *Code) InsertControl(block BlockID, after InstrID, newID InstrID) error {
	b, err := c.Block(block)
	if err != nil {
		return err
	}
	in, err := c.Instr(newID)
	if err != nil {
		return err
	}
	in.Block = block
	if !after.Valid() {
		old := b.ControlHead
		b.ControlHead = newID
		in.PrevControl = NoInstr
		in.NextControl = old
		if old.Valid() {
			o, _ := c.Instr(old)
			o.PrevControl = newID
		} else {
			b.ControlTail = newID
		}
		return nil
	}
	prevIn, err := c.Instr(after)
	if err != nil {
		return err
	}
	next := prevIn.NextControl
	prevIn.NextControl = newID
	in.PrevControl = after
	in.NextControl = next
	if next.Valid() {
		n, _ := c.Instr(next)
		n.PrevControl = newID
	} else {
		b.ControlTail = newID
	}
	return nil
}

func (c *Code) InstrNextSibling(id InstrID) (InstrID, error) {
	in, err := c.Instr(id)
	if err != nil {
		return NoInstr, err
	}
	b, err := c.Block(in.Block)
	if err != nil {
		return NoInstr, err
	}
	for i, s := range b.Siblings {
		if s == id {
			if i+1 < len(b.Siblings) {
				return b.Siblings[i+1], nil
			}
			return NoInstr, nil
		}
	}
	return NoInstr, oerrors.Newf(oerrors.InvalidState, "instruction %s missing from its own block's sibling chain", id)
}

func (c *Code) InstrNextControl(id InstrID) (InstrID, error) {
	in, err := c.Instr(id)
	if err != nil {
		return NoInstr, err
	}
	return in.NextControl, nil
}

func (c *Code) InstrPrevControl(id InstrID) (InstrID, error) {
	in, err := c.Instr(id)
	if err != nil {
		return NoInstr, err
	}
	return in.PrevControl, nil
}

// ReplaceReferences rewrites every use of oldID to newID across every
// instruction, phi, call node and asm node in the container (spec.md §6
// "replace_references"). oldID's own instruction is left untouched; callers
// drop it separately once replacement is complete.
func (c *Code) ReplaceReferences(newID, oldID InstrID) error {
	if _, err := c.Instr(newID); err != nil {
		return err
	}
	for _, in := range c.instrs {
		in.Params = replaceInParams(in.Params, oldID, newID)
	}
	for _, p := range c.phis {
		for blk, v := range p.Links {
			if v == oldID {
				p.Links[blk] = newID
			}
		}
	}
	for _, cn := range c.calls {
		if cn.Indirect == oldID {
			cn.Indirect = newID
		}
		if cn.ReturnSpace == oldID {
			cn.ReturnSpace = newID
		}
		for i, a := range cn.Args {
			if a == oldID {
				cn.Args[i] = newID
			}
		}
	}
	for _, asm := range c.asms {
		for i, p := range asm.Params {
			if p.ReadRef == oldID {
				asm.Params[i].ReadRef = newID
			}
			if p.LoadStore == oldID {
				asm.Params[i].LoadStore = newID
			}
		}
	}
	return nil
}

// Uses returns every instruction that directly references v, either as a
// Params operand or indirectly through a phi/call/asm side table. Computed
// on demand by walking the whole container: spec.md §4.1's extract_inputs
// is the only place that understands call/asm operand layout, so a cached
// reverse index kept in sync by hand risks drifting out of date with it
// (see DESIGN.md). Order is deterministic (ascending instruction id).
func (c *Code) Uses(v InstrID) []InstrID {
	var out []InstrID
	seen := make(map[InstrID]bool)
	add := func(id InstrID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	c.Trace(func(in *Instruction) {
		ExtractInputs(c, in, false, func(ref InstrID) {
			if ref == v {
				add(in.ID)
			}
		})
	})
	for _, p := range c.phis {
		for _, ref := range p.Links {
			if ref == v {
				add(p.Result)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// --- Phi ops (spec.md §6) ---

func (c *Code) Phi(id PhiID) (*Phi, error) {
	p, ok := c.phis[id]
	if !ok {
		return nil, oerrors.Newf(oerrors.NotFound, "phi %d not found", id)
	}
	return p, nil
}

func (c *Code) NewPhi(block BlockID) (PhiID, InstrID, error) {
	id := c.nextPhi
	c.nextPhi++
	instrID, err := c.newInstr(block, OpPhi, PhiRefParams{Phi: id})
	if err != nil {
		return NoPhi, NoInstr, err
	}
	c.phis[id] = &Phi{ID: id, Block: block, Result: instrID, Links: make(map[BlockID]InstrID)}
	b, _ := c.Block(block)
	b.Phis = append(b.Phis, id)
	return id, instrID, nil
}

func (c *Code) PhiLinkFor(phi PhiID, block BlockID) (InstrID, error) {
	p, err := c.Phi(phi)
	if err != nil {
		return NoInstr, err
	}
	v, ok := p.Links[block]
	if !ok {
		return NoInstr, oerrors.Newf(oerrors.NotFound, "no phi link from %s", block)
	}
	return v, nil
}

func (c *Code) PhiDropLink(phi PhiID, block BlockID) error {
	p, err := c.Phi(phi)
	if err != nil {
		return err
	}
	delete(p.Links, block)
	return nil
}

func (c *Code) PhiAttach(phi PhiID, block BlockID, ref InstrID) error {
	p, err := c.Phi(phi)
	if err != nil {
		return err
	}
	p.Links[block] = ref
	return nil
}

// PhiLinkIter returns the phi's predecessor blocks in deterministic order.
func (c *Code) PhiLinkIter(phi PhiID) ([]BlockID, error) {
	p, err := c.Phi(phi)
	if err != nil {
		return nil, err
	}
	blocks := make([]BlockID, 0, len(p.Links))
	for b := range p.Links {
		blocks = append(blocks, b)
	}
	sortBlockIDs(blocks)
	return blocks, nil
}

// DropPhi tears down a phi node entirely: the Result instruction is
// removed from its block's sibling list and the phi's own side-table
// entry is deleted, mirroring the teardown MergeInto performs inline
// for phis absorbed by a block merge. Callers must redirect every use
// of the phi's Result id before calling this.
func (c *Code) DropPhi(id PhiID) error {
	p, err := c.Phi(id)
	if err != nil {
		return err
	}
	if b, ok := c.blocks[p.Block]; ok {
		b.removeSibling(p.Result)
		for i, pid := range b.Phis {
			if pid == id {
				b.Phis = append(b.Phis[:i], b.Phis[i+1:]...)
				break
			}
		}
	}
	delete(c.instrs, p.Result)
	delete(c.phis, id)
	return nil
}

// --- Call ops (spec.md §6) ---

func (c *Code) Call(id CallID) (*CallNode, error) {
	cn, ok := c.calls[id]
	if !ok {
		return nil, oerrors.Newf(oerrors.NotFound, "call node %d not found", id)
	}
	return cn, nil
}

func (c *Code) NewCall(decl FuncID, argCount int, indirect InstrID) CallID {
	id := c.nextCall
	c.nextCall++
	c.calls[id] = &CallNode{ID: id, Decl: decl, Args: make([]InstrID, argCount), Indirect: indirect, ReturnSpace: NoInstr}
	return id
}

// NewTailCall mirrors spec.md §6's `new_tail_call`: a call node plus the
// terminator instruction that consumes it, built directly (the tail-call
// promoter never goes through a non-tail INVOKE first).
func (c *Code) NewTailCall(block BlockID, decl FuncID, argCount int, indirect InstrID, virtual bool) (CallID, InstrID, error) {
	callID := c.NewCall(decl, argCount, indirect)
	op := OpTailInvoke
	if virtual {
		op = OpTailInvokeVirtual
	}
	instrID, err := c.newInstr(block, op, CallRefParams{Indirect: indirect, Call: callID})
	if err != nil {
		return NoCall, NoInstr, err
	}
	return callID, instrID, nil
}

func (c *Code) CallSetArgument(call CallID, i int, ref InstrID) error {
	cn, err := c.Call(call)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(cn.Args) {
		return oerrors.Newf(oerrors.InvalidParameter, "call %d has no argument %d", call, i)
	}
	cn.Args[i] = ref
	return nil
}

func (c *Code) CallSetReturnSpace(call CallID, ref InstrID) error {
	cn, err := c.Call(call)
	if err != nil {
		return err
	}
	cn.ReturnSpace = ref
	return nil
}

// --- Inline-asm ops (spec.md §6) ---

func (c *Code) InlineAssembly(id AsmID) (*AsmNode, error) {
	a, ok := c.asms[id]
	if !ok {
		return nil, oerrors.Newf(oerrors.NotFound, "inline-asm node %d not found", id)
	}
	return a, nil
}

func (c *Code) NewInlineAssembly(defaultTarget BlockID) AsmID {
	id := c.nextAsm
	c.nextAsm++
	c.asms[id] = &AsmNode{ID: id, DefaultJumpTarget: defaultTarget, Labels: make(map[string]BlockID)}
	return id
}

// --- Trace-all-instructions (spec.md §4.3) ---

// Trace visits every instruction in the container exactly once. Order is a
// deterministic ascending walk of block then sibling-chain order, which
// satisfies spec.md §4.3's "order is unspecified but deterministic".
func (c *Code) Trace(tracer func(*Instruction)) {
	for _, bid := range c.Blocks() {
		b := c.blocks[bid]
		for _, id := range b.Siblings {
			tracer(c.instrs[id])
		}
	}
}

func sortBlockIDs(ids []BlockID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
