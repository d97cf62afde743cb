package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/pipeline"
)

func TestTailCallPromoteSimpleInvoke(t *testing.T) {
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	blk := c.Entry
	bd := ir.NewBuilder(c, nil)

	arg, err := bd.BuilderGetArgument(blk, 0)
	require.NoError(t, err)
	callID := c.NewCall(ir.FuncID(7), 1, ir.NoInstr)
	require.NoError(t, c.CallSetArgument(callID, 0, arg))
	invoke, err := bd.BuilderInvoke(blk, ir.NoInstr, callID)
	require.NoError(t, err)
	require.NoError(t, c.AddControl(blk, invoke))
	_, err = bd.BuilderFinalizeReturn(blk, invoke)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, c.Entry))

	pass := pipeline.TailCallPromote{}
	changed, err := pass.Apply(fn, s)
	require.NoError(t, err)
	require.True(t, changed)

	tail, err := c.BlockInstrControlTail(blk)
	require.NoError(t, err)
	tailIn, err := c.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpTailInvoke, tailIn.Op)

	_, err = c.Instr(invoke)
	require.Error(t, err, "the non-tail INVOKE must be dropped")
}

func TestTailCallPromoteBlockedByEscapingArgument(t *testing.T) {
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	blk := c.Entry
	bd := ir.NewBuilder(c, nil)

	local, err := bd.BuilderAllocLocal(blk, 0, 8)
	require.NoError(t, err)
	addr, err := bd.BuilderRefLocal(blk, 0, 0)
	require.NoError(t, err)
	_ = local

	callID := c.NewCall(ir.FuncID(7), 1, ir.NoInstr)
	require.NoError(t, c.CallSetArgument(callID, 0, addr))
	invoke, err := bd.BuilderInvoke(blk, ir.NoInstr, callID)
	require.NoError(t, err)
	require.NoError(t, c.AddControl(blk, invoke))
	_, err = bd.BuilderFinalizeReturn(blk, invoke)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, c.Entry))

	pass := pipeline.TailCallPromote{}
	changed, err := pass.Apply(fn, s)
	require.NoError(t, err)
	require.False(t, changed)

	tail, err := c.BlockInstrControlTail(blk)
	require.NoError(t, err)
	tailIn, err := c.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpReturn, tailIn.Op)
}

func TestTailCallPromoteBlockedByReturnsTwice(t *testing.T) {
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	blk := c.Entry
	bd := ir.NewBuilder(c, nil)

	arg, err := bd.BuilderGetArgument(blk, 0)
	require.NoError(t, err)
	decl := ir.FuncID(3)
	callID := c.NewCall(decl, 1, ir.NoInstr)
	require.NoError(t, c.CallSetArgument(callID, 0, arg))
	invoke, err := bd.BuilderInvoke(blk, ir.NoInstr, callID)
	require.NoError(t, err)
	require.NoError(t, c.AddControl(blk, invoke))
	_, err = bd.BuilderFinalizeReturn(blk, invoke)
	require.NoError(t, err)

	module := ir.NewModule()
	callee := ir.NewFunction("setjmp_like")
	callee.ReturnsTwice = true
	module.Functions[decl] = callee

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, c.Entry))

	pass := pipeline.TailCallPromote{Module: module}
	changed, err := pass.Apply(fn, s)
	require.NoError(t, err)
	require.False(t, changed)
}
