package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/pipeline"
)

func singleBlockFunction(t *testing.T) (*ir.Function, *ir.Builder, ir.BlockID) {
	t.Helper()
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	return fn, ir.NewBuilder(c, nil), c.Entry
}

func rebuildStructure(t *testing.T, c *ir.Code) *ir.CodeStructure {
	t.Helper()
	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, c.Entry))
	return s
}

func TestSimplifyBoolAndIdentity(t *testing.T) {
	fn, bd, blk := singleBlockFunction(t)
	x, err := bd.BuilderGetArgument(blk, 0)
	require.NoError(t, err)
	one, err := bd.BuilderImmediate(blk, 1, 8, false)
	require.NoError(t, err)
	and, err := bd.BuilderBoolAnd(blk, x, one, 8)
	require.NoError(t, err)
	retTerm, err := bd.BuilderFinalizeReturn(blk, and)
	require.NoError(t, err)

	s := rebuildStructure(t, fn.Code)
	pass := pipeline.Simplify{}
	changed, err := pass.Apply(fn, s)
	require.NoError(t, err)
	require.True(t, changed)

	retIn, err := fn.Code.Instr(retTerm)
	require.NoError(t, err)
	require.Equal(t, x, retIn.Params.(ir.Ref1).X)
}

func TestSimplifyArithAddZero(t *testing.T) {
	fn, bd, blk := singleBlockFunction(t)
	x, err := bd.BuilderGetArgument(blk, 0)
	require.NoError(t, err)
	zero, err := bd.BuilderImmediate(blk, 0, 32, false)
	require.NoError(t, err)
	sum, err := bd.BuilderAdd(blk, x, zero, 32)
	require.NoError(t, err)
	retTerm, err := bd.BuilderFinalizeReturn(blk, sum)
	require.NoError(t, err)

	s := rebuildStructure(t, fn.Code)
	pass := pipeline.Simplify{}
	changed, err := pass.Apply(fn, s)
	require.NoError(t, err)
	require.True(t, changed)

	retIn, err := fn.Code.Instr(retTerm)
	require.NoError(t, err)
	require.Equal(t, x, retIn.Params.(ir.Ref1).X)

	_, err = fn.Code.Instr(sum)
	require.Error(t, err, "the folded ADD must be dropped")
}

func TestSimplifyBranchConstantCondition(t *testing.T) {
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	entry := c.Entry
	b1 := c.NewBlock(false)
	b2 := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)

	cond, err := bd.BuilderImmediate(entry, 1, 8, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeBranch(entry, cond, b1, b2, ir.BranchIfTrue)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(b1, ir.NoInstr)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(b2, ir.NoInstr)
	require.NoError(t, err)

	s := rebuildStructure(t, c)
	pass := pipeline.Simplify{}
	changed, err := pass.Apply(fn, s)
	require.NoError(t, err)
	require.True(t, changed)

	tail, err := c.BlockInstrControlTail(entry)
	require.NoError(t, err)
	tailIn, err := c.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpJump, tailIn.Op)
	require.Equal(t, b1, tailIn.Params.(ir.JumpParams).Target)
}
