package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

func TestMergeIntoAppendsSourceInstructions(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	mid := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)

	x, err := bd.BuilderGetArgument(entry, 0)
	require.NoError(t, err)
	jumpID, err := bd.BuilderFinalizeJump(entry, mid)
	require.NoError(t, err)

	one, err := bd.BuilderImmediate(mid, 1, 32, false)
	require.NoError(t, err)
	sum, err := bd.BuilderAdd(mid, x, one, 32)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(mid, sum)
	require.NoError(t, err)

	// merging a block into its sole predecessor first requires dropping
	// that predecessor's own edge to it.
	require.NoError(t, c.DropControl(jumpID))
	require.NoError(t, c.DropInstr(jumpID))

	require.NoError(t, ir.MergeInto(c, nil, entry, mid, true))

	tail, err := c.BlockInstrControlTail(entry)
	require.NoError(t, err)
	tailIn, err := c.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpReturn, tailIn.Op)

	_, err = c.Block(mid)
	require.Error(t, err, "source block must be gone after merge")
}

func TestSplitBlockAfterCarvesTailIntoNewBlock(t *testing.T) {
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	entry := c.Entry
	bd := ir.NewBuilder(c, nil)

	_, err := bd.BuilderGetArgument(entry, 0)
	require.NoError(t, err)
	one, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	sum, err := bd.BuilderAdd(entry, one, one, 32)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(entry, sum)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, entry))

	newBlock, err := ir.SplitBlockAfter(fn, s, one)
	require.NoError(t, err)

	tail, err := c.BlockInstrControlTail(entry)
	require.NoError(t, err)
	tailIn, err := c.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpJump, tailIn.Op)
	require.Equal(t, newBlock, tailIn.Params.(ir.JumpParams).Target)

	nb, err := c.Block(newBlock)
	require.NoError(t, err)
	require.NotEmpty(t, nb.Siblings, "the sum/return instructions must have moved into the new block")
}

func TestRedirectPhiLinksMovesLinkKey(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	old := c.NewBlock(false)
	fresh := c.NewBlock(false)
	merge := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)

	_, err := bd.BuilderFinalizeJump(entry, old)
	require.NoError(t, err)
	v, err := bd.BuilderImmediate(old, 7, 32, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeJump(old, merge)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeJump(fresh, merge)
	require.NoError(t, err)

	phiID, phiInstr, err := c.NewPhi(merge)
	require.NoError(t, err)
	require.NoError(t, c.PhiAttach(phiID, old, v))
	_, err = bd.BuilderFinalizeReturn(merge, phiInstr)
	require.NoError(t, err)

	require.NoError(t, ir.RedirectPhiLinks(c, old, fresh, merge))

	links, err := c.PhiLinkIter(phiID)
	require.NoError(t, err)
	require.Equal(t, []ir.BlockID{fresh}, links)
}

func TestMoveInstructionWithLocalDependenciesCarriesInputsAlong(t *testing.T) {
	c := ir.NewCode()
	fn := &ir.Function{Code: c}
	entry := c.Entry
	target := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)

	one, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	two, err := bd.BuilderImmediate(entry, 2, 32, false)
	require.NoError(t, err)
	sum, err := bd.BuilderAdd(entry, one, two, 32)
	require.NoError(t, err)

	newSum, err := ir.MoveInstructionWithLocalDependencies(fn, sum, target)
	require.NoError(t, err)
	require.True(t, newSum.Valid())

	_, err = c.Instr(sum)
	require.Error(t, err, "the original sum id is superseded by its relocated copy")

	tb, err := c.Block(target)
	require.NoError(t, err)
	require.Len(t, tb.Siblings, 3, "sum and both of its same-block inputs must have moved")
}

func TestCanMoveInstructionWithLocalDependenciesRejectsControlFlow(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	target := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)

	_, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	jumpID, err := bd.BuilderFinalizeJump(entry, target)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(target, ir.NoInstr)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, entry))

	ok, err := ir.CanMoveInstructionWithLocalDependencies(c, s, jumpID, target, nil)
	require.NoError(t, err)
	require.False(t, ok, "a control-flow instruction is never movable by this check")
}

func TestCanMoveInstructionWithLocalDependenciesAcceptsPureDominatedValue(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	target := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)

	one, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeJump(entry, target)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(target, ir.NoInstr)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, entry))

	ok, err := ir.CanMoveInstructionWithLocalDependencies(c, s, one, target, nil)
	require.NoError(t, err)
	require.True(t, ok, "one has no uses outside target's dominance and is side-effect free")
}
