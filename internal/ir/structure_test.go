package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// buildDiamond constructs:
//
//	entry --BRANCH--> b1 --JUMP--> merge
//	      \---------> b2 --JUMP--> merge
//
// merge has a phi selecting between b1's and b2's constant, then returns it.
func buildDiamond(t *testing.T) (*ir.Code, ir.BlockID, ir.BlockID, ir.BlockID, ir.BlockID) {
	t.Helper()
	c := ir.NewCode()
	entry := c.Entry
	b1 := c.NewBlock(false)
	b2 := c.NewBlock(false)
	merge := c.NewBlock(false)

	bd := ir.NewBuilder(c, nil)
	cond, err := bd.BuilderImmediate(entry, 1, 8, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeBranch(entry, cond, b1, b2, ir.BranchIfTrue)
	require.NoError(t, err)

	v1, err := bd.BuilderImmediate(b1, 10, 32, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeJump(b1, merge)
	require.NoError(t, err)

	v2, err := bd.BuilderImmediate(b2, 20, 32, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeJump(b2, merge)
	require.NoError(t, err)

	phiID, phiInstr, err := c.NewPhi(merge)
	require.NoError(t, err)
	require.NoError(t, c.PhiAttach(phiID, b1, v1))
	require.NoError(t, c.PhiAttach(phiID, b2, v2))

	_, err = bd.BuilderFinalizeReturn(merge, phiInstr)
	require.NoError(t, err)

	return c, entry, b1, b2, merge
}

func TestLinkBlocksSuccessorsAndPredecessors(t *testing.T) {
	c, entry, b1, b2, merge := buildDiamond(t)
	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)

	require.Equal(t, []ir.BlockID{b1, b2}, s.Successors(entry))
	require.Equal(t, []ir.BlockID{merge}, s.Successors(b1))
	require.Equal(t, []ir.BlockID{merge}, s.Successors(b2))
	require.Empty(t, s.Successors(merge))

	require.ElementsMatch(t, []ir.BlockID{b1, b2}, s.Predecessors(merge))
	require.Empty(t, s.Predecessors(entry))
}

func TestFindDominators(t *testing.T) {
	c, entry, b1, b2, merge := buildDiamond(t)
	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, entry))

	require.True(t, s.IsDominator(merge, entry))
	require.True(t, s.IsDominator(b1, entry))
	require.True(t, s.IsDominator(b1, b1))
	require.False(t, s.IsDominator(b1, merge))
	require.False(t, s.IsDominator(b2, merge))
	require.Equal(t, entry, s.ImmediateDominator(merge))
}

func TestLinkBlocksRejectsMissingTerminator(t *testing.T) {
	c := ir.NewCode()
	_, err := ir.LinkBlocks(c)
	require.Error(t, err)
}
