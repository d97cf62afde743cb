package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/pipeline"
)

func TestDropDeadPhiLinksRemovesStaleLink(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	b1 := c.NewBlock(false)
	merge := c.NewBlock(false)

	bd := ir.NewBuilder(c, nil)
	_, err := bd.BuilderFinalizeJump(entry, merge)
	require.NoError(t, err)
	v1, err := bd.BuilderImmediate(b1, 1, 32, false)
	require.NoError(t, err)
	_, err = bd.BuilderFinalizeReturn(b1, v1)
	require.NoError(t, err)

	phiID, phiInstr, err := c.NewPhi(merge)
	require.NoError(t, err)
	require.NoError(t, c.PhiAttach(phiID, entry, v1))
	// b1 is not actually a predecessor of merge in this CFG (only entry
	// jumps there); attach a stale link to simulate leftover surgery.
	require.NoError(t, c.PhiAttach(phiID, b1, v1))
	_, err = bd.BuilderFinalizeReturn(merge, phiInstr)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, entry))

	pass := pipeline.DropDeadPhiLinks{}
	changed, err := pass.Apply(&ir.Function{Code: c}, s)
	require.NoError(t, err)
	require.True(t, changed)

	links, err := c.PhiLinkIter(phiID)
	require.NoError(t, err)
	require.Equal(t, []ir.BlockID{entry}, links)
}

func TestDropDeadPhiLinksNoopWhenConsistent(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	merge := c.NewBlock(false)
	bd := ir.NewBuilder(c, nil)
	_, err := bd.BuilderFinalizeJump(entry, merge)
	require.NoError(t, err)
	v1, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	phiID, phiInstr, err := c.NewPhi(merge)
	require.NoError(t, err)
	require.NoError(t, c.PhiAttach(phiID, entry, v1))
	_, err = bd.BuilderFinalizeReturn(merge, phiInstr)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(c)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, entry))

	pass := pipeline.DropDeadPhiLinks{}
	changed, err := pass.Apply(&ir.Function{Code: c}, s)
	require.NoError(t, err)
	require.False(t, changed)
}
