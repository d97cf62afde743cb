package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

func TestUsesFindsDirectConsumer(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	bd := ir.NewBuilder(c, nil)

	x, err := bd.BuilderGetArgument(entry, 0)
	require.NoError(t, err)
	one, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	sum, err := bd.BuilderAdd(entry, x, one, 32)
	require.NoError(t, err)
	ret, err := bd.BuilderFinalizeReturn(entry, sum)
	require.NoError(t, err)

	require.ElementsMatch(t, []ir.InstrID{sum}, c.Uses(x))
	require.Equal(t, []ir.InstrID{ret}, c.Uses(sum), "sum is only consumed by the RETURN, which Uses reports like any other consumer")
}

func TestUsesSeesThroughCallArguments(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	bd := ir.NewBuilder(c, nil)

	x, err := bd.BuilderGetArgument(entry, 0)
	require.NoError(t, err)
	callID := c.NewCall(ir.FuncID(1), 1, ir.NoInstr)
	require.NoError(t, c.CallSetArgument(callID, 0, x))
	invoke, err := bd.BuilderInvoke(entry, ir.NoInstr, callID)
	require.NoError(t, err)
	require.NoError(t, c.AddControl(entry, invoke))
	_, err = bd.BuilderFinalizeReturn(entry, invoke)
	require.NoError(t, err)

	require.Contains(t, c.Uses(x), invoke, "x is passed as a call argument, a use this container cannot see via Params alone")
}

func TestReplaceReferencesRedirectsEveryConsumer(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	bd := ir.NewBuilder(c, nil)

	x, err := bd.BuilderGetArgument(entry, 0)
	require.NoError(t, err)
	y, err := bd.BuilderGetArgument(entry, 1)
	require.NoError(t, err)
	sum, err := bd.BuilderAdd(entry, x, y, 32)
	require.NoError(t, err)
	retID, err := bd.BuilderFinalizeReturn(entry, sum)
	require.NoError(t, err)

	require.NoError(t, c.ReplaceReferences(y, x))

	sumIn, err := c.Instr(sum)
	require.NoError(t, err)
	p := sumIn.Params.(ir.BinaryWidth)
	require.Equal(t, y, p.X)
	require.Equal(t, y, p.Y)

	retIn, err := c.Instr(retID)
	require.NoError(t, err)
	require.Equal(t, sum, retIn.Params.(ir.Ref1).X)
}

func TestDropInstrThenInstrErrors(t *testing.T) {
	c := ir.NewCode()
	entry := c.Entry
	bd := ir.NewBuilder(c, nil)

	one, err := bd.BuilderImmediate(entry, 1, 32, false)
	require.NoError(t, err)
	require.NoError(t, c.DropInstr(one))

	_, err = c.Instr(one)
	require.Error(t, err)
}
