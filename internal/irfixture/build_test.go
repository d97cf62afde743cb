package irfixture_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/irfixture"
)

func TestBuildFunctionStraightLine(t *testing.T) {
	fn, err := irfixture.BuildFunction("add_one", `
block entry:
  x = arg 0
  one = imm 1, 32
  sum = add x, one, 32
  return sum
`)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(fn.Code)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, fn.Code.Entry))

	tail, err := fn.Code.BlockInstrControlTail(fn.Code.Entry)
	require.NoError(t, err)
	tailIn, err := fn.Code.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpReturn, tailIn.Op)
}

func TestBuildFunctionBranchToDeclaredBlocks(t *testing.T) {
	fn, err := irfixture.BuildFunction("pick", `
block entry:
  cond = arg 0
  branch cond, taken, skipped

block taken:
  one = imm 1, 8
  return one

block skipped:
  zero = imm 0, 8
  return zero
`)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(fn.Code)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, fn.Code.Entry))
	require.Len(t, fn.Code.Blocks(), 3)

	tail, err := fn.Code.BlockInstrControlTail(fn.Code.Entry)
	require.NoError(t, err)
	tailIn, err := fn.Code.Instr(tail)
	require.NoError(t, err)
	require.Equal(t, ir.OpBranch, tailIn.Op)
}

func TestBuildFunctionLoopWithPhi(t *testing.T) {
	fn, err := irfixture.BuildFunction("loop", `
block entry:
  zero = imm 0, 32
  jump header

block header:
  i = phi entry, zero, header, next
  one = imm 1, 32
  next = add i, one, 32
  done = cmp next, one, eq
  branch done, exit, header

block exit:
  return i
`)
	require.NoError(t, err)

	s, err := ir.LinkBlocks(fn.Code)
	require.NoError(t, err)
	require.NoError(t, ir.FindDominators(s, fn.Code.Entry))

	header := fn.Code.Blocks()[1]
	b, err := fn.Code.Block(header)
	require.NoError(t, err)
	require.NotEmpty(t, b.Phis)
}

func TestBuildFunctionRejectsUndefinedValue(t *testing.T) {
	_, err := irfixture.BuildFunction("bad", `
block entry:
  return missing
`)
	require.Error(t, err)
}
