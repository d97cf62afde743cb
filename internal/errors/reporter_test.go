package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptErrorFormatting(t *testing.T) {
	err := Newf(NotFound, "block %s not found", "blk3")
	assert.True(t, Is(err, NotFound))
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "blk3 not found")
}

func TestOptErrorAnnotation(t *testing.T) {
	err := Newf(InvalidRequest, "instruction still on control chain")
	err = WithFunction(err, "f.main")
	err = WithBlock(err, "blk0")
	err = WithInstr(err, "%4")
	err = WithNote(err, "drop_control must run first")

	assert.Contains(t, err.Error(), "f.main")

	r := NewReporter()
	r.Record(err)
	out := r.Format()
	assert.Contains(t, out, "INVALID_REQUEST")
	assert.Contains(t, out, "f.main/blk0/%4")
	assert.Contains(t, out, "drop_control must run first")
}

func TestWrap(t *testing.T) {
	cause := Newf(NotFound, "phi 2 not found")
	wrapped := Wrap(InvalidState, cause, "cannot finalize branch")

	assert.True(t, Is(wrapped, InvalidState))
	assert.ErrorIs(t, wrapped, cause)
}

func TestKindDescriptionAndTerminal(t *testing.T) {
	assert.False(t, IteratorEnd.Terminal())
	assert.False(t, Yield.Terminal())
	assert.True(t, NotFound.Terminal())
	assert.NotEmpty(t, NotFound.Description())
}

func TestReporterHasErrors(t *testing.T) {
	r := NewReporter()
	assert.False(t, r.HasErrors())
	r.Record(Newf(InvalidParameter, "bad width"))
	assert.True(t, r.HasErrors())
}

func TestBatch(t *testing.T) {
	b := NewBatch()
	assert.True(t, b.Empty())
	assert.Nil(t, b.Err())

	b.Add(nil)
	assert.True(t, b.Empty())

	b.Add(Newf(NotFound, "a")).Add(Newf(NotFound, "b"))
	assert.False(t, b.Empty())
	assert.Len(t, b.Errors(), 2)

	err := b.Err()
	assert.True(t, strings.Contains(err.Error(), "a"))
	assert.True(t, strings.Contains(err.Error(), "b"))
}

func TestBatchSingleError(t *testing.T) {
	b := NewBatch()
	only := Newf(NotFound, "only")
	b.Add(only)
	assert.Equal(t, only, b.Err())
}
