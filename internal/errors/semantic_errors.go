package errors

import "strings"

// Batch collects every error a pass produces while walking many
// instructions/blocks in one sweep, rather than aborting at the first
// failure — the fluent accumulate-then-report shape this package's
// predecessor used to gather per-declaration semantic errors before
// printing them all at once.
type Batch struct {
	errs []error
}

func NewBatch() *Batch { return &Batch{} }

// Add appends err to the batch if non-nil. Returns the batch for chaining.
func (b *Batch) Add(err error) *Batch {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

func (b *Batch) Empty() bool { return len(b.errs) == 0 }

func (b *Batch) Errors() []error { return b.errs }

// Err returns nil if the batch is empty, the sole error if there is
// exactly one, or a *batchError combining all of them otherwise.
func (b *Batch) Err() error {
	switch len(b.errs) {
	case 0:
		return nil
	case 1:
		return b.errs[0]
	default:
		return &batchError{errs: append([]error(nil), b.errs...)}
	}
}

type batchError struct {
	errs []error
}

func (b *batchError) Error() string {
	parts := make([]string, len(b.errs))
	for i, e := range b.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (b *batchError) Unwrap() []error { return b.errs }
