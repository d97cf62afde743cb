package errors

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
)

// OptError is the structured error every container and pipeline-pass
// operation returns instead of a bare fmt.Errorf string, so callers can
// branch on Kind via Is/As rather than string-matching (spec.md §7).
type OptError struct {
	Kind Kind
	msg  string

	// Location pinpoints where in the IR the failure occurred, filled in
	// by WithFunction/WithBlock/WithInstr as a pass propagates the error
	// upward. Empty fields are omitted when formatting.
	Function string
	Block    string
	Instr    string

	Notes []string

	wrapped error
}

func (e *OptError) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.msg)
	if e.Function != "" {
		s += fmt.Sprintf(" (in %s)", e.Function)
	}
	if e.wrapped != nil {
		s += ": " + e.wrapped.Error()
	}
	return s
}

func (e *OptError) Unwrap() error { return e.wrapped }

// Newf constructs an *OptError of the given kind. Mirrors kefir's
// KEFIR_SET_ERRORF(kind, "...", ...) call sites: every container/pipeline
// function that can fail returns one of these rather than a bare error.
func Newf(kind Kind, format string, args ...any) error {
	return &OptError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to an existing error, preserving it as the cause.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &OptError{Kind: kind, msg: fmt.Sprintf(format, args...), wrapped: cause}
}

// Is reports whether err is (or wraps) an *OptError of the given kind.
func Is(err error, kind Kind) bool {
	var oe *OptError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// WithFunction/WithBlock/WithInstr/WithNote annotate an existing error
// in place when it is an *OptError, for passes that catch a container
// error and want to say which function/block/instruction it happened in
// before propagating it — the fluent-builder pattern this package's
// predecessor used for source-position annotation (semantic_errors.go),
// retargeted at IR coordinates since there is no source text here.
func WithFunction(err error, name string) error {
	if oe, ok := err.(*OptError); ok {
		oe.Function = name
	}
	return err
}

func WithBlock(err error, name string) error {
	if oe, ok := err.(*OptError); ok {
		oe.Block = name
	}
	return err
}

func WithInstr(err error, name string) error {
	if oe, ok := err.(*OptError); ok {
		oe.Instr = name
	}
	return err
}

func WithNote(err error, note string) error {
	if oe, ok := err.(*OptError); ok {
		oe.Notes = append(oe.Notes, note)
	}
	return err
}

// Reporter renders a colored one-line-per-error summary of accumulated
// pipeline failures, grounded on the predecessor reporter's use of
// github.com/fatih/color for level-tinted output, minus the source-line
// rendering that package did (there is no source text to show — the
// unit of diagnosis here is a function/block/instruction coordinate).
type Reporter struct {
	errs []*OptError
}

func NewReporter() *Reporter { return &Reporter{} }

func (r *Reporter) Record(err error) {
	var oe *OptError
	if errors.As(err, &oe) {
		r.errs = append(r.errs, oe)
	}
}

func (r *Reporter) HasErrors() bool { return len(r.errs) > 0 }

func (r *Reporter) Format() string {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	out := ""
	for _, e := range r.errs {
		where := e.Function
		if e.Block != "" {
			where += "/" + e.Block
		}
		if e.Instr != "" {
			where += "/" + e.Instr
		}
		if where != "" {
			out += fmt.Sprintf("%s[%s]: %s %s\n", red("error"), bold(string(e.Kind)), e.msg, dim("in "+where))
		} else {
			out += fmt.Sprintf("%s[%s]: %s\n", red("error"), bold(string(e.Kind)), e.msg)
		}
		for _, n := range e.Notes {
			out += fmt.Sprintf("  %s %s\n", dim("note:"), n)
		}
	}
	return out
}
