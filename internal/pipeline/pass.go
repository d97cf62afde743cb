// Package pipeline implements the mid-end's transformation passes: the
// peephole simplifier, the tail-call promoter, and the phi-link repair
// pass that runs after any predecessor-set change.
package pipeline

import (
	"fmt"

	"ssaopt/internal/ir"
)

// Pass is one named transformation over a single function, in the shape
// kanso's OptimizationPass interface uses (Name/Apply/Description),
// generalized to operate on an ir.Function plus its derived CodeStructure
// instead of a whole Program.
type Pass interface {
	Name() string
	Description() string
	Apply(fn *ir.Function, s *ir.CodeStructure) (bool, error)
}

// Pipeline runs a fixed sequence of passes to fixpoint, mirroring
// kanso's OptimizationPipeline driver.
type Pipeline struct {
	passes []Pass
	Trace  func(format string, args ...any) // nil disables tracing
}

// NewPipeline returns the pipeline used to optimize every function of
// module: drop-dead-phi-links first (establishes the invariant the other
// passes assume), then the simplifier to fixpoint, then the tail-call
// promoter, which needs module to look up a callee's declared
// returns_twice flag for its escape analysis.
func NewPipeline(module *ir.Module) *Pipeline {
	p := &Pipeline{}
	p.passes = []Pass{
		&DropDeadPhiLinks{},
		&Simplify{},
		&TailCallPromote{Module: module},
	}
	return p
}

func (p *Pipeline) AddPass(pass Pass) { p.passes = append(p.passes, pass) }

func (p *Pipeline) trace(format string, args ...any) {
	if p.Trace != nil {
		p.Trace(format, args...)
	}
}

// maxRounds bounds the fixpoint loop below; a well-behaved pass set
// converges in a handful of rounds, so this is a backstop against a
// rewrite rule that oscillates rather than a tuning knob.
const maxRounds = 64

// Run drives every pass to a joint fixpoint against fn, rebuilding the
// code structure (spec.md §4.2's link_blocks → find_dominators data flow)
// whenever a pass reports a CFG edge change. drop-dead-phi-links runs
// first in every round, since surgery performed by the simplifier or the
// tail-call promoter can leave a phi holding a stale predecessor link
// that the next round's passes must not see.
func (p *Pipeline) Run(fn *ir.Function) error {
	s, err := rebuild(fn)
	if err != nil {
		return err
	}
	for round := 0; round < maxRounds; round++ {
		roundChanged := false
		for _, pass := range p.passes {
			changed, err := pass.Apply(fn, s)
			if err != nil {
				return fmt.Errorf("pass %s: %w", pass.Name(), err)
			}
			p.trace("  - %s: %s", pass.Name(), pass.Description())
			if changed {
				p.trace("    changes applied")
				roundChanged = true
				s, err = rebuild(fn)
				if err != nil {
					return err
				}
			} else {
				p.trace("    no changes")
			}
		}
		if !roundChanged {
			return nil
		}
	}
	return nil
}

func rebuild(fn *ir.Function) (*ir.CodeStructure, error) {
	s, err := ir.LinkBlocks(fn.Code)
	if err != nil {
		return nil, err
	}
	if err := ir.FindDominators(s, fn.Code.Entry); err != nil {
		return nil, err
	}
	return s, nil
}
