package ir

import (
	oerrors "ssaopt/internal/errors"
)

// CodeStructure is the derived per-function view built by LinkBlocks plus
// FindDominators: predecessor/successor lists, the indirect-jump target
// set, the dominator tree, and a sequenced-before cache (spec.md §3 "Code
// structure", §4.2). It has function lifetime and is owned by whichever
// pass constructs it; any CFG edge change not performed through this
// struct's own helpers must drop it.
type CodeStructure struct {
	code *Code

	predecessors map[BlockID][]BlockID
	successors   map[BlockID][]BlockID

	indirectTargets map[BlockID]bool

	immediateDominator map[BlockID]BlockID

	// sequencedBeforeCache holds packed (x,y) pairs already proven
	// sequenced-before; see IsSequencedBefore.
	sequencedBeforeCache map[[2]InstrID]bool
}

// LinkBlocks is step 1 of spec.md §4.2: a single scan collects indirect
// jump targets, then every block's terminator is inspected to compute
// successors, and predecessors are derived as the transpose.
func LinkBlocks(c *Code) (*CodeStructure, error) {
	s := &CodeStructure{
		code:                 c,
		predecessors:         make(map[BlockID][]BlockID),
		successors:           make(map[BlockID][]BlockID),
		indirectTargets:      make(map[BlockID]bool),
		immediateDominator:   make(map[BlockID]BlockID),
		sequencedBeforeCache: make(map[[2]InstrID]bool),
	}

	blocks := c.Blocks()
	for _, bid := range blocks {
		s.predecessors[bid] = nil
		s.successors[bid] = nil
	}

	// Phase 1: BLOCK_LABEL scan.
	c.Trace(func(in *Instruction) {
		if in.Op == OpBlockLabel {
			s.indirectTargets[in.Params.(BlockRef).Block] = true
		}
	})

	// Phase 2: blocks with non-empty public label sets are indirect targets.
	for _, bid := range blocks {
		b := c.blocks[bid]
		if len(b.PublicLabels) > 0 {
			s.indirectTargets[bid] = true
		}
	}

	indirectList := make([]BlockID, 0, len(s.indirectTargets))
	for bid := range s.indirectTargets {
		indirectList = append(indirectList, bid)
	}
	sortBlockIDs(indirectList)

	// Phase 3: per-block terminator inspection.
	for _, bid := range blocks {
		b := c.blocks[bid]
		if !b.ControlTail.Valid() {
			return nil, oerrors.Newf(oerrors.InvalidState, "block %s has no terminator", bid)
		}
		term := c.instrs[b.ControlTail]
		succs, err := terminatorSuccessors(c, term, indirectList)
		if err != nil {
			return nil, err
		}
		s.successors[bid] = succs
		for _, t := range succs {
			s.predecessors[t] = append(s.predecessors[t], bid)
		}
	}

	return s, nil
}

func terminatorSuccessors(c *Code, term *Instruction, indirectList []BlockID) ([]BlockID, error) {
	switch term.Op {
	case OpJump:
		return []BlockID{term.Params.(JumpParams).Target}, nil
	case OpBranch:
		p := term.Params.(BranchParams)
		return []BlockID{p.Target, p.Alt}, nil
	case OpBranchCompare:
		p := term.Params.(BranchCompareParams)
		return []BlockID{p.Target, p.Alt}, nil
	case OpIJump:
		return append([]BlockID(nil), indirectList...), nil
	case OpInlineAssembly:
		p := term.Params.(InlineAsmParams)
		asm := c.asms[p.Asm]
		if asm == nil {
			return nil, oerrors.Newf(oerrors.InvalidState, "inline-asm node %d missing", p.Asm)
		}
		succs := []BlockID{asm.DefaultJumpTarget}
		for _, label := range asm.LabelOrder {
			succs = append(succs, asm.Labels[label])
		}
		return succs, nil
	case OpReturn, OpUnreachable, OpTailInvoke, OpTailInvokeVirtual:
		return nil, nil
	default:
		return nil, oerrors.Newf(oerrors.InvalidState, "opcode %d is not a valid terminator", term.Op)
	}
}

func (s *CodeStructure) Predecessors(b BlockID) []BlockID { return s.predecessors[b] }
func (s *CodeStructure) Successors(b BlockID) []BlockID   { return s.successors[b] }
func (s *CodeStructure) IsIndirectTarget(b BlockID) bool  { return s.indirectTargets[b] }

func (s *CodeStructure) ImmediateDominator(b BlockID) BlockID {
	if d, ok := s.immediateDominator[b]; ok {
		return d
	}
	return NoBlock
}

// FindDominators is spec.md §4.2 step 2, the Semi-NCA algorithm, run over
// the blocks reachable from entry via s.successors.
func FindDominators(s *CodeStructure, entry BlockID) error {
	blocks := s.code.Blocks()
	n := len(blocks)
	index := make(map[BlockID]int, n)
	for i, b := range blocks {
		index[b] = i
	}

	dfsOrd := make([]int, n)
	rdfs := make([]BlockID, 0, n)
	parent := make([]int, n)
	semi := make([]int, n)
	label := make([]int, n)
	ancestor := make([]int, n)
	idom := make([]int, n)
	for i := range dfsOrd {
		dfsOrd[i] = -1
		parent[i] = -1
		semi[i] = -1
		label[i] = i
		ancestor[i] = -1
		idom[i] = -1
	}

	var dfs func(b BlockID)
	dfs = func(b BlockID) {
		i := index[b]
		if dfsOrd[i] != -1 {
			return
		}
		dfsOrd[i] = len(rdfs)
		rdfs = append(rdfs, b)
		for _, succ := range s.successors[b] {
			si := index[succ]
			if dfsOrd[si] == -1 {
				parent[si] = i
				dfs(succ)
			}
		}
	}
	dfs(entry)

	var find func(v int) int
	find = func(v int) int {
		if ancestor[v] == -1 {
			return v
		}
		root := find(ancestor[v])
		if dfsOrd[label[ancestor[v]]] < dfsOrd[label[v]] {
			label[v] = label[ancestor[v]]
		}
		ancestor[v] = root
		return root
	}
	eval := func(v int) int {
		if ancestor[v] == -1 {
			return v
		}
		find(v)
		return label[v]
	}

	counter := len(rdfs)
	for i := counter - 1; i >= 1; i-- {
		v := index[rdfs[i]]
		semi[v] = v
		for _, u := range s.predecessors[rdfs[i]] {
			ui := index[u]
			if dfsOrd[ui] < 0 {
				continue
			}
			cand := eval(ui)
			if dfsOrd[cand] < dfsOrd[semi[v]] {
				semi[v] = cand
			}
		}
		label[v] = semi[v]
		ancestor[v] = parent[v]
		idom[v] = parent[v]
	}

	for i := 1; i < counter; i++ {
		v := index[rdfs[i]]
		for idom[v] != -1 && idom[idom[v]] != -1 && dfsOrd[idom[v]] > dfsOrd[semi[v]] {
			idom[v] = idom[idom[v]]
		}
	}

	for i, b := range blocks {
		if dfsOrd[i] == -1 || idom[i] == -1 {
			continue
		}
		s.immediateDominator[b] = blocks[idom[i]]
	}
	return nil
}

// IsDominator walks the immediate-dominator chain from a toward entry,
// returning true if b is reached (spec.md §4.2 step 3; a == b holds
// trivially).
func (s *CodeStructure) IsDominator(a, b BlockID) bool {
	cur := a
	for {
		if cur == b {
			return true
		}
		next, ok := s.immediateDominator[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// IsDirectPredecessor reports whether pred is one of block's immediate
// predecessors.
func (s *CodeStructure) IsDirectPredecessor(pred, block BlockID) bool {
	for _, p := range s.predecessors[block] {
		if p == pred {
			return true
		}
	}
	return false
}

// IsExclusivePredecessor reports whether pred is block's *only* immediate
// predecessor (spec.md §4.4's "exclusive direct predecessor" test, used by
// the short-circuit boolean fusion and PHI-to-select rules to confirm a
// block has no other way to be entered).
func (s *CodeStructure) IsExclusivePredecessor(pred, block BlockID) bool {
	preds := s.predecessors[block]
	return len(preds) == 1 && preds[0] == pred
}

// DropSequencingCache invalidates the cached sequenced-before pairs
// wholesale (spec.md §4.2, §5).
func (s *CodeStructure) DropSequencingCache() {
	s.sequencedBeforeCache = make(map[[2]InstrID]bool)
}
