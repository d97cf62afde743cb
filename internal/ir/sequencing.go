package ir

// IsSequencedBefore answers spec.md §4.2's sequenced-before relation: does
// every dynamic execution that reaches y have already executed x.
func (s *CodeStructure) IsSequencedBefore(x, y InstrID) bool {
	key := [2]InstrID{x, y}
	if s.sequencedBeforeCache[key] {
		return true
	}

	xi, xerr := s.code.Instr(x)
	yi, yerr := s.code.Instr(y)
	if xerr != nil || yerr != nil {
		return false
	}

	var result bool
	if xi.Block != yi.Block {
		result = s.IsDominator(yi.Block, xi.Block)
	} else {
		result = s.localSequencedBefore(xi, yi)
	}

	if result {
		s.sequencedBeforeCache[key] = true
	}
	return result
}

// localSequencedBefore implements spec.md §4.2's same-block local rule.
func (s *CodeStructure) localSequencedBefore(x, y *Instruction) bool {
	if !IsControlFlow(x) || !IsControlFlow(y) {
		// At least one is not a control-chain instruction in a way the walk
		// below can order purely from the control chain; fall back to the
		// data-dependence check alone (x must feed y, directly or
		// transitively, to be sequenced before it).
		return s.transitivelyFeeds(x.ID, y.ID, make(map[InstrID]bool))
	}

	found := false
	cur := y.ID
	for cur.Valid() {
		if cur == x.ID {
			found = true
			break
		}
		in, err := s.code.Instr(cur)
		if err != nil {
			break
		}
		cur = in.PrevControl
	}
	if !found {
		return false
	}

	// y is control-flow: every input of x must itself be sequenced before
	// y, capturing transitive data dependence (spec.md §4.2).
	ok := true
	ExtractInputs(s.code, x, true, func(ref InstrID) {
		if ok && ref.Valid() && !s.IsSequencedBefore(ref, y.ID) {
			ok = false
		}
	})
	return ok
}

// transitivelyFeeds reports whether x's result flows (directly or through
// a chain of data dependencies) into y's inputs.
func (s *CodeStructure) transitivelyFeeds(x, y InstrID, visited map[InstrID]bool) bool {
	if visited[y] {
		return false
	}
	visited[y] = true
	yi, err := s.code.Instr(y)
	if err != nil {
		return false
	}
	found := false
	ExtractInputs(s.code, yi, true, func(ref InstrID) {
		if found || !ref.Valid() {
			return
		}
		if ref == x {
			found = true
			return
		}
		if s.transitivelyFeeds(x, ref, visited) {
			found = true
		}
	})
	return found
}
