package pipeline

import "ssaopt/internal/ir"

// DropDeadPhiLinks re-establishes the invariant that a phi node's link set
// equals its block's current predecessor set (spec.md §3, grounded on
// original_source/source/optimizer/pipeline/drop_dead_phi_links.c). Block
// surgery (merge, split, redirect) can leave a phi holding a link keyed by
// a block that is no longer a predecessor; this pass drops those stale
// links. It never adds a missing link — RedirectPhiLinks is responsible
// for attaching the correct replacement when an edge is rewired.
type DropDeadPhiLinks struct{}

func (DropDeadPhiLinks) Name() string { return "drop-dead-phi-links" }
func (DropDeadPhiLinks) Description() string {
	return "drop phi links whose predecessor edge no longer exists"
}

func (DropDeadPhiLinks) Apply(fn *ir.Function, s *ir.CodeStructure) (bool, error) {
	c := fn.Code
	changed := false
	for _, bid := range c.Blocks() {
		b, err := c.Block(bid)
		if err != nil {
			return false, err
		}
		preds := make(map[ir.BlockID]bool, len(s.Predecessors(bid)))
		for _, p := range s.Predecessors(bid) {
			preds[p] = true
		}
		for _, pid := range b.Phis {
			links, err := c.PhiLinkIter(pid)
			if err != nil {
				return false, err
			}
			for _, pred := range links {
				if !preds[pred] {
					if err := c.PhiDropLink(pid, pred); err != nil {
						return false, err
					}
					changed = true
				}
			}
		}
	}
	return changed, nil
}
