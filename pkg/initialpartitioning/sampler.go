package initialpartitioning

import "fmt"

// GetUnassignedNode draws a uniformly random node whose part id equals
// marker (usually Unassigned) by rejection sampling.
func (b *Base) GetUnassignedNode(marker int) (int, error) {
	n := b.hg.NumNodes()
	if n == 0 {
		return noNode, fmt.Errorf("%w: hypergraph has no nodes", ErrNoCandidateNode)
	}

	misses := 0
	for {
		hn := b.rng.Intn(n)
		if b.hg.PartID(hn) == marker {
			return hn, nil
		}
		misses++
		// After n misses in a row make sure the pool is not empty. Sampling
		// continues afterwards, so the draw stays uniform.
		if misses%n == 0 && !b.hasNodeInPart(marker) {
			return noNode, fmt.Errorf("%w: marker %d", ErrNoCandidateNode, marker)
		}
	}
}

func (b *Base) hasNodeInPart(marker int) bool {
	for hn := 0; hn < b.hg.NumNodes(); hn++ {
		if b.hg.PartID(hn) == marker {
			return true
		}
	}
	return false
}
