package initialpartitioning

import (
	"fmt"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
)

// AssignHypernodeToPartition moves hn into targetPart if the target part can
// take its weight. It returns false without touching anything when the move
// would overload the target part or hn already lives there.
//
// An accepted move is applied even if some other part stays overloaded; such
// a move is just not recorded for rollback.
func (b *Base) AssignHypernodeToPartition(hn, targetPart int) (bool, error) {
	if hn < 0 || hn >= b.hg.NumNodes() {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidNode, hn, b.hg.NumNodes())
	}
	if targetPart < 0 || targetPart >= b.k {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPart, targetPart, b.k)
	}
	if err := b.checkBalanceConstraints(); err != nil {
		return false, err
	}
	upper := b.cfg.UpperAllowedPartitionWeight

	if b.hg.PartWeight(targetPart)+b.hg.NodeWeight(hn) > upper[targetPart] {
		return false, nil
	}

	sourcePart := b.hg.PartID(hn)
	switch {
	case sourcePart == Unassigned:
		if err := b.hg.SetNodePart(hn, targetPart); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInconsistentState, err)
		}
	case sourcePart != targetPart:
		if err := b.hg.ChangeNodePart(hn, sourcePart, targetPart); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInconsistentState, err)
		}
	default:
		return false, nil
	}

	recorded := len(b.history)
	b.calculateBisectionCutAfterAssignment(hn, sourcePart, targetPart)

	if b.hg.PartID(hn) != targetPart {
		return false, fmt.Errorf("%w: node %d should be in part %d, but is in %d",
			ErrInconsistentState, hn, targetPart, b.hg.PartID(hn))
	}
	if b.verifyCut {
		if cut := metrics.HyperedgeCut(b.hg); cut != b.currentCut {
			return false, fmt.Errorf("%w: tracked cut %d, recomputed %d after moving node %d",
				ErrInconsistentState, b.currentCut, cut, hn)
		}
	}
	b.tracker.LogMove(b.attemptID, hn, sourcePart, targetPart, b.currentCut, len(b.history) > recorded)
	return true, nil
}

// calculateBisectionCutAfterAssignment updates the running cut for the move
// hn: from -> to, which the hypergraph has already applied. Only edges whose
// connectivity crosses between 1 and 2 change the cut.
func (b *Base) calculateBisectionCutAfterAssignment(hn, from, to int) {
	for _, he := range b.hg.IncidentEdges(hn) {
		pinsInSourcePartBefore := 0
		if from != Unassigned {
			pinsInSourcePartBefore = b.hg.PinCountInPart(he, from) + 1
		}
		pinsInTargetPartAfter := b.hg.PinCountInPart(he, to)
		connectivity := b.hg.Connectivity(he)
		connectivityBefore := connectivity
		if pinsInSourcePartBefore == 1 {
			connectivityBefore++
		}
		if pinsInTargetPartAfter == 1 {
			connectivityBefore--
		}
		if connectivity == 1 && connectivityBefore == 2 {
			b.currentCut -= b.hg.EdgeWeight(he)
		}
		if connectivity == 2 && connectivityBefore == 1 {
			b.currentCut += b.hg.EdgeWeight(he)
		}
	}

	if !b.isFeasible() {
		return
	}
	if b.currentCut < b.bestCut {
		b.bestCut = b.currentCut
		b.bestCutNode = hn
		b.bestCutRecord = len(b.history)
	}
	b.history = append(b.history, NodeAssignment{Node: hn, From: from, To: to})
}

// isFeasible reports whether every part is within its upper bound.
func (b *Base) isFeasible() bool {
	upper := b.cfg.UpperAllowedPartitionWeight
	for p := 0; p < b.k; p++ {
		if b.hg.PartWeight(p) > upper[p] {
			return false
		}
	}
	return true
}

// checkBalanceConstraints fails if the configured bounds were not computed
// for this hypergraph, e.g. because another attempt shares the config.
func (b *Base) checkBalanceConstraints() error {
	if n := len(b.cfg.UpperAllowedPartitionWeight); n < b.k {
		return fmt.Errorf("%w: %d upper bounds for k=%d", ErrStaleBalanceConstraints, n, b.k)
	}
	if w := b.cfg.BoundsTotalWeight; w != b.totalWeight {
		return fmt.Errorf("%w: computed for total weight %d, hypergraph weighs %d",
			ErrStaleBalanceConstraints, w, b.totalWeight)
	}
	return nil
}
