package initialpartitioning

import (
	"fmt"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/stats"
)

// RollbackToBestBisectionCut undoes every recorded move made after the one
// that produced the best cut. Undo goes through the raw hypergraph primitive,
// so nothing is recorded again. It is a no-op if rollback is disabled or the
// history is empty.
//
// Moves that were applied but never recorded (infeasible at the time) are not
// undone; if one of them sits after the best cut, the restored cut will not
// match and ErrInconsistentState is returned.
func (b *Base) RollbackToBestBisectionCut() error {
	if !b.cfg.Rollback() || len(b.history) == 0 {
		return nil
	}

	cutBefore := metrics.HyperedgeCut(b.hg)
	undone := 0
	for len(b.history) > b.bestCutRecord+1 {
		last := b.history[len(b.history)-1]
		b.history = b.history[:len(b.history)-1]
		if err := b.hg.ChangeNodePart(last.Node, last.To, last.From); err != nil {
			return fmt.Errorf("%w: undo of node %d failed: %v", ErrInconsistentState, last.Node, err)
		}
		undone++
	}

	cut := metrics.HyperedgeCut(b.hg)
	if cut != b.bestCut {
		return fmt.Errorf("%w: best seen cut should be %d, but is %d", ErrInconsistentState, b.bestCut, cut)
	}
	b.currentCut = cut

	b.stats.AddStat(stats.CategoryPartitioningResults, stats.CutIncreaseDuringRollback, float64(cutBefore-b.bestCut))

	b.logger.Debug().
		Int("undone_moves", undone).
		Int64("cut_before", cutBefore).
		Int64("best_cut", b.bestCut).
		Int("best_cut_node", b.bestCutNode).
		Msg("Rolled back to best bisection cut")
	return nil
}
