package initialpartitioning

import (
	"fmt"
	"time"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/stats"
)

// PerformFMRefinement hands the current assignment to the refiner. It only
// runs when refinement is enabled and parts 0 and 1 share the same upper
// bound; otherwise it returns without doing anything.
//
// If the refiner keeps any move, the rollback history and best-cut marker
// are dropped, since they describe states the refiner has moved away from.
func (b *Base) PerformFMRefinement() error {
	if !b.cfg.Refinement() {
		return nil
	}
	if b.refiner == nil {
		b.logger.Debug().Msg("No refiner configured, skipping refinement")
		return nil
	}

	b.cfg.SetTotalGraphWeight(b.totalWeight)
	if err := b.checkBalanceConstraints(); err != nil {
		return err
	}
	upper := b.cfg.UpperAllowedPartitionWeight
	if len(upper) < 2 || upper[0] != upper[1] {
		b.logger.Debug().Ints64("upper_bounds", upper).Msg("Asymmetric bounds, skipping refinement")
		return nil
	}
	if err := b.refiner.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize refiner: %w", err)
	}

	nodes := make([]int, b.hg.NumNodes())
	for i := range nodes {
		nodes[i] = i
	}
	cutBefore := metrics.HyperedgeCut(b.hg)
	cut := cutBefore
	imbalance := metrics.Imbalance(b.hg, b.k)
	maxAllowedPartWeight := upper[0]

	start := time.Now()
	moved := b.refiner.Refine(nodes, maxAllowedPartWeight, &cut, &imbalance)
	elapsed := time.Since(start)

	cutAfter := metrics.HyperedgeCut(b.hg)
	b.stats.AddStat(stats.CategoryPartitioningResults, stats.CutIncreaseDuringRefinement, float64(cutBefore-cutAfter))
	b.stats.AddStat(stats.CategoryTimeMeasurements, stats.RefinementTime, elapsed.Seconds())

	// The refiner moves nodes without going through the cut tracker.
	b.currentCut = cutAfter
	if moved {
		b.Reset()
	}

	b.logger.Debug().
		Int64("cut_before", cutBefore).
		Int64("cut_after", cutAfter).
		Float64("imbalance", imbalance).
		Bool("moved", moved).
		Dur("elapsed", elapsed).
		Msg("FM refinement completed")
	return nil
}
