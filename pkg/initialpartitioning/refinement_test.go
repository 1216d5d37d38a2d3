package initialpartitioning

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/hypergraph"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/stats"
)

// recordingRefiner moves a fixed node to the other side on every call.
type recordingRefiner struct {
	hg            *hypergraph.Hypergraph
	moveNode      int
	initErr       error
	initCalls     int
	refineCalls   int
	nodes         int
	maxPartWeight int64
	cutIn         int64
}

func (r *recordingRefiner) Initialize() error {
	r.initCalls++
	return r.initErr
}

func (r *recordingRefiner) Refine(nodes []int, maxPartWeight int64, cut *int64, imbalance *float64) bool {
	r.refineCalls++
	r.nodes = len(nodes)
	r.maxPartWeight = maxPartWeight
	r.cutIn = *cut
	if r.moveNode >= 0 {
		from := r.hg.PartID(r.moveNode)
		if err := r.hg.ChangeNodePart(r.moveNode, from, 1-from); err == nil {
			*cut = metrics.HyperedgeCut(r.hg)
			*imbalance = metrics.Imbalance(r.hg, 2)
			return true
		}
	}
	return false
}

func TestPerformFMRefinementReportsStats(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	statsManager := stats.NewManager()
	refiner := &recordingRefiner{hg: hg, moveNode: 1}
	b := newTestBase(t, hg, newTestConfig(2, 1.0), WithStats(statsManager), WithRefiner(refiner))

	require.True(t, assign(t, b, 0, 0))
	require.True(t, assign(t, b, 1, 1))
	require.Equal(t, int64(1), b.CurrentCut())

	require.NoError(t, b.PerformFMRefinement())

	assert.Equal(t, 1, refiner.initCalls)
	assert.Equal(t, 1, refiner.refineCalls)
	assert.Equal(t, 4, refiner.nodes)
	assert.Equal(t, int64(4), refiner.maxPartWeight)
	assert.Equal(t, int64(1), refiner.cutIn)

	assert.Equal(t, int64(0), b.CurrentCut(), "tracked cut follows the refiner")
	assert.Equal(t, 1.0, statsManager.GetStat(stats.CategoryPartitioningResults, stats.CutIncreaseDuringRefinement))
	assert.GreaterOrEqual(t, statsManager.GetStat(stats.CategoryTimeMeasurements, stats.RefinementTime), 0.0)
	assert.Contains(t, statsManager.Metrics(stats.CategoryTimeMeasurements), stats.RefinementTime)

	// Counters accumulate across calls.
	require.NoError(t, b.PerformFMRefinement())
	assert.Equal(t, 0.0, statsManager.GetStat(stats.CategoryPartitioningResults, stats.CutIncreaseDuringRefinement))
}

func TestRollbackAfterRefinement(t *testing.T) {
	t.Run("RefinerMovedNodes", func(t *testing.T) {
		hg := createSingleEdgeHypergraph(t)
		refiner := &recordingRefiner{hg: hg, moveNode: 1}
		b := newTestBase(t, hg, newTestConfig(2, 1.0), WithRefiner(refiner))
		for hn, part := range []int{0, 1, 1, 0} {
			require.True(t, assign(t, b, hn, part))
		}

		require.NoError(t, b.PerformFMRefinement())
		assert.Equal(t, 0, b.HistoryLen())
		_, _, ok := b.BestCut()
		assert.False(t, ok)

		refined := partIDs(hg)
		require.NoError(t, b.RollbackToBestBisectionCut())
		assert.Equal(t, refined, partIDs(hg))
		assert.Equal(t, metrics.HyperedgeCut(hg), b.CurrentCut())
	})

	t.Run("RefinerKeptAssignment", func(t *testing.T) {
		hg := createSingleEdgeHypergraph(t)
		refiner := &recordingRefiner{hg: hg, moveNode: -1}
		b := newTestBase(t, hg, newTestConfig(2, 1.0), WithRefiner(refiner))
		for hn, part := range []int{0, 1, 1, 0} {
			require.True(t, assign(t, b, hn, part))
		}

		require.NoError(t, b.PerformFMRefinement())
		assert.Equal(t, 4, b.HistoryLen())
		require.NoError(t, b.RollbackToBestBisectionCut())
		assert.Equal(t, []int{0, Unassigned, Unassigned, Unassigned}, partIDs(hg))
	})
}

func TestPerformFMRefinementSkipped(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		hg := createSingleEdgeHypergraph(t)
		cfg := newTestConfig(2, 0.0)
		cfg.Set("initial_partitioning.refinement", false)
		refiner := &recordingRefiner{hg: hg, moveNode: -1}
		b := newTestBase(t, hg, cfg, WithRefiner(refiner))

		require.NoError(t, b.PerformFMRefinement())
		assert.Equal(t, 0, refiner.initCalls)
		assert.Equal(t, 0, refiner.refineCalls)
	})

	t.Run("AsymmetricBounds", func(t *testing.T) {
		hg := createSingleEdgeHypergraph(t)
		cfg := newTestConfig(2, 0.0)
		statsManager := stats.NewManager()
		refiner := &recordingRefiner{hg: hg, moveNode: -1}
		b := newTestBase(t, hg, cfg, WithRefiner(refiner), WithStats(statsManager))
		cfg.UpperAllowedPartitionWeight[1] = 3

		require.NoError(t, b.PerformFMRefinement())
		assert.Equal(t, 0, refiner.refineCalls)
		assert.Empty(t, statsManager.Categories())
	})

	t.Run("InitializeFails", func(t *testing.T) {
		hg := createSingleEdgeHypergraph(t)
		refiner := &recordingRefiner{hg: hg, moveNode: -1, initErr: errors.New("boom")}
		b := newTestBase(t, hg, newTestConfig(2, 0.0), WithRefiner(refiner))

		assert.Error(t, b.PerformFMRefinement())
		assert.Equal(t, 0, refiner.refineCalls)
	})
}

func TestPerformFMRefinementWithDefaultRefiner(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 10; trial++ {
		hg := createRandomHypergraph(t, rng, 40, 70, 2)
		statsManager := stats.NewManager()
		b := newTestBase(t, hg, newTestConfig(2, 0.1), WithStats(statsManager))

		for hn := 0; hn < hg.NumNodes(); hn++ {
			part := rng.Intn(2)
			if !assign(t, b, hn, part) {
				assign(t, b, hn, 1-part)
			}
		}
		cutBefore := metrics.HyperedgeCut(hg)

		require.NoError(t, b.PerformFMRefinement())

		cutAfter := metrics.HyperedgeCut(hg)
		assert.LessOrEqual(t, cutAfter, cutBefore)
		assert.Equal(t, cutAfter, b.CurrentCut())
		assert.Equal(t, float64(cutBefore-cutAfter),
			statsManager.GetStat(stats.CategoryPartitioningResults, stats.CutIncreaseDuringRefinement))
		for p := 0; p < 2; p++ {
			assert.LessOrEqual(t, hg.PartWeight(p), b.cfg.UpperAllowedPartitionWeight[p])
		}
		require.NoError(t, hg.Validate())
	}
}
