package initialpartitioning

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/hypergraph"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/tracking"
)

func assign(t *testing.T, b *Base, hn, part int) bool {
	t.Helper()
	ok, err := b.AssignHypernodeToPartition(hn, part)
	require.NoError(t, err)
	return ok
}

func TestAssignSingleEdgeScenario(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	b := newTestBase(t, hg, newTestConfig(2, 0.0))

	steps := []struct {
		node         int
		part         int
		connectivity int
		cut          int64
	}{
		{0, 0, 1, 0},
		{1, 1, 2, 1},
		{2, 1, 2, 1},
		{3, 0, 2, 1},
	}
	for _, step := range steps {
		require.True(t, assign(t, b, step.node, step.part))
		assert.Equal(t, step.part, hg.PartID(step.node))
		assert.Equal(t, step.connectivity, hg.Connectivity(0))
		assert.Equal(t, step.cut, b.CurrentCut())
	}

	cut, node, ok := b.BestCut()
	require.True(t, ok)
	assert.Equal(t, int64(0), cut)
	assert.Equal(t, 0, node)
	assert.Equal(t, 4, b.HistoryLen())
	assert.Equal(t, NodeAssignment{Node: 1, From: Unassigned, To: 1}, b.History()[1])
}

func TestAssignRejectsOverweightTarget(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	b := newTestBase(t, hg, newTestConfig(2, 0.0))

	require.True(t, assign(t, b, 0, 0))
	require.True(t, assign(t, b, 1, 0))

	assert.False(t, assign(t, b, 2, 0))
	assert.Equal(t, hypergraph.Unassigned, hg.PartID(2))
	assert.Equal(t, int64(2), hg.PartWeight(0))
	assert.Equal(t, 2, b.HistoryLen())
	assert.Equal(t, int64(0), b.CurrentCut())
}

func TestAssignToSamePartIsNoOp(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	b := newTestBase(t, hg, newTestConfig(2, 0.5))

	require.True(t, assign(t, b, 0, 0))
	require.True(t, assign(t, b, 1, 1))
	historyBefore := b.History()
	cutBefore := b.CurrentCut()
	weightBefore := hg.PartWeight(0)

	assert.False(t, assign(t, b, 0, 0))
	assert.Equal(t, historyBefore, b.History())
	assert.Equal(t, cutBefore, b.CurrentCut())
	assert.Equal(t, weightBefore, hg.PartWeight(0))
	assert.Equal(t, 0, hg.PartID(0))
}

func TestAssignMovesBetweenParts(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	b := newTestBase(t, hg, newTestConfig(2, 0.5))

	require.True(t, assign(t, b, 0, 0))
	require.True(t, assign(t, b, 1, 1))
	require.Equal(t, int64(1), b.CurrentCut())

	require.True(t, assign(t, b, 1, 0))
	assert.Equal(t, int64(0), b.CurrentCut())
	assert.Equal(t, NodeAssignment{Node: 1, From: 1, To: 0}, b.History()[2])
}

func TestAssignPreconditionErrors(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	cfg := newTestConfig(2, 0.0)
	b := newTestBase(t, hg, cfg)

	_, err := b.AssignHypernodeToPartition(-1, 0)
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, err = b.AssignHypernodeToPartition(4, 0)
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, err = b.AssignHypernodeToPartition(0, 2)
	assert.ErrorIs(t, err, ErrInvalidPart)
	_, err = b.AssignHypernodeToPartition(0, -1)
	assert.ErrorIs(t, err, ErrInvalidPart)

	require.NoError(t, b.RecalculateBalanceConstraints())
	assert.True(t, assign(t, b, 0, 0))
}

func TestAssignDetectsBoundsOfAnotherAttempt(t *testing.T) {
	cfg := newTestConfig(2, 0.0)
	small := newTestBase(t, createSingleEdgeHypergraph(t), cfg)
	require.Equal(t, []int64{2, 2}, cfg.UpperAllowedPartitionWeight)

	// A second attempt on a heavier hypergraph shares the config but has not
	// recomputed the bounds yet.
	rng := rand.New(rand.NewSource(9))
	large, err := NewBase(createRandomHypergraph(t, rng, 100, 50, 2), cfg, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	assert.Equal(t, large.TotalWeight(), cfg.TotalGraphWeight())

	_, err = large.AssignHypernodeToPartition(0, 0)
	assert.ErrorIs(t, err, ErrStaleBalanceConstraints)
	assert.ErrorIs(t, large.PerformFMRefinement(), ErrStaleBalanceConstraints)

	require.NoError(t, large.RecalculateBalanceConstraints())
	for hn := 0; hn < 3; hn++ {
		assert.True(t, assign(t, large, hn, 0))
	}

	// Now the first attempt holds stale bounds.
	_, err = small.AssignHypernodeToPartition(0, 0)
	assert.ErrorIs(t, err, ErrStaleBalanceConstraints)
}

func TestAssignPicksUpKOnRecalculation(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	cfg := newTestConfig(2, 1.0)
	b := newTestBase(t, hg, cfg)

	cfg.Set("partition.k", 1)
	_, err := b.AssignHypernodeToPartition(0, 1)
	assert.ErrorIs(t, err, ErrStaleBalanceConstraints)

	require.NoError(t, b.RecalculateBalanceConstraints())
	_, err = b.AssignHypernodeToPartition(0, 1)
	assert.ErrorIs(t, err, ErrInvalidPart)
	assert.True(t, assign(t, b, 0, 0))
}

func TestCutTrackingMatchesRecomputation(t *testing.T) {
	for _, k := range []int{2, 3, 4} {
		rng := rand.New(rand.NewSource(int64(k)))
		for trial := 0; trial < 10; trial++ {
			hg := createRandomHypergraph(t, rng, 40, 60, k)
			b := newTestBase(t, hg, newTestConfig(k, 0.2))

			for step := 0; step < 200; step++ {
				ok, err := b.AssignHypernodeToPartition(rng.Intn(hg.NumNodes()), rng.Intn(k))
				require.NoError(t, err)
				if ok {
					require.Equal(t, metrics.HyperedgeCut(hg), b.CurrentCut())
				}
			}
			require.NoError(t, hg.Validate())
			for p := 0; p < k; p++ {
				assert.LessOrEqual(t, hg.PartWeight(p), b.cfg.UpperAllowedPartitionWeight[p])
			}
		}
	}
}

func TestInfeasibleMoveIsAppliedButNotRecorded(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	cfg := newTestConfig(2, 1.0)
	b := newTestBase(t, hg, cfg)

	require.True(t, assign(t, b, 0, 0))
	require.True(t, assign(t, b, 1, 0))
	require.True(t, assign(t, b, 2, 0))
	require.Equal(t, 3, b.HistoryLen())

	// Tighten part 0 so that it is now overloaded.
	cfg.UpperAllowedPartitionWeight[0] = 1

	require.True(t, assign(t, b, 3, 1))
	assert.Equal(t, 1, hg.PartID(3))
	assert.Equal(t, int64(1), b.CurrentCut())
	assert.Equal(t, 3, b.HistoryLen(), "infeasible move must not enter the history")
}

func TestAssignTracesMoves(t *testing.T) {
	hg := createSingleEdgeHypergraph(t)
	cfg := newTestConfig(2, 1.0)
	var buf bytes.Buffer
	b := newTestBase(t, hg, cfg, WithMoveTracker(tracking.NewMoveTrackerWriter(&buf)))

	require.True(t, assign(t, b, 0, 0))
	require.True(t, assign(t, b, 1, 0))
	require.True(t, assign(t, b, 2, 0))
	cfg.UpperAllowedPartitionWeight[0] = 1
	require.True(t, assign(t, b, 3, 1))
	assert.False(t, assign(t, b, 3, 0), "rejected moves are not traced")

	decoder := json.NewDecoder(&buf)
	var events []tracking.MoveEvent
	for decoder.More() {
		var e tracking.MoveEvent
		require.NoError(t, decoder.Decode(&e))
		events = append(events, e)
	}
	require.Len(t, events, 4)
	assert.Equal(t, b.AttemptID(), events[0].Attempt)
	assert.True(t, events[2].Recorded)
	assert.False(t, events[3].Recorded, "infeasible move is traced but not recorded")
	assert.Equal(t, int64(1), events[3].Cut)
	assert.Equal(t, Unassigned, events[3].FromPart)
}
