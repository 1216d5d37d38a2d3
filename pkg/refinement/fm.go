package refinement

import (
	"container/heap"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
)

// Refiner improves an existing assignment in place.
type Refiner interface {
	Initialize() error
	// Refine runs local search over nodes. cut and imbalance hold the values
	// of the current assignment on entry and of the refined one on return.
	Refine(nodes []int, maxPartWeight int64, cut *int64, imbalance *float64) bool
}

// Hypergraph is the view a refiner reads and mutates.
type Hypergraph interface {
	metrics.Hypergraph
	K() int
	PartID(hn int) int
	NodeWeight(hn int) int64
	Pins(he int) []int
	IncidentEdges(hn int) []int
	PinCountInPart(he, p int) int
	ChangeNodePart(hn, from, to int) error
}

type move struct {
	node int
	from int
	to   int
}

// TwoWayFM is a single-pass Fiduccia-Mattheyses refiner for bisections.
type TwoWayFM struct {
	hg           Hypergraph
	stop         StopPolicy
	improvement  ImprovementPolicy
	maxImbalance float64
	logger       zerolog.Logger

	gain     []int64
	locked   []bool
	eligible []bool
	pq       gainQueue
	moves    []move
	initDone bool
}

// NewTwoWayFM creates a refiner. maxImbalance is the tolerance handed to the improvement policy.
func NewTwoWayFM(hg Hypergraph, stop StopPolicy, improvement ImprovementPolicy, maxImbalance float64, logger zerolog.Logger) *TwoWayFM {
	return &TwoWayFM{
		hg:           hg,
		stop:         stop,
		improvement:  improvement,
		maxImbalance: maxImbalance,
		logger:       logger,
	}
}

// Initialize allocates per-node state. The hypergraph must be a bisection.
func (r *TwoWayFM) Initialize() error {
	if r.hg.K() != 2 {
		return fmt.Errorf("two-way FM requires k=2, got k=%d", r.hg.K())
	}
	n := r.hg.NumNodes()
	r.gain = make([]int64, n)
	r.locked = make([]bool, n)
	r.eligible = make([]bool, n)
	r.pq = r.pq[:0]
	r.moves = r.moves[:0]
	r.initDone = true
	return nil
}

// Refine implements Refiner.
func (r *TwoWayFM) Refine(nodes []int, maxPartWeight int64, cut *int64, imbalance *float64) bool {
	if !r.initDone {
		if err := r.Initialize(); err != nil {
			r.logger.Warn().Err(err).Msg("Refinement skipped")
			return false
		}
	}
	for i := range r.locked {
		r.locked[i] = false
		r.eligible[i] = false
	}
	r.pq = r.pq[:0]
	r.moves = r.moves[:0]
	r.stop.Reset()

	for _, hn := range nodes {
		if r.hg.PartID(hn) < 0 {
			continue
		}
		r.eligible[hn] = true
		r.gain[hn] = r.computeGain(hn)
		r.pq = append(r.pq, gainEntry{node: hn, gain: r.gain[hn]})
	}
	heap.Init(&r.pq)

	initialCut := *cut
	bestCut, bestImbalance := *cut, *imbalance
	currentCut := *cut
	bestPrefix := 0

	for r.pq.Len() > 0 && !r.stop.SearchShouldStop() {
		entry := heap.Pop(&r.pq).(gainEntry)
		hn := entry.node
		if r.locked[hn] || entry.gain != r.gain[hn] {
			continue
		}
		from := r.hg.PartID(hn)
		to := 1 - from
		if r.hg.PartWeight(to)+r.hg.NodeWeight(hn) > maxPartWeight {
			continue
		}

		if err := r.hg.ChangeNodePart(hn, from, to); err != nil {
			r.logger.Error().Err(err).Int("node", hn).Msg("Move rejected by hypergraph")
			break
		}
		r.locked[hn] = true
		r.moves = append(r.moves, move{node: hn, from: from, to: to})
		currentCut -= entry.gain
		currentImbalance := metrics.Imbalance(r.hg, 2)

		improved := r.improvement.ImprovementFound(bestCut, currentCut, bestImbalance, currentImbalance, r.maxImbalance)
		if improved {
			bestCut, bestImbalance = currentCut, currentImbalance
			bestPrefix = len(r.moves)
		}
		r.stop.Update(improved)

		r.updateNeighbours(hn)
	}

	for i := len(r.moves) - 1; i >= bestPrefix; i-- {
		m := r.moves[i]
		if err := r.hg.ChangeNodePart(m.node, m.to, m.from); err != nil {
			r.logger.Error().Err(err).Int("node", m.node).Msg("Failed to undo move")
		}
	}

	r.logger.Debug().
		Int("moves", len(r.moves)).
		Int("kept_moves", bestPrefix).
		Int64("initial_cut", initialCut).
		Int64("final_cut", bestCut).
		Float64("imbalance", bestImbalance).
		Msg("FM pass completed")

	*cut = bestCut
	*imbalance = bestImbalance
	return bestPrefix > 0
}

// computeGain is the cut reduction of moving hn to the other side.
func (r *TwoWayFM) computeGain(hn int) int64 {
	from := r.hg.PartID(hn)
	to := 1 - from
	var gain int64
	for _, he := range r.hg.IncidentEdges(hn) {
		if r.hg.PinCountInPart(he, from) == 1 && r.hg.PinCountInPart(he, to) > 0 {
			gain += r.hg.EdgeWeight(he)
		} else if r.hg.PinCountInPart(he, to) == 0 && r.hg.PinCountInPart(he, from) > 1 {
			gain -= r.hg.EdgeWeight(he)
		}
	}
	return gain
}

func (r *TwoWayFM) updateNeighbours(hn int) {
	for _, he := range r.hg.IncidentEdges(hn) {
		for _, pin := range r.hg.Pins(he) {
			if pin == hn || r.locked[pin] || !r.eligible[pin] {
				continue
			}
			if g := r.computeGain(pin); g != r.gain[pin] {
				r.gain[pin] = g
				heap.Push(&r.pq, gainEntry{node: pin, gain: g})
			}
		}
	}
}

type gainEntry struct {
	node int
	gain int64
}

// gainQueue is a max-heap on gain; stale entries are skipped on pop.
type gainQueue []gainEntry

func (q gainQueue) Len() int { return len(q) }
func (q gainQueue) Less(i, j int) bool {
	if q[i].gain != q[j].gain {
		return q[i].gain > q[j].gain
	}
	return q[i].node < q[j].node
}
func (q gainQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *gainQueue) Push(x any) { *q = append(*q, x.(gainEntry)) }

func (q *gainQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
