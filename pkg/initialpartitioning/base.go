// Package initialpartitioning holds the machinery shared by initial
// partitioners: balance bounds, incremental cut tracking, rollback to the best
// cut seen, FM refinement and extraction of one part as a new hypergraph.
//
// A Base serves a single attempt on a single hypergraph and is not safe for
// concurrent use.
package initialpartitioning

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/config"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/refinement"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/stats"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/tracking"
)

// Unassigned marks a node without a part.
const Unassigned = -1

const noNode = -1

// Hypergraph is the view of the hypergraph the engine queries and mutates.
type Hypergraph interface {
	refinement.Hypergraph
	EdgeSize(he int) int
	SetNodePart(hn, p int) error
}

// RandomSource draws uniform integers in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// NodeAssignment records one accepted, feasible move.
type NodeAssignment struct {
	Node int
	From int
	To   int
}

// Option configures a Base with optional collaborators.
type Option func(*Base)

// WithStats sets the statistics context the attempt reports into.
func WithStats(m *stats.Manager) Option {
	return func(b *Base) { b.stats = m }
}

// WithRefiner sets the local search used by PerformFMRefinement.
func WithRefiner(r refinement.Refiner) Option {
	return func(b *Base) { b.refiner = r }
}

// WithRand sets the random source used by GetUnassignedNode.
func WithRand(r RandomSource) Option {
	return func(b *Base) { b.rng = r }
}

// WithMoveTracker traces every accepted assignment.
func WithMoveTracker(t *tracking.MoveTracker) Option {
	return func(b *Base) { b.tracker = t }
}

// WithLogger sets the logger. Defaults to the one built from the config.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Base) {
		b.logger = logger
		b.hasLogger = true
	}
}

// Base is the engine behind an initial partitioning attempt.
type Base struct {
	hg      Hypergraph
	cfg     *config.Config
	stats   *stats.Manager
	refiner refinement.Refiner
	rng     RandomSource
	tracker *tracking.MoveTracker

	logger    zerolog.Logger
	hasLogger bool
	attemptID string

	// Copied from cfg, read on every assignment.
	k         int
	verifyCut bool

	totalWeight   int64
	heaviestNode  int64
	currentCut    int64
	bestCut       int64
	bestCutNode   int
	bestCutRecord int
	history       []NodeAssignment
}

// NewBase prepares an attempt on hg. It computes the total node weight and
// writes it back into cfg.
func NewBase(hg Hypergraph, cfg *config.Config, opts ...Option) (*Base, error) {
	if hg == nil {
		return nil, fmt.Errorf("hypergraph is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.K() < 1 || cfg.K() > hg.K() {
		return nil, fmt.Errorf("%w: config k=%d, hypergraph k=%d", ErrInvalidK, cfg.K(), hg.K())
	}

	b := &Base{hg: hg, cfg: cfg, k: cfg.K(), verifyCut: cfg.VerifyCut()}
	for _, opt := range opts {
		opt(b)
	}
	if !b.hasLogger {
		b.logger = cfg.CreateLogger()
	}
	b.attemptID = uuid.NewString()
	b.logger = b.logger.With().Str("attempt", b.attemptID).Logger()
	if b.stats == nil {
		b.stats = stats.NewManager()
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(cfg.Seed()))
	}
	if b.refiner == nil && cfg.K() == 2 {
		b.refiner = refinement.NewTwoWayFM(hg,
			refinement.NewNumberOfFruitlessMoves(cfg.MaxFruitlessMoves()),
			refinement.CutDecreasedOrImbalanceDecreased{},
			cfg.Epsilon(), b.logger)
	}

	for hn := 0; hn < hg.NumNodes(); hn++ {
		w := hg.NodeWeight(hn)
		b.totalWeight += w
		if w > b.heaviestNode {
			b.heaviestNode = w
		}
	}
	cfg.SetTotalGraphWeight(b.totalWeight)
	b.Reset()

	b.logger.Debug().
		Int("nodes", hg.NumNodes()).
		Int("edges", hg.NumEdges()).
		Int64("total_weight", b.totalWeight).
		Int64("heaviest_node", b.heaviestNode).
		Msg("Initial partitioning attempt created")

	return b, nil
}

// Reset drops the history and best-cut marker and resynchronises the tracked
// cut with the hypergraph.
func (b *Base) Reset() {
	b.history = b.history[:0]
	b.bestCut = math.MaxInt64
	b.bestCutNode = noNode
	b.bestCutRecord = -1
	b.currentCut = metrics.HyperedgeCut(b.hg)
}

// RecalculateBalanceConstraints sets every part's bounds to
// ceil(total/k) * (1 -/+ epsilon) and picks up the configured k.
func (b *Base) RecalculateBalanceConstraints() error {
	k := b.cfg.K()
	if k <= 0 || k > b.hg.K() {
		return fmt.Errorf("%w: config k=%d, hypergraph k=%d", ErrInvalidK, k, b.hg.K())
	}
	b.k = k
	if len(b.cfg.UpperAllowedPartitionWeight) != k {
		b.cfg.UpperAllowedPartitionWeight = make([]int64, k)
		b.cfg.LowerAllowedPartitionWeight = make([]int64, k)
	}

	perfect := math.Ceil(float64(b.totalWeight) / float64(k))
	epsilon := b.cfg.Epsilon()
	for p := 0; p < k; p++ {
		b.cfg.LowerAllowedPartitionWeight[p] = int64(perfect * (1.0 - epsilon))
		b.cfg.UpperAllowedPartitionWeight[p] = int64(perfect * (1.0 + epsilon))
	}
	b.cfg.BoundsTotalWeight = b.totalWeight
	b.cfg.SetTotalGraphWeight(b.totalWeight)
	return nil
}

// AttemptID identifies this attempt in logs.
func (b *Base) AttemptID() string { return b.attemptID }

// TotalWeight is the summed weight of all nodes.
func (b *Base) TotalWeight() int64 { return b.totalWeight }

// HeaviestNodeWeight is the largest single node weight.
func (b *Base) HeaviestNodeWeight() int64 { return b.heaviestNode }

// CurrentCut is the incrementally tracked cut.
func (b *Base) CurrentCut() int64 { return b.currentCut }

// BestCut returns the lowest feasible cut recorded and the node whose
// assignment produced it. ok is false until a feasible assignment happened.
func (b *Base) BestCut() (cut int64, node int, ok bool) {
	return b.bestCut, b.bestCutNode, b.bestCutRecord >= 0
}

// History returns a copy of the rollback log, oldest first.
func (b *Base) History() []NodeAssignment {
	return append([]NodeAssignment(nil), b.history...)
}

// HistoryLen is the number of moves that rollback can still undo.
func (b *Base) HistoryLen() int { return len(b.history) }

// Stats returns the statistics context of this attempt.
func (b *Base) Stats() *stats.Manager { return b.stats }
