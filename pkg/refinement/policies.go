package refinement

// StopPolicy decides when a local search pass gives up.
type StopPolicy interface {
	// Reset is called at the start of a pass.
	Reset()
	// Update records whether the last move was accepted as an improvement.
	Update(improved bool)
	// SearchShouldStop reports whether the pass should end now.
	SearchShouldStop() bool
}

// ImprovementPolicy decides whether the current state beats the best one seen in a pass.
type ImprovementPolicy interface {
	ImprovementFound(bestCut, cut int64, bestImbalance, imbalance, maxImbalance float64) bool
}

// NumberOfFruitlessMoves stops after a fixed number of consecutive moves that
// did not improve the best solution.
type NumberOfFruitlessMoves struct {
	MaxFruitlessMoves int
	fruitless         int
}

// NewNumberOfFruitlessMoves creates the policy. Non-positive limits stop after the first fruitless move.
func NewNumberOfFruitlessMoves(maxFruitlessMoves int) *NumberOfFruitlessMoves {
	if maxFruitlessMoves < 1 {
		maxFruitlessMoves = 1
	}
	return &NumberOfFruitlessMoves{MaxFruitlessMoves: maxFruitlessMoves}
}

func (p *NumberOfFruitlessMoves) Reset() { p.fruitless = 0 }

func (p *NumberOfFruitlessMoves) Update(improved bool) {
	if improved {
		p.fruitless = 0
		return
	}
	p.fruitless++
}

func (p *NumberOfFruitlessMoves) SearchShouldStop() bool {
	return p.fruitless >= p.MaxFruitlessMoves
}

// CutDecreasedOrImbalanceDecreased accepts a strictly lower cut, or an equal
// cut with strictly lower imbalance.
type CutDecreasedOrImbalanceDecreased struct{}

func (CutDecreasedOrImbalanceDecreased) ImprovementFound(bestCut, cut int64, bestImbalance, imbalance, _ float64) bool {
	return cut < bestCut || (cut == bestCut && imbalance < bestImbalance)
}

// CutDecreasedOrInfeasibleImbalanceDecreased first drives an infeasible
// partition towards balance, then accepts only cut decreases that stay feasible.
type CutDecreasedOrInfeasibleImbalanceDecreased struct{}

func (CutDecreasedOrInfeasibleImbalanceDecreased) ImprovementFound(bestCut, cut int64, bestImbalance, imbalance, maxImbalance float64) bool {
	if bestImbalance > maxImbalance {
		return imbalance < bestImbalance
	}
	return cut < bestCut && imbalance <= maxImbalance
}
