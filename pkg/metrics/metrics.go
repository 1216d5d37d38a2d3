// Package metrics recomputes partition quality measures from scratch. These are
// O(edges) scans used for verification and reporting, never on the hot path.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hypergraph is the read-only view the metrics need.
type Hypergraph interface {
	NumNodes() int
	NumEdges() int
	EdgeWeight(he int) int64
	Connectivity(he int) int
	PartWeight(p int) int64
	TotalWeight() int64
}

// HyperedgeCut returns the summed weight of all hyperedges spanning more than one part.
func HyperedgeCut(hg Hypergraph) int64 {
	var cut int64
	for he := 0; he < hg.NumEdges(); he++ {
		if hg.Connectivity(he) > 1 {
			cut += hg.EdgeWeight(he)
		}
	}
	return cut
}

// Km1 returns the connectivity-minus-one objective.
func Km1(hg Hypergraph) int64 {
	var km1 int64
	for he := 0; he < hg.NumEdges(); he++ {
		if c := hg.Connectivity(he); c > 1 {
			km1 += int64(c-1) * hg.EdgeWeight(he)
		}
	}
	return km1
}

// PartWeights returns the weight of every part as floats.
func PartWeights(hg Hypergraph, k int) []float64 {
	weights := make([]float64, k)
	for p := 0; p < k; p++ {
		weights[p] = float64(hg.PartWeight(p))
	}
	return weights
}

// Imbalance returns max_p w(p) / ceil(W/k) - 1.
func Imbalance(hg Hypergraph, k int) float64 {
	if k < 1 || hg.TotalWeight() == 0 {
		return 0.0
	}
	perfect := math.Ceil(float64(hg.TotalWeight()) / float64(k))
	return floats.Max(PartWeights(hg, k))/perfect - 1.0
}

// AssignedWeight returns the summed weight of all parts.
func AssignedWeight(hg Hypergraph, k int) float64 {
	if k < 1 {
		return 0.0
	}
	return floats.Sum(PartWeights(hg, k))
}
