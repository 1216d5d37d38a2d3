package initialpartitioning

import (
	"fmt"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/hypergraph"
)

// ExtractedPartition is the sub-hypergraph induced by one part, in CSR form
// with compact node ids.
type ExtractedPartition struct {
	NumNodes    int
	NumEdges    int
	IndexVector []int
	EdgeVector  []int
	EdgeWeights []int64
	NodeWeights []int64

	// Mapping[newID] is the node id in the source hypergraph.
	Mapping []int
	// OriginalEdges[newEdge] is the hyperedge id in the source hypergraph.
	OriginalEdges []int
}

// Hypergraph builds an unpartitioned hypergraph with k parts from the extraction.
func (e *ExtractedPartition) Hypergraph(k int) (*hypergraph.Hypergraph, error) {
	return hypergraph.New(e.NumNodes, e.NumEdges, e.IndexVector, e.EdgeVector, k, e.EdgeWeights, e.NodeWeights)
}

// ExtractPartitionAsHypergraph returns the nodes of part together with the
// hyperedges lying completely inside it. New node ids follow ascending
// source ids; pins keep their source order.
func (b *Base) ExtractPartitionAsHypergraph(part int) (*ExtractedPartition, error) {
	if part < 0 || part >= b.hg.K() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPart, part, b.hg.K())
	}

	numNodes := b.hg.NumNodes()
	oldToNew := make([]int, numNodes)
	ext := &ExtractedPartition{
		IndexVector:   []int{0},
		EdgeVector:    []int{},
		EdgeWeights:   []int64{},
		NodeWeights:   []int64{},
		Mapping:       []int{},
		OriginalEdges: []int{},
	}

	for hn := 0; hn < numNodes; hn++ {
		oldToNew[hn] = noNode
		if b.hg.PartID(hn) == part {
			oldToNew[hn] = len(ext.Mapping)
			ext.Mapping = append(ext.Mapping, hn)
			ext.NodeWeights = append(ext.NodeWeights, b.hg.NodeWeight(hn))
		}
	}
	ext.NumNodes = len(ext.Mapping)

	for he := 0; he < b.hg.NumEdges(); he++ {
		// Connectivity ignores unassigned pins, so count the pins in part.
		size := b.hg.EdgeSize(he)
		if size == 0 || b.hg.PinCountInPart(he, part) != size {
			continue
		}
		for _, pin := range b.hg.Pins(he) {
			ext.EdgeVector = append(ext.EdgeVector, oldToNew[pin])
		}
		ext.IndexVector = append(ext.IndexVector, len(ext.EdgeVector))
		ext.OriginalEdges = append(ext.OriginalEdges, he)
		ext.EdgeWeights = append(ext.EdgeWeights, b.hg.EdgeWeight(he))
	}
	ext.NumEdges = len(ext.IndexVector) - 1

	if err := b.verifyExtraction(part, ext); err != nil {
		return nil, err
	}

	b.logger.Debug().
		Int("part", part).
		Int("nodes", ext.NumNodes).
		Int("edges", ext.NumEdges).
		Msg("Extracted partition")
	return ext, nil
}

func (b *Base) verifyExtraction(part int, ext *ExtractedPartition) error {
	for i, hn := range ext.Mapping {
		if b.hg.PartID(hn) != part {
			return fmt.Errorf("%w: extracted node %d comes from part %d", ErrInconsistentState, hn, b.hg.PartID(hn))
		}
		if b.hg.NodeWeight(hn) != ext.NodeWeights[i] {
			return fmt.Errorf("%w: weight of extracted node %d differs", ErrInconsistentState, hn)
		}
	}
	for i, he := range ext.OriginalEdges {
		start, end := ext.IndexVector[i], ext.IndexVector[i+1]
		if end-start != b.hg.EdgeSize(he) || ext.EdgeWeights[i] != b.hg.EdgeWeight(he) {
			return fmt.Errorf("%w: size or weight of extracted edge %d differs", ErrInconsistentState, he)
		}
		for j, pin := range b.hg.Pins(he) {
			newID := ext.EdgeVector[start+j]
			if newID < 0 || ext.Mapping[newID] != pin {
				return fmt.Errorf("%w: pins of extracted edge %d differ", ErrInconsistentState, he)
			}
			if b.hg.PartID(pin) != part {
				return fmt.Errorf("%w: extracted edge %d is cut", ErrInconsistentState, he)
			}
		}
	}
	return nil
}
