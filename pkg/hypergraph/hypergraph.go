package hypergraph

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Unassigned is the part id of a node that has not been placed yet.
const Unassigned = -1

// Hypergraph is a weighted hypergraph stored in CSR form (hMetis style) together
// with the state of a k-way partition over its nodes.
type Hypergraph struct {
	numNodes int
	numEdges int
	k        int

	// edgeIndex[he]..edgeIndex[he+1] delimits the pins of he in edgePins
	edgeIndex []int
	edgePins  []int

	// nodeIndex[hn]..nodeIndex[hn+1] delimits the incident edges of hn in nodeEdges
	nodeIndex []int
	nodeEdges []int

	nodeWeights []int64
	edgeWeights []int64
	totalWeight int64

	partIDs        []int
	partWeights    []int64
	partSizes      []int
	pinCountInPart []int // numEdges * k, row-major by edge
	connectivity   []int
}

// New builds a hypergraph from CSR arrays. indexVector has numEdges+1 entries
// and edgeVector holds the pins of all edges back to back. Nil weight slices
// mean unit weights.
func New(numNodes, numEdges int, indexVector, edgeVector []int, k int,
	edgeWeights, nodeWeights []int64) (*Hypergraph, error) {
	if numNodes < 0 || numEdges < 0 {
		return nil, fmt.Errorf("negative size: nodes=%d, edges=%d", numNodes, numEdges)
	}
	if k < 1 {
		return nil, fmt.Errorf("number of parts must be positive: %d", k)
	}
	if len(indexVector) != numEdges+1 {
		return nil, fmt.Errorf("index vector has %d entries, expected %d", len(indexVector), numEdges+1)
	}
	if indexVector[0] != 0 || indexVector[numEdges] != len(edgeVector) {
		return nil, fmt.Errorf("index vector must span [0, %d], got [%d, %d]",
			len(edgeVector), indexVector[0], indexVector[numEdges])
	}
	if edgeWeights != nil && len(edgeWeights) != numEdges {
		return nil, fmt.Errorf("edge weights has %d entries, expected %d", len(edgeWeights), numEdges)
	}
	if nodeWeights != nil && len(nodeWeights) != numNodes {
		return nil, fmt.Errorf("node weights has %d entries, expected %d", len(nodeWeights), numNodes)
	}

	hg := &Hypergraph{
		numNodes:    numNodes,
		numEdges:    numEdges,
		k:           k,
		edgeIndex:   make([]int, numEdges+1),
		edgePins:    make([]int, len(edgeVector)),
		nodeIndex:   make([]int, numNodes+1),
		nodeEdges:   make([]int, len(edgeVector)),
		nodeWeights: make([]int64, numNodes),
		edgeWeights: make([]int64, numEdges),
	}
	copy(hg.edgeIndex, indexVector)
	copy(hg.edgePins, edgeVector)

	for he := 0; he < numEdges; he++ {
		if indexVector[he+1] < indexVector[he] {
			return nil, fmt.Errorf("index vector decreases at edge %d", he)
		}
		hg.edgeWeights[he] = 1
		if edgeWeights != nil {
			if edgeWeights[he] < 0 {
				return nil, fmt.Errorf("negative weight %d for edge %d", edgeWeights[he], he)
			}
			hg.edgeWeights[he] = edgeWeights[he]
		}
	}
	for hn := 0; hn < numNodes; hn++ {
		hg.nodeWeights[hn] = 1
		if nodeWeights != nil {
			if nodeWeights[hn] < 0 {
				return nil, fmt.Errorf("negative weight %d for node %d", nodeWeights[hn], hn)
			}
			hg.nodeWeights[hn] = nodeWeights[hn]
		}
		hg.totalWeight += hg.nodeWeights[hn]
	}

	// Incidence lists are the transpose of the pin lists.
	degree := make([]int, numNodes)
	for _, pin := range edgeVector {
		if pin < 0 || pin >= numNodes {
			return nil, fmt.Errorf("pin %d out of range [0, %d)", pin, numNodes)
		}
		degree[pin]++
	}
	for hn := 0; hn < numNodes; hn++ {
		hg.nodeIndex[hn+1] = hg.nodeIndex[hn] + degree[hn]
	}
	fill := make([]int, numNodes)
	copy(fill, hg.nodeIndex[:numNodes])
	for he := 0; he < numEdges; he++ {
		for _, pin := range hg.Pins(he) {
			// Pins of an edge are appended in edge order, so a repeated pin
			// finds he already at the end of its incidence list.
			if at := fill[pin]; at > hg.nodeIndex[pin] && hg.nodeEdges[at-1] == he {
				return nil, fmt.Errorf("edge %d contains pin %d more than once", he, pin)
			}
			hg.nodeEdges[fill[pin]] = he
			fill[pin]++
		}
	}

	hg.resetPartitionState()
	return hg, nil
}

func (hg *Hypergraph) resetPartitionState() {
	hg.partIDs = make([]int, hg.numNodes)
	for i := range hg.partIDs {
		hg.partIDs[i] = Unassigned
	}
	hg.partWeights = make([]int64, hg.k)
	hg.partSizes = make([]int, hg.k)
	hg.pinCountInPart = make([]int, hg.numEdges*hg.k)
	hg.connectivity = make([]int, hg.numEdges)
}

// ResetPartitioning removes every node from its part.
func (hg *Hypergraph) ResetPartitioning() {
	hg.resetPartitionState()
}

func (hg *Hypergraph) NumNodes() int { return hg.numNodes }
func (hg *Hypergraph) NumEdges() int { return hg.numEdges }
func (hg *Hypergraph) NumPins() int { return len(hg.edgePins) }
func (hg *Hypergraph) K() int { return hg.k }

// TotalWeight is the sum of all node weights.
func (hg *Hypergraph) TotalWeight() int64 { return hg.totalWeight }

// Nodes returns the node ids in ascending order.
func (hg *Hypergraph) Nodes() []int {
	nodes := make([]int, hg.numNodes)
	for i := range nodes {
		nodes[i] = i
	}
	return nodes
}

// Edges returns the hyperedge ids in ascending order.
func (hg *Hypergraph) Edges() []int {
	edges := make([]int, hg.numEdges)
	for i := range edges {
		edges[i] = i
	}
	return edges
}

// Pins returns the pins of he. The slice aliases internal storage.
func (hg *Hypergraph) Pins(he int) []int {
	return hg.edgePins[hg.edgeIndex[he]:hg.edgeIndex[he+1]]
}

// IncidentEdges returns the hyperedges containing hn. The slice aliases internal storage.
func (hg *Hypergraph) IncidentEdges(hn int) []int {
	return hg.nodeEdges[hg.nodeIndex[hn]:hg.nodeIndex[hn+1]]
}

func (hg *Hypergraph) NodeWeight(hn int) int64 { return hg.nodeWeights[hn] }
func (hg *Hypergraph) EdgeWeight(he int) int64 { return hg.edgeWeights[he] }
func (hg *Hypergraph) EdgeSize(he int) int { return hg.edgeIndex[he+1] - hg.edgeIndex[he] }
func (hg *Hypergraph) NodeDegree(hn int) int { return hg.nodeIndex[hn+1] - hg.nodeIndex[hn] }
func (hg *Hypergraph) PartID(hn int) int { return hg.partIDs[hn] }
func (hg *Hypergraph) PartWeight(p int) int64 { return hg.partWeights[p] }
func (hg *Hypergraph) PartSize(p int) int { return hg.partSizes[p] }
func (hg *Hypergraph) Connectivity(he int) int { return hg.connectivity[he] }

// PinCountInPart returns how many pins of he currently lie in part p.
func (hg *Hypergraph) PinCountInPart(he, p int) int {
	return hg.pinCountInPart[he*hg.k+p]
}

// SetNodePart places an unassigned node into part p.
func (hg *Hypergraph) SetNodePart(hn, p int) error {
	if err := hg.checkNode(hn); err != nil {
		return err
	}
	if err := hg.checkPart(p); err != nil {
		return err
	}
	if hg.partIDs[hn] != Unassigned {
		return fmt.Errorf("node %d is already assigned to part %d", hn, hg.partIDs[hn])
	}
	hg.addToPart(hn, p)
	return nil
}

// ChangeNodePart moves hn from part from to part to. Either side may be
// Unassigned, which lets callers take a node out of the partition again.
func (hg *Hypergraph) ChangeNodePart(hn, from, to int) error {
	if err := hg.checkNode(hn); err != nil {
		return err
	}
	if hg.partIDs[hn] != from {
		return fmt.Errorf("node %d is in part %d, not %d", hn, hg.partIDs[hn], from)
	}
	if to != Unassigned {
		if err := hg.checkPart(to); err != nil {
			return err
		}
	}
	if from == to {
		return nil
	}
	if from != Unassigned {
		hg.removeFromPart(hn, from)
	}
	if to != Unassigned {
		hg.addToPart(hn, to)
	}
	return nil
}

func (hg *Hypergraph) addToPart(hn, p int) {
	hg.partIDs[hn] = p
	hg.partWeights[p] += hg.nodeWeights[hn]
	hg.partSizes[p]++
	for _, he := range hg.IncidentEdges(hn) {
		idx := he*hg.k + p
		hg.pinCountInPart[idx]++
		if hg.pinCountInPart[idx] == 1 {
			hg.connectivity[he]++
		}
	}
}

func (hg *Hypergraph) removeFromPart(hn, p int) {
	hg.partIDs[hn] = Unassigned
	hg.partWeights[p] -= hg.nodeWeights[hn]
	hg.partSizes[p]--
	for _, he := range hg.IncidentEdges(hn) {
		idx := he*hg.k + p
		hg.pinCountInPart[idx]--
		if hg.pinCountInPart[idx] == 0 {
			hg.connectivity[he]--
		}
	}
}

func (hg *Hypergraph) checkNode(hn int) error {
	if hn < 0 || hn >= hg.numNodes {
		return fmt.Errorf("node %d out of range [0, %d)", hn, hg.numNodes)
	}
	return nil
}

func (hg *Hypergraph) checkPart(p int) error {
	if p < 0 || p >= hg.k {
		return fmt.Errorf("part %d out of range [0, %d)", p, hg.k)
	}
	return nil
}

// Validate recomputes every partition aggregate from scratch and compares it
// with the incrementally maintained state.
func (hg *Hypergraph) Validate() error {
	weights := make([]int64, hg.k)
	sizes := make([]int, hg.k)
	for hn, p := range hg.partIDs {
		if p == Unassigned {
			continue
		}
		if p < 0 || p >= hg.k {
			return fmt.Errorf("node %d has invalid part %d", hn, p)
		}
		weights[p] += hg.nodeWeights[hn]
		sizes[p]++
	}
	for p := 0; p < hg.k; p++ {
		if weights[p] != hg.partWeights[p] {
			return fmt.Errorf("part %d weight is %d, recomputed %d", p, hg.partWeights[p], weights[p])
		}
		if sizes[p] != hg.partSizes[p] {
			return fmt.Errorf("part %d size is %d, recomputed %d", p, hg.partSizes[p], sizes[p])
		}
	}

	counts := make([]int, hg.k)
	for he := 0; he < hg.numEdges; he++ {
		for p := range counts {
			counts[p] = 0
		}
		for _, pin := range hg.Pins(he) {
			if p := hg.partIDs[pin]; p != Unassigned {
				counts[p]++
			}
		}
		connectivity := 0
		for p, c := range counts {
			if c != hg.PinCountInPart(he, p) {
				return fmt.Errorf("edge %d has %d pins in part %d, recomputed %d", he, hg.PinCountInPart(he, p), p, c)
			}
			if c > 0 {
				connectivity++
			}
		}
		if connectivity != hg.connectivity[he] {
			return fmt.Errorf("edge %d connectivity is %d, recomputed %d", he, hg.connectivity[he], connectivity)
		}
	}
	return nil
}

// Clone creates a deep copy including the partition state.
func (hg *Hypergraph) Clone() *Hypergraph {
	clone := *hg
	clone.edgeIndex = append([]int(nil), hg.edgeIndex...)
	clone.edgePins = append([]int(nil), hg.edgePins...)
	clone.nodeIndex = append([]int(nil), hg.nodeIndex...)
	clone.nodeEdges = append([]int(nil), hg.nodeEdges...)
	clone.nodeWeights = append([]int64(nil), hg.nodeWeights...)
	clone.edgeWeights = append([]int64(nil), hg.edgeWeights...)
	clone.partIDs = append([]int(nil), hg.partIDs...)
	clone.partWeights = append([]int64(nil), hg.partWeights...)
	clone.partSizes = append([]int(nil), hg.partSizes...)
	clone.pinCountInPart = append([]int(nil), hg.pinCountInPart...)
	clone.connectivity = append([]int(nil), hg.connectivity...)
	return &clone
}

// Fingerprint hashes the part id of every node. Two hypergraphs with the same
// node count have equal fingerprints when their assignments match.
func (hg *Hypergraph) Fingerprint() uint64 {
	buf := make([]byte, 4*hg.numNodes)
	for hn, p := range hg.partIDs {
		binary.LittleEndian.PutUint32(buf[4*hn:], uint32(int32(p)))
	}
	return xxh3.Hash(buf)
}
