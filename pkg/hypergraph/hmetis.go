package hypergraph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// hMetis header format flags
const (
	fmtEdgeWeights = 1
	fmtNodeWeights = 10
)

// ReadHMetis loads a hypergraph in hMetis format from disk.
func ReadHMetis(path string, k int) (*Hypergraph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hypergraph file: %w", err)
	}
	defer file.Close()

	hg, err := ParseHMetis(file, k)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return hg, nil
}

// ParseHMetis reads the hMetis format: a header "numEdges numNodes [fmt]",
// one line per hyperedge (optional leading weight, then 1-based pins) and,
// when fmt includes node weights, one weight line per node. Lines starting
// with '%' are comments.
func ParseHMetis(r io.Reader, k int) (*Hypergraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNum := 0
	nextLine := func() ([]string, bool) {
		for scanner.Scan() {
			lineNum++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "%") {
				continue
			}
			return strings.Fields(line), true
		}
		return nil, false
	}

	header, ok := nextLine()
	if !ok {
		return nil, fmt.Errorf("missing header")
	}
	if len(header) < 2 || len(header) > 3 {
		return nil, fmt.Errorf("line %d: malformed header %q", lineNum, strings.Join(header, " "))
	}
	numEdges, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid edge count: %w", lineNum, err)
	}
	numNodes, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid node count: %w", lineNum, err)
	}
	format := 0
	if len(header) == 3 {
		if format, err = strconv.Atoi(header[2]); err != nil {
			return nil, fmt.Errorf("line %d: invalid format: %w", lineNum, err)
		}
	}
	hasEdgeWeights := format%10 == fmtEdgeWeights
	hasNodeWeights := format/10 == fmtNodeWeights/10

	indexVector := make([]int, 0, numEdges+1)
	indexVector = append(indexVector, 0)
	edgeVector := make([]int, 0)
	var edgeWeights []int64
	if hasEdgeWeights {
		edgeWeights = make([]int64, 0, numEdges)
	}

	for he := 0; he < numEdges; he++ {
		fields, ok := nextLine()
		if !ok {
			return nil, fmt.Errorf("expected %d hyperedges, found %d", numEdges, he)
		}
		if hasEdgeWeights {
			w, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid edge weight: %w", lineNum, err)
			}
			edgeWeights = append(edgeWeights, w)
			fields = fields[1:]
		}
		for _, f := range fields {
			pin, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid pin: %w", lineNum, err)
			}
			if pin < 1 || pin > numNodes {
				return nil, fmt.Errorf("line %d: pin %d out of range [1, %d]", lineNum, pin, numNodes)
			}
			edgeVector = append(edgeVector, pin-1)
		}
		indexVector = append(indexVector, len(edgeVector))
	}

	var nodeWeights []int64
	if hasNodeWeights {
		nodeWeights = make([]int64, 0, numNodes)
		for hn := 0; hn < numNodes; hn++ {
			fields, ok := nextLine()
			if !ok {
				return nil, fmt.Errorf("expected %d node weights, found %d", numNodes, hn)
			}
			w, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid node weight: %w", lineNum, err)
			}
			nodeWeights = append(nodeWeights, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hypergraph: %w", err)
	}

	return New(numNodes, numEdges, indexVector, edgeVector, k, edgeWeights, nodeWeights)
}

// WritePartition writes the part id of every node, one per line.
func WritePartition(path string, hg *Hypergraph) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create partition file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for hn := 0; hn < hg.NumNodes(); hn++ {
		if _, err := fmt.Fprintln(w, hg.PartID(hn)); err != nil {
			return fmt.Errorf("failed to write partition: %w", err)
		}
	}
	return w.Flush()
}
