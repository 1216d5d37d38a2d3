package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gilchrisn/hypergraph-partitioning/pkg/config"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/hypergraph"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/initialpartitioning"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/metrics"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/stats"
	"github.com/gilchrisn/hypergraph-partitioning/pkg/tracking"
)

func main() {
	graphFile := flag.String("graph", "", "hypergraph in hMetis format")
	configFile := flag.String("config", "", "optional configuration file (yaml, json, toml)")
	seed := flag.Int64("seed", -1, "random seed (overrides the configuration)")
	outFile := flag.String("out", "", "partition output file (default <graph>.part2)")
	showMetrics := flag.Bool("metrics", false, "print the statistics as Prometheus samples")
	traceFile := flag.String("trace", "", "optional JSON lines trace of accepted moves")
	flag.Parse()

	if *graphFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -graph <file.hgr> [-config cfg.yaml] [-seed n] [-out file]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *outFile == "" {
		*outFile = *graphFile + ".part2"
	}

	fmt.Println("=== Initial Bisection ===")

	// Configuration
	cfg := config.NewConfig()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			log.Fatalf("Failed to load config %s: %v", *configFile, err)
		}
	}
	cfg.Set("partition.k", 2)
	if *seed >= 0 {
		cfg.Set("initial_partitioning.seed", *seed)
	}
	logger := cfg.CreateLogger()

	// Input
	fmt.Println("\nStep 1: Reading hypergraph...")
	hg, err := hypergraph.ReadHMetis(*graphFile, 2)
	if err != nil {
		log.Fatalf("Failed to read hypergraph: %v", err)
	}
	fmt.Printf("  Nodes: %d, Edges: %d, Pins: %d, Total weight: %d\n",
		hg.NumNodes(), hg.NumEdges(), hg.NumPins(), hg.TotalWeight())

	// Random assignment
	fmt.Println("\nStep 2: Random initial assignment...")
	statsManager := stats.NewManager()
	opts := []initialpartitioning.Option{
		initialpartitioning.WithStats(statsManager),
		initialpartitioning.WithLogger(logger),
	}
	var tracker *tracking.MoveTracker
	if *traceFile != "" {
		if tracker, err = tracking.NewMoveTracker(*traceFile); err != nil {
			log.Fatalf("Failed to create trace file: %v", err)
		}
		opts = append(opts, initialpartitioning.WithMoveTracker(tracker))
	}
	base, err := initialpartitioning.NewBase(hg, cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to create attempt: %v", err)
	}
	if err := base.RecalculateBalanceConstraints(); err != nil {
		log.Fatalf("Failed to compute balance constraints: %v", err)
	}

	start := time.Now()
	placed, err := assignRandomly(base, hg)
	if err != nil {
		log.Fatalf("Assignment failed: %v", err)
	}
	fmt.Printf("  Placed %d/%d nodes, cut %d\n", placed, hg.NumNodes(), base.CurrentCut())

	// Rollback, then refinement
	fmt.Println("\nStep 3: Rollback to best cut...")
	if err := base.RollbackToBestBisectionCut(); err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}
	if _, err := completeAssignment(base, hg); err != nil {
		log.Fatalf("Assignment failed: %v", err)
	}
	fmt.Printf("  Cut after rollback: %d\n", base.CurrentCut())

	fmt.Println("\nStep 4: FM refinement...")
	if err := base.PerformFMRefinement(); err != nil {
		log.Fatalf("Refinement failed: %v", err)
	}
	elapsed := time.Since(start)
	if err := tracker.Close(); err != nil {
		log.Fatalf("Failed to write trace: %v", err)
	}
	if tracker != nil {
		fmt.Printf("  Traced %d moves to %s\n", tracker.Moves(), *traceFile)
	}

	displayResults(hg, base, elapsed)

	for part := 0; part < 2; part++ {
		ext, err := base.ExtractPartitionAsHypergraph(part)
		if err != nil {
			log.Fatalf("Extraction of part %d failed: %v", part, err)
		}
		fmt.Printf("  Part %d sub-hypergraph: %d nodes, %d internal edges\n", part, ext.NumNodes, ext.NumEdges)
	}

	fmt.Println("\n=== Statistics ===")
	if _, err := statsManager.WriteTo(os.Stdout); err != nil {
		log.Fatalf("Failed to write statistics: %v", err)
	}
	if *showMetrics {
		if err := printPrometheus(statsManager); err != nil {
			log.Fatalf("Failed to gather metrics: %v", err)
		}
	}

	if err := hypergraph.WritePartition(*outFile, hg); err != nil {
		log.Fatalf("Failed to write partition: %v", err)
	}
	fmt.Printf("\nPartition written to %s\n", *outFile)
}

// assignRandomly alternates between the two parts, placing random unassigned
// nodes until the pool is empty. Nodes that fit neither part stay unassigned.
func assignRandomly(base *initialpartitioning.Base, hg *hypergraph.Hypergraph) (int, error) {
	placed := 0
	skipped := map[int]bool{}
	part := 0
	for placed+len(skipped) < hg.NumNodes() {
		hn, err := base.GetUnassignedNode(initialpartitioning.Unassigned)
		if errors.Is(err, initialpartitioning.ErrNoCandidateNode) {
			break
		}
		if err != nil {
			return placed, err
		}
		if skipped[hn] {
			continue
		}

		ok, err := base.AssignHypernodeToPartition(hn, part)
		if err != nil {
			return placed, err
		}
		if !ok {
			if ok, err = base.AssignHypernodeToPartition(hn, 1-part); err != nil {
				return placed, err
			}
		}
		if !ok {
			skipped[hn] = true
			continue
		}
		placed++
		part = 1 - part
	}
	return placed, nil
}

// completeAssignment places nodes left unassigned by a rollback into the
// lighter part.
func completeAssignment(base *initialpartitioning.Base, hg *hypergraph.Hypergraph) (int, error) {
	placed := 0
	for hn := 0; hn < hg.NumNodes(); hn++ {
		if hg.PartID(hn) != hypergraph.Unassigned {
			continue
		}
		lighter := 0
		if hg.PartWeight(1) < hg.PartWeight(0) {
			lighter = 1
		}
		ok, err := base.AssignHypernodeToPartition(hn, lighter)
		if err != nil {
			return placed, err
		}
		if !ok {
			if ok, err = base.AssignHypernodeToPartition(hn, 1-lighter); err != nil {
				return placed, err
			}
		}
		if ok {
			placed++
		}
	}
	return placed, nil
}

func displayResults(hg *hypergraph.Hypergraph, base *initialpartitioning.Base, elapsed time.Duration) {
	fmt.Println("\n=== Results ===")
	fmt.Printf("Cut:       %d\n", metrics.HyperedgeCut(hg))
	fmt.Printf("(K-1):     %d\n", metrics.Km1(hg))
	fmt.Printf("Imbalance: %.4f\n", metrics.Imbalance(hg, 2))
	fmt.Printf("Assigned:  %.0f/%d\n", metrics.AssignedWeight(hg, 2), hg.TotalWeight())
	fmt.Printf("Runtime:   %v\n", elapsed)
	fmt.Printf("Checksum:  %016x\n", hg.Fingerprint())
	for part := 0; part < 2; part++ {
		fmt.Printf("Part %d: %d nodes, weight %d\n", part, hg.PartSize(part), hg.PartWeight(part))
	}
	if cut, node, ok := base.BestCut(); ok {
		fmt.Printf("Best cut during assignment: %d (after node %d)\n", cut, node)
	}
}

func printPrometheus(manager *stats.Manager) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(stats.NewCollector(manager, "")); err != nil {
		return err
	}
	families, err := registry.Gather()
	if err != nil {
		return err
	}

	fmt.Println("\n=== Prometheus ===")
	for _, family := range families {
		for _, m := range family.GetMetric() {
			fmt.Printf("%s{", family.GetName())
			for i, label := range m.GetLabel() {
				if i > 0 {
					fmt.Print(",")
				}
				fmt.Printf("%s=%q", label.GetName(), label.GetValue())
			}
			fmt.Printf("} %g\n", m.GetGauge().GetValue())
		}
	}
	return nil
}
