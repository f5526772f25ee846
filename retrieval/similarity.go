package retrieval

import (
	"github.com/mindweave/mindweave/graph"
)

// Similarity weights. Node overlap dominates; edge overlap and structural
// agreement split the remainder.
const (
	nodeWeight       = 0.4
	edgeWeight       = 0.3
	centralityWeight = 0.3
)

// graphSimilarity combines node-set Jaccard, edge-set Jaccard, and a
// degree-centrality agreement term over shared nodes. It is symmetric in its
// arguments, 0 for graphs with no overlap, and 1 for identical graphs.
func graphSimilarity(g1, g2 *graph.DiGraph) float64 {
	if g1.NodeCount() == 0 || g2.NodeCount() == 0 {
		return 0
	}

	shared := sharedNodes(g1, g2)
	if len(shared) == 0 {
		return 0
	}

	union := g1.NodeCount() + g2.NodeCount() - len(shared)
	nodeJaccard := float64(len(shared)) / float64(union)

	edgeJaccard := edgePairJaccard(g1, g2)

	deg1 := degreeCentrality(g1)
	deg2 := degreeCentrality(g2)
	sum := 0.0
	for _, id := range shared {
		diff := deg1[id] - deg2[id]
		if diff < 0 {
			diff = -diff
		}
		sum += 1 - diff
	}
	centralitySim := sum / float64(len(shared))

	return nodeWeight*nodeJaccard + edgeWeight*edgeJaccard + centralityWeight*centralitySim
}

// sharedNodes returns the node ids present in both graphs, in g1's order.
func sharedNodes(g1, g2 *graph.DiGraph) []string {
	var shared []string
	for _, id := range g1.NodeIDs() {
		if g2.HasNode(id) {
			shared = append(shared, id)
		}
	}
	return shared
}

// edgePairJaccard computes Jaccard over (source, target) pairs. Two edgeless
// graphs agree perfectly (1); a single edgeless side scores 0.
func edgePairJaccard(g1, g2 *graph.DiGraph) float64 {
	n1, n2 := g1.EdgeCount(), g2.EdgeCount()
	if n1 == 0 && n2 == 0 {
		return 1
	}
	if n1 == 0 || n2 == 0 {
		return 0
	}
	both := 0
	for _, e := range g1.Edges() {
		if g2.HasEdge(e.Source, e.Target) {
			both++
		}
	}
	return float64(both) / float64(n1+n2-both)
}
