package retrieval

import (
	"github.com/mindweave/mindweave/graph"
)

// degreeCentrality returns total degree (in + out) scaled by 1/(n-1) for
// every node. Graphs with fewer than two nodes score 0 everywhere: a lone
// node has no edges, hence no centrality.
func degreeCentrality(g *graph.DiGraph) map[string]float64 {
	nodes := g.NodeIDs()
	scores := make(map[string]float64, len(nodes))
	n := len(nodes)
	if n < 2 {
		for _, id := range nodes {
			scores[id] = 0
		}
		return scores
	}
	scale := 1.0 / float64(n-1)
	for _, id := range nodes {
		scores[id] = float64(g.Degree(id)) * scale
	}
	return scores
}

// betweennessCentrality computes Brandes betweenness over unweighted
// shortest paths, normalized by 1/((n-1)(n-2)) for directed graphs. Graphs
// with fewer than three nodes score 0 everywhere.
func betweennessCentrality(g *graph.DiGraph) map[string]float64 {
	nodes := g.NodeIDs()
	scores := make(map[string]float64, len(nodes))
	for _, id := range nodes {
		scores[id] = 0
	}
	n := len(nodes)
	if n < 3 {
		return scores
	}

	for _, source := range nodes {
		// BFS phase: shortest-path counts and predecessor lists.
		var stack []string
		preds := make(map[string][]string, n)
		sigma := map[string]float64{source: 1}
		dist := map[string]int{source: 0}
		queue := []string{source}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.Successors(v) {
				if _, seen := dist[w]; !seen {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Accumulation phase: dependencies propagate back along the stack.
		delta := make(map[string]float64, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != source {
				scores[w] += delta[w]
			}
		}
	}

	scale := 1.0 / (float64(n-1) * float64(n-2))
	for id := range scores {
		scores[id] *= scale
	}
	return scores
}
