package retrieval

import (
	"sort"

	"github.com/mindweave/mindweave/graph"
)

// DefaultMaxCascadeLength bounds cascade paths at four edges unless the
// caller asks otherwise.
const DefaultMaxCascadeLength = 4

// maxCascadePaths caps how many scored paths a query returns.
const maxCascadePaths = 10

// Cascade is one ordered escalation chain with its edge-weight score.
type Cascade struct {
	Path  []string `json:"path"`
	Score int      `json:"score"`
}

// cascadePaths enumerates every simple directed path of at most maxLength
// edges between every ordered pair of distinct nodes, scores each by the sum
// of its edge weights, and returns the highest-scoring paths (ties keep
// discovery order). Enumeration is exponential in dense graphs; it stays
// tractable because query graphs carry at most the handful of distortions a
// caller reports.
func cascadePaths(g *graph.DiGraph, maxLength int) []Cascade {
	if maxLength < 1 {
		return nil
	}

	var cascades []Cascade
	for _, source := range g.NodeIDs() {
		for _, target := range g.NodeIDs() {
			if source == target {
				continue
			}
			onPath := map[string]bool{source: true}
			walk(g, []string{source}, target, maxLength, onPath, &cascades)
		}
	}

	sort.SliceStable(cascades, func(i, j int) bool {
		return cascades[i].Score > cascades[j].Score
	})
	if len(cascades) > maxCascadePaths {
		cascades = cascades[:maxCascadePaths]
	}
	return cascades
}

// walk extends the current path by one edge at a time, never revisiting a
// node, recording every time it reaches target.
func walk(g *graph.DiGraph, path []string, target string, maxLength int, onPath map[string]bool, out *[]Cascade) {
	last := path[len(path)-1]
	if last == target && len(path) >= 2 {
		*out = append(*out, Cascade{
			Path:  append([]string(nil), path...),
			Score: pathScore(g, path),
		})
		return
	}
	if len(path)-1 >= maxLength {
		return
	}
	for _, next := range g.Successors(last) {
		if onPath[next] {
			continue
		}
		onPath[next] = true
		walk(g, append(path, next), target, maxLength, onPath, out)
		delete(onPath, next)
	}
}

func pathScore(g *graph.DiGraph, path []string) int {
	score := 0
	for i := 0; i+1 < len(path); i++ {
		if e := g.Edge(path[i], path[i+1]); e != nil {
			score += e.Weight
		}
	}
	return score
}
