package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mindweave/mindweave/graph"
)

func lineGraph(ids ...string) *graph.DiGraph {
	g := graph.NewDiGraph()
	for _, id := range ids {
		g.AddNode(distortionNode(id))
	}
	for i := 0; i+1 < len(ids); i++ {
		g.AddEdge(&graph.Edge{Source: ids[i], Target: ids[i+1], Weight: 1, Type: graph.EdgeTypeCoOccurs})
	}
	return g
}

func TestGraphSimilarityIdentical(t *testing.T) {
	g1 := lineGraph("a", "b", "c")
	g2 := lineGraph("a", "b", "c")
	assert.InDelta(t, 1.0, graphSimilarity(g1, g2), 1e-9)
}

func TestGraphSimilaritySymmetric(t *testing.T) {
	g1 := lineGraph("a", "b", "c")
	g2 := lineGraph("b", "c", "d", "e")
	assert.InDelta(t, graphSimilarity(g1, g2), graphSimilarity(g2, g1), 1e-9)
}

func TestGraphSimilarityDisjoint(t *testing.T) {
	g1 := lineGraph("a", "b")
	g2 := lineGraph("x", "y")
	assert.Equal(t, 0.0, graphSimilarity(g1, g2))
}

func TestGraphSimilarityEmptyGraph(t *testing.T) {
	empty := graph.NewDiGraph()
	g := lineGraph("a", "b")
	assert.Equal(t, 0.0, graphSimilarity(empty, g))
	assert.Equal(t, 0.0, graphSimilarity(g, empty))
	assert.Equal(t, 0.0, graphSimilarity(empty, empty))
}

func TestGraphSimilarityBounded(t *testing.T) {
	pairs := [][2]*graph.DiGraph{
		{lineGraph("a", "b", "c"), lineGraph("a", "c")},
		{lineGraph("a"), lineGraph("a", "b", "c", "d")},
		{lineGraph("a", "b"), lineGraph("b", "a")},
	}
	for _, p := range pairs {
		s := graphSimilarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestEdgePairJaccard(t *testing.T) {
	tests := []struct {
		name string
		g1   *graph.DiGraph
		g2   *graph.DiGraph
		want float64
	}{
		{"both edgeless", lineGraph("a"), lineGraph("a"), 1.0},
		{"one edgeless", lineGraph("a", "b"), lineGraph("a"), 0.0},
		{"identical edges", lineGraph("a", "b", "c"), lineGraph("a", "b", "c"), 1.0},
		{"half overlap", lineGraph("a", "b", "c"), lineGraph("a", "b"), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, edgePairJaccard(tt.g1, tt.g2), 1e-9)
		})
	}
}

func TestDegreeCentrality(t *testing.T) {
	g := lineGraph("a", "b", "c")
	scores := degreeCentrality(g)
	assert.InDelta(t, 0.5, scores["a"], 1e-9)
	assert.InDelta(t, 1.0, scores["b"], 1e-9)
	assert.InDelta(t, 0.5, scores["c"], 1e-9)

	single := lineGraph("a")
	assert.Equal(t, 0.0, degreeCentrality(single)["a"])
}

func TestBetweennessCentrality(t *testing.T) {
	g := lineGraph("a", "b", "c", "d")
	scores := betweennessCentrality(g)

	// On a directed 4-chain: b sits on a->c and a->d (2 paths), c on a->d and
	// b->d (2 paths); normalization is 1/((n-1)(n-2)) = 1/6.
	assert.InDelta(t, 0.0, scores["a"], 1e-9)
	assert.InDelta(t, 2.0/6.0, scores["b"], 1e-9)
	assert.InDelta(t, 2.0/6.0, scores["c"], 1e-9)
	assert.InDelta(t, 0.0, scores["d"], 1e-9)

	// Too small for intermediaries.
	for _, s := range betweennessCentrality(lineGraph("a", "b")) {
		assert.Equal(t, 0.0, s)
	}
}
