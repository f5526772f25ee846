package graph

import "testing"

func TestDiGraphBasics(t *testing.T) {
	g := NewDiGraph()

	a := g.AddNode(&Node{ID: "a", Type: NodeTypeDistortion, Distortion: &DistortionStats{}})
	g.AddNode(&Node{ID: "b", Type: NodeTypeDistortion, Distortion: &DistortionStats{}})

	// Adding a duplicate returns the existing node.
	again := g.AddNode(&Node{ID: "a", Type: NodeTypeDistortion, Distortion: &DistortionStats{}})
	if again != a {
		t.Error("duplicate AddNode must return the existing node")
	}
	if g.NodeCount() != 2 {
		t.Errorf("node count: expected 2, got %d", g.NodeCount())
	}

	g.AddEdge(&Edge{Source: "a", Target: "b", Weight: 3, Type: EdgeTypeCoOccurs})
	if !g.HasEdge("a", "b") {
		t.Fatal("expected edge a->b")
	}
	if g.HasEdge("b", "a") {
		t.Error("edges are directed; b->a must not exist")
	}

	// Re-adding the same pair replaces the edge, not duplicates it.
	g.AddEdge(&Edge{Source: "a", Target: "b", Weight: 5, Type: EdgeTypeCoOccurs})
	if g.EdgeCount() != 1 {
		t.Errorf("edge count: expected 1, got %d", g.EdgeCount())
	}
	if g.Edge("a", "b").Weight != 5 {
		t.Errorf("replaced edge weight: expected 5, got %d", g.Edge("a", "b").Weight)
	}
}

func TestDiGraphInsertionOrder(t *testing.T) {
	g := NewDiGraph()
	ids := []string{"z", "m", "a", "q"}
	for _, id := range ids {
		g.AddNode(&Node{ID: id, Type: NodeTypeDistortion, Distortion: &DistortionStats{}})
	}

	got := g.NodeIDs()
	for i, id := range ids {
		if got[i] != id {
			t.Fatalf("node order: expected %v, got %v", ids, got)
		}
	}

	g.AddEdge(&Edge{Source: "z", Target: "m", Weight: 1, Type: EdgeTypeCoOccurs})
	g.AddEdge(&Edge{Source: "z", Target: "a", Weight: 1, Type: EdgeTypeCoOccurs})
	g.AddEdge(&Edge{Source: "z", Target: "q", Weight: 1, Type: EdgeTypeCoOccurs})

	succ := g.Successors("z")
	want := []string{"m", "a", "q"}
	for i := range want {
		if succ[i] != want[i] {
			t.Fatalf("successor order: expected %v, got %v", want, succ)
		}
	}

	if g.Degree("z") != 3 {
		t.Errorf("degree of z: expected 3, got %d", g.Degree("z"))
	}
	if g.Degree("m") != 1 {
		t.Errorf("degree of m: expected 1, got %d", g.Degree("m"))
	}
}
