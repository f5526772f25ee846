package graph

// DiGraph is an adjacency-map-backed directed graph with O(1) node and edge
// lookup by id. Node and edge iteration follow insertion order, which keeps
// every downstream ranking deterministic. A general-purpose graph library is
// deliberately not used: cascade-path enumeration is worst-case exponential
// and the traversal has to stay auditable.
type DiGraph struct {
	nodes     map[string]*Node
	nodeOrder []string

	out      map[string]map[string]*Edge
	outOrder map[string][]string
	in       map[string]map[string]*Edge

	edgeOrder [][2]string
}

// NewDiGraph creates an empty directed graph.
func NewDiGraph() *DiGraph {
	return &DiGraph{
		nodes:    make(map[string]*Node),
		out:      make(map[string]map[string]*Edge),
		outOrder: make(map[string][]string),
		in:       make(map[string]map[string]*Edge),
	}
}

// AddNode inserts a node, or returns the existing node with the same id.
func (g *DiGraph) AddNode(n *Node) *Node {
	if existing, ok := g.nodes[n.ID]; ok {
		return existing
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return n
}

// Node returns the node with the given id, or nil.
func (g *DiGraph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether the graph contains the id.
func (g *DiGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge inserts a directed edge. Both endpoints must already exist as
// nodes; an edge between the same pair is replaced.
func (g *DiGraph) AddEdge(e *Edge) {
	if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
		return
	}
	if g.out[e.Source] == nil {
		g.out[e.Source] = make(map[string]*Edge)
	}
	if _, exists := g.out[e.Source][e.Target]; !exists {
		g.outOrder[e.Source] = append(g.outOrder[e.Source], e.Target)
		g.edgeOrder = append(g.edgeOrder, [2]string{e.Source, e.Target})
	}
	g.out[e.Source][e.Target] = e
	if g.in[e.Target] == nil {
		g.in[e.Target] = make(map[string]*Edge)
	}
	g.in[e.Target][e.Source] = e
}

// Edge returns the edge source→target, or nil.
func (g *DiGraph) Edge(source, target string) *Edge {
	return g.out[source][target]
}

// HasEdge reports whether the directed edge source→target exists.
func (g *DiGraph) HasEdge(source, target string) bool {
	_, ok := g.out[source][target]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *DiGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node ids in insertion order.
func (g *DiGraph) NodeIDs() []string {
	ids := make([]string, len(g.nodeOrder))
	copy(ids, g.nodeOrder)
	return ids
}

// Edges returns all edges in insertion order.
func (g *DiGraph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edgeOrder))
	for _, pair := range g.edgeOrder {
		edges = append(edges, g.out[pair[0]][pair[1]])
	}
	return edges
}

// NodeCount returns the number of nodes.
func (g *DiGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *DiGraph) EdgeCount() int {
	return len(g.edgeOrder)
}

// Successors returns the targets of the node's outgoing edges in insertion
// order.
func (g *DiGraph) Successors(id string) []string {
	targets := make([]string, len(g.outOrder[id]))
	copy(targets, g.outOrder[id])
	return targets
}

// Degree returns the total degree (in + out) of the node.
func (g *DiGraph) Degree(id string) int {
	return len(g.out[id]) + len(g.in[id])
}
