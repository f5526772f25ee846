package graph

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// GraphExport is the portable node-list/edge-list form of one graph. Nodes
// and edges are attribute bags so consumers in other languages stay decoupled
// from the Go types; keys are matched case-insensitively on import.
type GraphExport struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

// PersonalExport is a personal graph plus its journey metadata.
type PersonalExport struct {
	Nodes    []map[string]any `json:"nodes"`
	Edges    []map[string]any `json:"edges"`
	Metadata Metadata         `json:"metadata"`
}

// InterventionEffectiveness summarizes one intervention in the global graph.
type InterventionEffectiveness struct {
	AvgImprovement float64  `json:"avg_improvement"`
	Targets        []string `json:"targets"`
}

// ExportMetadata describes the batch the export came from.
type ExportMetadata struct {
	Created  time.Time `json:"created"`
	NumUsers int       `json:"num_users"`
}

// Export is the sole boundary artifact between the graph builder and the
// retrieval engine (and any downstream renderer).
type Export struct {
	PersonalGraphs            map[string]*PersonalExport            `json:"personal_graphs"`
	GlobalGraph               *GraphExport                          `json:"global_graph"`
	InterventionEffectiveness map[string]*InterventionEffectiveness `json:"intervention_effectiveness"`
	Metadata                  ExportMetadata                        `json:"metadata"`
}

// NewExport converts a built batch into its portable form.
func NewExport(personal map[string]*PersonalGraph, global *GlobalGraph) *Export {
	e := &Export{
		PersonalGraphs:            make(map[string]*PersonalExport, len(personal)),
		GlobalGraph:               encodeGraph(global.DiGraph),
		InterventionEffectiveness: make(map[string]*InterventionEffectiveness),
		Metadata: ExportMetadata{
			Created:  time.Now(),
			NumUsers: len(personal),
		},
	}

	for userID, pg := range personal {
		ge := encodeGraph(pg.DiGraph)
		e.PersonalGraphs[userID] = &PersonalExport{
			Nodes:    ge.Nodes,
			Edges:    ge.Edges,
			Metadata: pg.Meta,
		}
	}

	for _, node := range global.Nodes() {
		if node.Type != NodeTypeIntervention || node.Intervention == nil {
			continue
		}
		eff := &InterventionEffectiveness{
			AvgImprovement: node.Intervention.AvgImprovement,
			Targets:        []string{},
		}
		for _, target := range global.Successors(node.ID) {
			if edge := global.Edge(node.ID, target); edge != nil && edge.Type == EdgeTypeTargets {
				eff.Targets = append(eff.Targets, target)
			}
		}
		e.InterventionEffectiveness[node.ID] = eff
	}

	return e
}

// Write encodes the export as indented JSON.
func (e *Export) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return errors.Wrap(err, "encode graph export")
	}
	return nil
}

// WriteFile writes the export to a file.
func (e *Export) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create export file %s", path)
	}
	defer f.Close()
	return e.Write(f)
}

// ReadExport decodes an export from a stream.
func ReadExport(r io.Reader) (*Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, errors.Wrap(err, "decode graph export")
	}
	if e.GlobalGraph == nil {
		return nil, errors.New("graph export missing global_graph")
	}
	return &e, nil
}

// ReadExportFile reads an export from a file.
func ReadExportFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open export file %s", path)
	}
	defer f.Close()
	return ReadExport(f)
}

// DecodeGlobalGraph rebuilds the global graph from the export.
func (e *Export) DecodeGlobalGraph() (*GlobalGraph, error) {
	g, err := decodeGraph(e.GlobalGraph.Nodes, e.GlobalGraph.Edges)
	if err != nil {
		return nil, errors.Wrap(err, "global graph")
	}
	return &GlobalGraph{DiGraph: g, NumJourneys: e.Metadata.NumUsers}, nil
}

// DecodePersonalGraphs rebuilds every personal graph from the export.
func (e *Export) DecodePersonalGraphs() (map[string]*PersonalGraph, error) {
	personal := make(map[string]*PersonalGraph, len(e.PersonalGraphs))
	for userID, pe := range e.PersonalGraphs {
		g, err := decodeGraph(pe.Nodes, pe.Edges)
		if err != nil {
			return nil, errors.Wrapf(err, "personal graph %s", userID)
		}
		personal[userID] = &PersonalGraph{DiGraph: g, Meta: pe.Metadata}
	}
	return personal, nil
}

func encodeGraph(g *DiGraph) *GraphExport {
	ge := &GraphExport{
		Nodes: make([]map[string]any, 0, g.NodeCount()),
		Edges: make([]map[string]any, 0, g.EdgeCount()),
	}
	for _, node := range g.Nodes() {
		ge.Nodes = append(ge.Nodes, encodeNode(node))
	}
	for _, edge := range g.Edges() {
		ge.Edges = append(ge.Edges, encodeEdge(edge))
	}
	return ge
}

func encodeNode(n *Node) map[string]any {
	bag := map[string]any{
		"id":   n.ID,
		"type": n.Type,
	}
	if n.Distortion != nil {
		bag["occurrences"] = n.Distortion.Occurrences
		bag["total_confidence"] = n.Distortion.TotalConfidence
	}
	if n.Intervention != nil {
		bag["uses"] = n.Intervention.Uses
		if n.Intervention.DeltaCount > 0 {
			bag["delta_count"] = n.Intervention.DeltaCount
			bag["avg_severity_change"] = n.Intervention.AvgSeverityChange
			bag["effectiveness_score"] = n.Intervention.EffectivenessScore
		}
		if n.Intervention.AvgImprovement != 0 {
			bag["avg_improvement"] = n.Intervention.AvgImprovement
		}
	}
	for k, v := range n.Extra {
		bag[k] = v
	}
	return bag
}

func encodeEdge(e *Edge) map[string]any {
	bag := map[string]any{
		"source":    e.Source,
		"target":    e.Target,
		"weight":    e.Weight,
		"edge_type": e.Type,
	}
	if e.Type == EdgeTypeTargets {
		bag["effectiveness"] = e.Effectiveness
	}
	for k, v := range e.Extra {
		bag[k] = v
	}
	return bag
}

func decodeGraph(nodes, edges []map[string]any) (*DiGraph, error) {
	g := NewDiGraph()
	for i, bag := range nodes {
		node, err := decodeNode(bag)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", i)
		}
		g.AddNode(node)
	}
	for i, bag := range edges {
		edge, err := decodeEdge(bag)
		if err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}
		if !g.HasNode(edge.Source) || !g.HasNode(edge.Target) {
			return nil, errors.Errorf("edge %d: unknown endpoint %s -> %s", i, edge.Source, edge.Target)
		}
		g.AddEdge(edge)
	}
	return g, nil
}

func decodeNode(bag map[string]any) (*Node, error) {
	bag = lowerKeys(bag)
	id := cast.ToString(bag["id"])
	if id == "" {
		return nil, errors.New("missing id")
	}
	node := &Node{
		ID:   id,
		Type: cast.ToString(bag["type"]),
	}
	known := map[string]bool{"id": true, "type": true}
	switch node.Type {
	case NodeTypeDistortion:
		node.Distortion = &DistortionStats{
			Occurrences:     cast.ToInt(bag["occurrences"]),
			TotalConfidence: cast.ToFloat64(bag["total_confidence"]),
		}
		known["occurrences"] = true
		known["total_confidence"] = true
	case NodeTypeIntervention:
		node.Intervention = &InterventionStats{
			Uses:               cast.ToInt(bag["uses"]),
			DeltaCount:         cast.ToInt(bag["delta_count"]),
			AvgSeverityChange:  cast.ToFloat64(bag["avg_severity_change"]),
			EffectivenessScore: cast.ToFloat64(bag["effectiveness_score"]),
			AvgImprovement:     cast.ToFloat64(bag["avg_improvement"]),
		}
		known["uses"] = true
		known["delta_count"] = true
		known["avg_severity_change"] = true
		known["effectiveness_score"] = true
		known["avg_improvement"] = true
	default:
		return nil, errors.Errorf("node %s: unknown type %q", id, node.Type)
	}
	for k, v := range bag {
		if !known[k] {
			if node.Extra == nil {
				node.Extra = make(map[string]any)
			}
			node.Extra[k] = v
		}
	}
	return node, nil
}

func decodeEdge(bag map[string]any) (*Edge, error) {
	bag = lowerKeys(bag)
	source := cast.ToString(bag["source"])
	target := cast.ToString(bag["target"])
	if source == "" || target == "" {
		return nil, errors.New("missing source or target")
	}
	edge := &Edge{
		Source:        source,
		Target:        target,
		Weight:        cast.ToInt(bag["weight"]),
		Type:          cast.ToString(bag["edge_type"]),
		Effectiveness: cast.ToFloat64(bag["effectiveness"]),
	}
	if edge.Weight < 1 {
		edge.Weight = 1
	}
	known := map[string]bool{
		"source": true, "target": true, "weight": true,
		"edge_type": true, "effectiveness": true,
	}
	for k, v := range bag {
		if !known[k] {
			if edge.Extra == nil {
				edge.Extra = make(map[string]any)
			}
			edge.Extra[k] = v
		}
	}
	return edge, nil
}

func lowerKeys(bag map[string]any) map[string]any {
	out := make(map[string]any, len(bag))
	for k, v := range bag {
		out[strings.ToLower(k)] = v
	}
	return out
}
