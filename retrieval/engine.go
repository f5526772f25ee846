// Package retrieval answers similarity, centrality, cascade, and outcome
// queries against graphs built by the graph package, and composes them into
// one intervention recommendation.
package retrieval

import (
	"log/slog"
	"sort"

	"github.com/lithammer/shortuuid/v4"

	"github.com/mindweave/mindweave/graph"
	"github.com/mindweave/mindweave/journey"
)

// Engine answers retrieval queries against an immutable loaded graph batch.
// No operation mutates the loaded graphs, so one engine may serve concurrent
// queries without locking.
type Engine struct {
	global        *graph.GlobalGraph
	personal      map[string]*graph.PersonalGraph
	personalOrder []string
	logger        *slog.Logger
}

// NewEngine reconstructs the graphs from an export. A malformed export is
// fatal: the engine is unusable until the export is corrected.
func NewEngine(export *graph.Export) (*Engine, error) {
	global, err := export.DecodeGlobalGraph()
	if err != nil {
		return nil, err
	}
	personal, err := export.DecodePersonalGraphs()
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(personal))
	for userID := range personal {
		order = append(order, userID)
	}
	sort.Strings(order)

	return &Engine{
		global:        global,
		personal:      personal,
		personalOrder: order,
		logger:        slog.Default(),
	}, nil
}

// NewEngineFromFile loads an export file and constructs the engine.
func NewEngineFromFile(path string) (*Engine, error) {
	export, err := graph.ReadExportFile(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(export)
}

// NumUsers returns how many personal graphs are loaded.
func (e *Engine) NumUsers() int {
	return len(e.personal)
}

// GlobalGraph returns the loaded global graph. Callers must treat it as
// read-only.
func (e *Engine) GlobalGraph() *graph.GlobalGraph {
	return e.global
}

// ExtractUserPattern builds the ephemeral query graph for a reported
// distortion sequence: one node per distinct distortion in input order, and
// for every input pair (i, j) with i < j the global edge i→j, when present,
// copied with its weight. Only the i→j direction is probed.
func (e *Engine) ExtractUserPattern(distortions []journey.DistortionType) *graph.DiGraph {
	g := graph.NewDiGraph()
	for _, d := range distortions {
		g.AddNode(&graph.Node{ID: string(d), Type: graph.NodeTypeDistortion})
	}

	ids := g.NodeIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			global := e.global.Edge(ids[i], ids[j])
			if global == nil {
				continue
			}
			g.AddEdge(&graph.Edge{
				Source: ids[i],
				Target: ids[j],
				Weight: global.Weight,
				Type:   global.Type,
			})
		}
	}
	return g
}

// SimilarCase is one ranked personal graph match.
type SimilarCase struct {
	UserID     string         `json:"user_id"`
	Similarity float64        `json:"similarity"`
	Metadata   graph.Metadata `json:"metadata"`
}

// FindSimilarPatterns ranks every known personal graph against the query
// pattern and returns the topK closest, descending (ties keep user-id
// order).
func (e *Engine) FindSimilarPatterns(distortions []journey.DistortionType, topK int) []SimilarCase {
	query := e.ExtractUserPattern(distortions)

	cases := make([]SimilarCase, 0, len(e.personalOrder))
	for _, userID := range e.personalOrder {
		pg := e.personal[userID]
		cases = append(cases, SimilarCase{
			UserID:     userID,
			Similarity: graphSimilarity(query, pg.DiGraph),
			Metadata:   pg.Meta,
		})
	}

	sort.SliceStable(cases, func(i, j int) bool {
		return cases[i].Similarity > cases[j].Similarity
	})
	if topK >= 0 && len(cases) > topK {
		cases = cases[:topK]
	}
	return cases
}

// Keystone is one distortion ranked by structural centrality.
type Keystone struct {
	Distortion string  `json:"distortion"`
	Score      float64 `json:"centrality"`
}

// FindKeystoneDistortions ranks the reported distortions by how structurally
// connected each is to the rest of the pattern: 0.6·betweenness +
// 0.4·degree, descending. A lone distortion has no edges and scores 0; an
// empty input yields an empty result.
func (e *Engine) FindKeystoneDistortions(distortions []journey.DistortionType) []Keystone {
	query := e.ExtractUserPattern(distortions)
	if query.NodeCount() == 0 {
		return nil
	}

	betweenness := betweennessCentrality(query)
	degree := degreeCentrality(query)

	keystones := make([]Keystone, 0, query.NodeCount())
	for _, id := range query.NodeIDs() {
		keystones = append(keystones, Keystone{
			Distortion: id,
			Score:      0.6*betweenness[id] + 0.4*degree[id],
		})
	}
	sort.SliceStable(keystones, func(i, j int) bool {
		return keystones[i].Score > keystones[j].Score
	})
	return keystones
}

// FindCascadePaths extracts plausible escalation chains from the query
// pattern: simple directed paths of at most maxLength edges, scored by the
// sum of their edge weights, best first, at most ten. Pass maxLength <= 0
// for the default bound.
func (e *Engine) FindCascadePaths(distortions []journey.DistortionType, maxLength int) []Cascade {
	if maxLength <= 0 {
		maxLength = DefaultMaxCascadeLength
	}
	query := e.ExtractUserPattern(distortions)
	return cascadePaths(query, maxLength)
}

// Outcomes aggregates what happened to the similar cases.
type Outcomes struct {
	NumSimilarCases      int                 `json:"num_similar_cases"`
	AvgImprovement       float64             `json:"avg_improvement"`
	MostCommonTrajectory journey.JourneyType `json:"most_common_trajectory,omitempty"`
	SuccessRate          float64             `json:"success_rate"`
}

// Recommendation is the engine's composite answer to one query.
type Recommendation struct {
	QueryDistortions []journey.DistortionType `json:"query_distortions"`
	SimilarCases     []SimilarCase            `json:"similar_cases"`
	Keystones        []Keystone               `json:"keystone_distortions"`
	Cascades         []Cascade                `json:"cascade_patterns"`
	Outcomes         Outcomes                 `json:"outcomes"`
}

// RetrieveInterventions composes similarity search, keystone ranking,
// cascade extraction, and outcome aggregation into one recommendation. This
// is the engine's sole external API; the individual queries are exposed for
// inspection and testing.
func (e *Engine) RetrieveInterventions(distortions []journey.DistortionType, topK int) *Recommendation {
	requestID := shortuuid.New()
	e.logger.Info("retrieval query",
		"request_id", requestID,
		"distortions", len(distortions),
		"top_k", topK)

	similar := e.FindSimilarPatterns(distortions, topK)

	keystones := e.FindKeystoneDistortions(distortions)
	if len(keystones) > 3 {
		keystones = keystones[:3]
	}

	cascades := e.FindCascadePaths(distortions, DefaultMaxCascadeLength)
	if len(cascades) > 5 {
		cascades = cascades[:5]
	}

	rec := &Recommendation{
		QueryDistortions: distortions,
		SimilarCases:     similar,
		Keystones:        keystones,
		Cascades:         cascades,
		Outcomes:         analyzeOutcomes(similar),
	}

	e.logger.Info("retrieval done",
		"request_id", requestID,
		"similar_cases", len(similar),
		"keystones", len(keystones),
		"cascades", len(cascades))
	return rec
}

// analyzeOutcomes summarizes the similar cases: mean improvement, the most
// frequent journey type (ties keep first-seen order), and the fraction that
// improved. Zero-valued defaults guard the empty case.
func analyzeOutcomes(similar []SimilarCase) Outcomes {
	outcomes := Outcomes{NumSimilarCases: len(similar)}
	if len(similar) == 0 {
		return outcomes
	}

	sum := 0.0
	improved := 0
	counts := make(map[journey.JourneyType]int)
	var order []journey.JourneyType
	for _, c := range similar {
		sum += c.Metadata.Improvement
		if c.Metadata.Improvement > 0 {
			improved++
		}
		if _, seen := counts[c.Metadata.JourneyType]; !seen {
			order = append(order, c.Metadata.JourneyType)
		}
		counts[c.Metadata.JourneyType]++
	}

	outcomes.AvgImprovement = sum / float64(len(similar))
	outcomes.SuccessRate = float64(improved) / float64(len(similar))
	best := 0
	for _, jt := range order {
		if counts[jt] > best {
			best = counts[jt]
			outcomes.MostCommonTrajectory = jt
		}
	}
	return outcomes
}
