package retrieval

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/graph"
	"github.com/mindweave/mindweave/journey"
)

func distortionNode(id string) *graph.Node {
	return &graph.Node{ID: id, Type: graph.NodeTypeDistortion, Distortion: &graph.DistortionStats{Occurrences: 1}}
}

// testEngine wires a small fixed batch: an escalation chain in the global
// graph and two personal graphs, one overlapping the chain and one disjoint.
func testEngine(t *testing.T) *Engine {
	t.Helper()

	global := graph.NewDiGraph()
	global.AddNode(distortionNode("catastrophizing"))
	global.AddNode(distortionNode("fortune_telling"))
	global.AddNode(distortionNode("mind_reading"))
	global.AddEdge(&graph.Edge{Source: "catastrophizing", Target: "fortune_telling", Weight: 5, Type: graph.EdgeTypeCoOccurs})
	global.AddEdge(&graph.Edge{Source: "fortune_telling", Target: "mind_reading", Weight: 3, Type: graph.EdgeTypeCoOccurs})

	alpha := graph.NewDiGraph()
	alpha.AddNode(distortionNode("catastrophizing"))
	alpha.AddNode(distortionNode("fortune_telling"))
	alpha.AddEdge(&graph.Edge{Source: "catastrophizing", Target: "fortune_telling", Weight: 5, Type: graph.EdgeTypeCoOccurs})

	beta := graph.NewDiGraph()
	beta.AddNode(distortionNode("labeling"))
	beta.AddNode(distortionNode("rumination"))

	personal := map[string]*graph.PersonalGraph{
		"user_alpha": {DiGraph: alpha, Meta: graph.Metadata{
			UserID:      "user_alpha",
			JourneyType: journey.JourneyImproving,
			Improvement: 0.5,
		}},
		"user_beta": {DiGraph: beta, Meta: graph.Metadata{
			UserID:      "user_beta",
			JourneyType: journey.JourneyWorsening,
			Improvement: -0.2,
		}},
	}

	export := graph.NewExport(personal, &graph.GlobalGraph{DiGraph: global, NumJourneys: 2})
	engine, err := NewEngine(export)
	require.NoError(t, err)
	return engine
}

func TestNewEngineFromFile(t *testing.T) {
	e1 := journey.JournalEntry{Week: 1, MeasuredSeverity: 0.8, Distortions: []journey.DistortionDetection{
		{Type: journey.DistortionCatastrophizing, Phrase: "p", Confidence: 0.9},
		{Type: journey.DistortionFortuneTelling, Phrase: "q", Confidence: 0.8},
	}}
	e2 := journey.JournalEntry{Week: 2, MeasuredSeverity: 0.6, Distortions: e1.Distortions}
	journeys := []*journey.UserJourney{
		{UserID: "user_file", Improvement: 0.2, Entries: []journey.JournalEntry{e1, e2}},
		{UserID: "user_file2", Improvement: 0.1, Entries: []journey.JournalEntry{e1, e2}},
	}

	personal, global := graph.NewBuilder().ProcessAll(journeys)
	path := filepath.Join(t.TempDir(), "graphs.json")
	require.NoError(t, graph.NewExport(personal, global).WriteFile(path))

	engine, err := NewEngineFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.NumUsers())

	rec := engine.RetrieveInterventions([]journey.DistortionType{
		journey.DistortionCatastrophizing,
		journey.DistortionFortuneTelling,
	}, 5)
	require.Len(t, rec.SimilarCases, 2)
	assert.Greater(t, rec.SimilarCases[0].Similarity, 0.0)
}

func TestNewEngineFromFileMissing(t *testing.T) {
	_, err := NewEngineFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestExtractUserPattern(t *testing.T) {
	engine := testEngine(t)

	query := engine.ExtractUserPattern([]journey.DistortionType{
		journey.DistortionCatastrophizing,
		journey.DistortionFortuneTelling,
		journey.DistortionMindReading,
		journey.DistortionCatastrophizing, // duplicates collapse
	})

	assert.Equal(t, 3, query.NodeCount())
	assert.Equal(t, []string{"catastrophizing", "fortune_telling", "mind_reading"}, query.NodeIDs())

	require.True(t, query.HasEdge("catastrophizing", "fortune_telling"))
	assert.Equal(t, 5, query.Edge("catastrophizing", "fortune_telling").Weight)
	require.True(t, query.HasEdge("fortune_telling", "mind_reading"))
	// No global edge for this pair, so none is copied.
	assert.False(t, query.HasEdge("catastrophizing", "mind_reading"))
}

func TestExtractUserPatternUnknownDistortion(t *testing.T) {
	engine := testEngine(t)

	// A distortion absent from the global graph still gets a query node; it
	// simply contributes no edges.
	query := engine.ExtractUserPattern([]journey.DistortionType{
		journey.DistortionRumination,
		journey.DistortionCatastrophizing,
	})
	assert.Equal(t, 2, query.NodeCount())
	assert.Equal(t, 0, query.EdgeCount())
}

func TestFindSimilarPatterns(t *testing.T) {
	engine := testEngine(t)

	query := []journey.DistortionType{
		journey.DistortionCatastrophizing,
		journey.DistortionFortuneTelling,
	}

	cases := engine.FindSimilarPatterns(query, 5)
	require.Len(t, cases, 2)

	// user_alpha's graph equals the query pattern exactly.
	assert.Equal(t, "user_alpha", cases[0].UserID)
	assert.InDelta(t, 1.0, cases[0].Similarity, 1e-9)

	// user_beta shares nothing with the query.
	assert.Equal(t, "user_beta", cases[1].UserID)
	assert.Equal(t, 0.0, cases[1].Similarity)
}

func TestFindSimilarPatternsTopK(t *testing.T) {
	engine := testEngine(t)

	query := []journey.DistortionType{journey.DistortionCatastrophizing}

	assert.Len(t, engine.FindSimilarPatterns(query, 1), 1)
	assert.Len(t, engine.FindSimilarPatterns(query, 0), 0)
	assert.Len(t, engine.FindSimilarPatterns(query, 100), 2)
}

func TestFindKeystoneDistortions(t *testing.T) {
	engine := testEngine(t)

	keystones := engine.FindKeystoneDistortions([]journey.DistortionType{
		journey.DistortionCatastrophizing,
		journey.DistortionFortuneTelling,
		journey.DistortionMindReading,
	})
	require.Len(t, keystones, 3)

	// fortune_telling bridges the chain: betweenness 0.5 and degree 1.0.
	assert.Equal(t, "fortune_telling", keystones[0].Distortion)
	assert.InDelta(t, 0.6*0.5+0.4*1.0, keystones[0].Score, 1e-9)

	// End nodes carry degree only.
	for _, k := range keystones[1:] {
		assert.InDelta(t, 0.4*0.5, k.Score, 1e-9)
	}
}

func TestFindKeystoneDistortionsSingleNode(t *testing.T) {
	engine := testEngine(t)

	keystones := engine.FindKeystoneDistortions([]journey.DistortionType{
		journey.DistortionCatastrophizing,
	})
	require.Len(t, keystones, 1)
	assert.Equal(t, "catastrophizing", keystones[0].Distortion)
	assert.Equal(t, 0.0, keystones[0].Score)
}

func TestFindKeystoneDistortionsEmptyQuery(t *testing.T) {
	engine := testEngine(t)
	assert.Empty(t, engine.FindKeystoneDistortions(nil))
}

func TestFindCascadePaths(t *testing.T) {
	engine := testEngine(t)

	cascades := engine.FindCascadePaths([]journey.DistortionType{
		journey.DistortionCatastrophizing,
		journey.DistortionFortuneTelling,
		journey.DistortionMindReading,
	}, 0)
	require.NotEmpty(t, cascades)

	// The full chain outweighs both single hops: 5 + 3.
	assert.Equal(t, []string{"catastrophizing", "fortune_telling", "mind_reading"}, cascades[0].Path)
	assert.Equal(t, 8, cascades[0].Score)

	// Every path is simple and at least two nodes long.
	for _, c := range cascades {
		assert.GreaterOrEqual(t, len(c.Path), 2)
		seen := make(map[string]bool)
		for _, node := range c.Path {
			assert.False(t, seen[node], "path revisits %s", node)
			seen[node] = true
		}
	}
}

func TestRetrieveInterventions(t *testing.T) {
	engine := testEngine(t)

	rec := engine.RetrieveInterventions([]journey.DistortionType{
		journey.DistortionCatastrophizing,
		journey.DistortionFortuneTelling,
	}, 5)
	require.NotNil(t, rec)

	assert.Len(t, rec.SimilarCases, 2)
	assert.LessOrEqual(t, len(rec.Keystones), 3)
	assert.LessOrEqual(t, len(rec.Cascades), 5)

	out := rec.Outcomes
	assert.Equal(t, 2, out.NumSimilarCases)
	assert.InDelta(t, 0.15, out.AvgImprovement, 1e-9)
	assert.InDelta(t, 0.5, out.SuccessRate, 1e-9)
	// One of each trajectory; ties keep the best-ranked case's type.
	assert.Equal(t, journey.JourneyImproving, out.MostCommonTrajectory)
}

func TestAnalyzeOutcomesEmpty(t *testing.T) {
	out := analyzeOutcomes(nil)
	assert.Equal(t, 0, out.NumSimilarCases)
	assert.Equal(t, 0.0, out.AvgImprovement)
	assert.Equal(t, 0.0, out.SuccessRate)
	assert.Empty(t, out.MostCommonTrajectory)
}
