package graph

import (
	"log/slog"
	"time"

	"github.com/mindweave/mindweave/journey"
)

// Builder builds personal and global graphs from user journeys. Graphs are
// built once per batch and never mutated afterwards.
type Builder struct {
	config Config
}

// NewBuilder creates a Builder with default thresholds.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// NewBuilderWithConfig creates a Builder with custom thresholds.
func NewBuilderWithConfig(config Config) *Builder {
	return &Builder{config: config}
}

// PersonalAccumulator holds the running counters of one personal-graph build.
// Entries are folded in chronological order; edge weights accumulate
// additively, so folding entries in batches yields the same graph as a single
// pass.
type PersonalAccumulator struct {
	g          *DiGraph
	minSupport int

	pairCounts map[[2]string]int
	pairOrder  [][2]string

	deltaSum   map[journey.InterventionType]float64
	deltaCount map[journey.InterventionType]int

	prev *journey.JournalEntry
}

// NewPersonalAccumulator creates an accumulator using the builder's
// thresholds.
func (b *Builder) NewPersonalAccumulator() *PersonalAccumulator {
	return &PersonalAccumulator{
		g:          NewDiGraph(),
		minSupport: b.config.PersonalCoOccurrenceMin,
		pairCounts: make(map[[2]string]int),
		deltaSum:   make(map[journey.InterventionType]float64),
		deltaCount: make(map[journey.InterventionType]int),
	}
}

// Fold folds one entry into the accumulator. Entries must arrive in journey
// order: the severity delta credited to an entry's interventions is measured
// against the next entry's severity.
func (a *PersonalAccumulator) Fold(entry journey.JournalEntry) {
	if a.prev != nil {
		delta := entry.MeasuredSeverity - a.prev.MeasuredSeverity
		for _, iv := range a.prev.InterventionsUsed {
			a.deltaSum[iv] += delta
			a.deltaCount[iv]++
		}
	}

	for _, d := range entry.Distortions {
		node := a.g.AddNode(&Node{
			ID:         string(d.Type),
			Type:       NodeTypeDistortion,
			Distortion: &DistortionStats{},
		})
		node.Distortion.Occurrences++
		node.Distortion.TotalConfidence += d.Confidence
	}

	present := distinctDistortions(entry.Distortions)
	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			key := pairKey(present[i], present[j])
			if _, seen := a.pairCounts[key]; !seen {
				a.pairOrder = append(a.pairOrder, key)
			}
			a.pairCounts[key]++
		}
	}

	for _, iv := range entry.InterventionsUsed {
		node := a.g.AddNode(&Node{
			ID:           string(iv),
			Type:         NodeTypeIntervention,
			Intervention: &InterventionStats{},
		})
		node.Intervention.Uses++

		for _, d := range present {
			if edge := a.g.Edge(string(iv), d); edge != nil {
				edge.Weight++
				continue
			}
			a.g.AddEdge(&Edge{
				Source: string(iv),
				Target: d,
				Weight: 1,
				Type:   EdgeTypeAddresses,
			})
		}
	}

	prev := entry
	a.prev = &prev
}

// Finalize materializes the threshold-gated co_occurs edges, averages the
// recorded severity deltas, and attaches the journey metadata.
func (a *PersonalAccumulator) Finalize(meta Metadata) *PersonalGraph {
	for _, key := range a.pairOrder {
		count := a.pairCounts[key]
		if count < a.minSupport {
			continue
		}
		a.g.AddEdge(&Edge{
			Source: key[0],
			Target: key[1],
			Weight: count,
			Type:   EdgeTypeCoOccurs,
		})
	}

	for iv, count := range a.deltaCount {
		if count == 0 {
			continue
		}
		node := a.g.Node(string(iv))
		if node == nil || node.Intervention == nil {
			continue
		}
		avg := a.deltaSum[iv] / float64(count)
		node.Intervention.DeltaCount = count
		node.Intervention.AvgSeverityChange = avg
		// Severity falling after use is a positive outcome.
		node.Intervention.EffectivenessScore = -avg
	}

	return &PersonalGraph{DiGraph: a.g, Meta: meta}
}

// BuildPersonalGraph builds the aggregate graph for one journey.
func (b *Builder) BuildPersonalGraph(j *journey.UserJourney) *PersonalGraph {
	acc := b.NewPersonalAccumulator()
	for _, entry := range j.Entries {
		acc.Fold(entry)
	}
	return acc.Finalize(Metadata{
		UserID:                j.UserID,
		JourneyType:           j.JourneyType,
		InitialSeverity:       j.InitialSeverity,
		FinalSeverity:         j.FinalSeverity,
		Improvement:           j.Improvement,
		AssignedInterventions: j.AssignedInterventions,
	})
}

// BuildGlobalGraph builds the cohort-wide graph over all journeys.
//
// Co-occurrence edges require support proportional to the cohort size
// (GlobalCoOccurrenceFraction), with a floor of 2: a pair seen once is never
// a cohort-wide regularity, whatever the cohort size. Intervention
// effectiveness averages improvement over journeys with improvement > 0 that
// used the intervention; journeys with no net improvement do not contribute.
func (b *Builder) BuildGlobalGraph(journeys []*journey.UserJourney) *GlobalGraph {
	var (
		distOrder []string
		distCount = make(map[string]int)
		distConf  = make(map[string]float64)

		ivOrder []string
		ivSeen  = make(map[string]bool)

		pairCounts = make(map[[2]string]int)
		pairOrder  [][2]string

		linkCounts = make(map[[2]string]int)
		linkOrder  [][2]string

		outcomeSum   = make(map[string]float64)
		outcomeCount = make(map[string]int)
	)

	for _, j := range journeys {
		usedInJourney := make(map[string]bool)

		for _, entry := range j.Entries {
			for _, d := range entry.Distortions {
				id := string(d.Type)
				if _, seen := distCount[id]; !seen {
					distOrder = append(distOrder, id)
				}
				distCount[id]++
				distConf[id] += d.Confidence
			}

			present := distinctDistortions(entry.Distortions)
			for x := 0; x < len(present); x++ {
				for y := x + 1; y < len(present); y++ {
					key := pairKey(present[x], present[y])
					if _, seen := pairCounts[key]; !seen {
						pairOrder = append(pairOrder, key)
					}
					pairCounts[key]++
				}
			}

			for _, iv := range entry.InterventionsUsed {
				id := string(iv)
				if !ivSeen[id] {
					ivSeen[id] = true
					ivOrder = append(ivOrder, id)
				}
				usedInJourney[id] = true
				for _, d := range present {
					key := [2]string{id, d}
					if _, seen := linkCounts[key]; !seen {
						linkOrder = append(linkOrder, key)
					}
					linkCounts[key]++
				}
			}
		}

		if j.Improvement > 0 {
			for id := range usedInJourney {
				outcomeSum[id] += j.Improvement
				outcomeCount[id]++
			}
		}
	}

	g := NewDiGraph()
	for _, id := range distOrder {
		g.AddNode(&Node{
			ID:   id,
			Type: NodeTypeDistortion,
			Distortion: &DistortionStats{
				Occurrences:     distCount[id],
				TotalConfidence: distConf[id],
			},
		})
	}
	for _, id := range ivOrder {
		avgImprovement := 0.0
		if outcomeCount[id] > 0 {
			avgImprovement = outcomeSum[id] / float64(outcomeCount[id])
		}
		g.AddNode(&Node{
			ID:   id,
			Type: NodeTypeIntervention,
			Intervention: &InterventionStats{
				Uses:           0,
				AvgImprovement: avgImprovement,
			},
		})
	}

	threshold := b.config.GlobalCoOccurrenceFraction * float64(len(journeys))
	if threshold < float64(b.config.PersonalCoOccurrenceMin) {
		threshold = float64(b.config.PersonalCoOccurrenceMin)
	}
	for _, key := range pairOrder {
		count := pairCounts[key]
		if float64(count) < threshold {
			continue
		}
		g.AddEdge(&Edge{
			Source: key[0],
			Target: key[1],
			Weight: count,
			Type:   EdgeTypeCoOccurs,
		})
	}

	for _, key := range linkOrder {
		count := linkCounts[key]
		if count < b.config.TargetsMin {
			continue
		}
		effectiveness := 0.0
		if node := g.Node(key[0]); node != nil && node.Intervention != nil {
			effectiveness = node.Intervention.AvgImprovement
		}
		g.AddEdge(&Edge{
			Source:        key[0],
			Target:        key[1],
			Weight:        count,
			Type:          EdgeTypeTargets,
			Effectiveness: effectiveness,
		})
	}

	return &GlobalGraph{DiGraph: g, NumJourneys: len(journeys)}
}

// ProcessAll builds every personal graph and the global graph in one batch.
func (b *Builder) ProcessAll(journeys []*journey.UserJourney) (map[string]*PersonalGraph, *GlobalGraph) {
	start := time.Now()
	personal := make(map[string]*PersonalGraph, len(journeys))
	for _, j := range journeys {
		personal[j.UserID] = b.BuildPersonalGraph(j)
	}
	global := b.BuildGlobalGraph(journeys)
	slog.Info("graph batch built",
		"users", len(personal),
		"global_nodes", global.NodeCount(),
		"global_edges", global.EdgeCount(),
		"elapsed_ms", time.Since(start).Milliseconds())
	return personal, global
}

// distinctDistortions collapses duplicate labels, preserving first-seen
// order.
func distinctDistortions(detections []journey.DistortionDetection) []string {
	seen := make(map[string]bool, len(detections))
	var out []string
	for _, d := range detections {
		id := string(d.Type)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// pairKey canonicalizes an unordered distortion pair. co_occurs is logically
// symmetric but stored as one directed edge per pair.
func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
