// Package graph builds per-user and cohort-wide distortion/intervention
// graphs from journal data and converts them to a portable node-list /
// edge-list export.
package graph

import (
	"github.com/mindweave/mindweave/journey"
)

// NodeType constants.
const (
	NodeTypeDistortion   = "distortion"
	NodeTypeIntervention = "intervention"
)

// EdgeType constants.
const (
	EdgeTypeCoOccurs  = "co_occurs" // two distortions seen in the same entry
	EdgeTypeAddresses = "addresses" // intervention applied while distortion present (personal)
	EdgeTypeTargets   = "targets"   // intervention applied while distortion present (global)
)

// DistortionStats are the attributes of a distortion node.
type DistortionStats struct {
	Occurrences     int     `json:"occurrences"`
	TotalConfidence float64 `json:"total_confidence"`
}

// InterventionStats are the attributes of an intervention node.
// AvgSeverityChange and EffectivenessScore are meaningful only when
// DeltaCount > 0 (personal graphs); AvgImprovement only in the global graph.
type InterventionStats struct {
	Uses               int     `json:"uses"`
	DeltaCount         int     `json:"delta_count"`
	AvgSeverityChange  float64 `json:"avg_severity_change"`
	EffectivenessScore float64 `json:"effectiveness_score"`
	AvgImprovement     float64 `json:"avg_improvement"`
}

// Node is a graph node, identified by its distortion or intervention value.
// Exactly one of Distortion/Intervention is set, matching Type. Extra holds
// attributes found on import that the fixed schema does not model.
type Node struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Distortion   *DistortionStats   `json:"distortion,omitempty"`
	Intervention *InterventionStats `json:"intervention,omitempty"`
	Extra        map[string]any     `json:"extra,omitempty"`
}

// Edge is a directed edge. Weight is a cumulative count, never negative.
// Effectiveness is carried by `targets` edges only. Extra holds unmodeled
// attributes found on import.
type Edge struct {
	Source        string         `json:"source"`
	Target        string         `json:"target"`
	Weight        int            `json:"weight"`
	Type          string         `json:"edge_type"`
	Effectiveness float64        `json:"effectiveness,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Metadata is the journey-level metadata attached to a personal graph.
type Metadata struct {
	UserID                string                     `json:"user_id"`
	JourneyType           journey.JourneyType        `json:"journey_type"`
	InitialSeverity       float64                    `json:"initial_severity"`
	FinalSeverity         float64                    `json:"final_severity"`
	Improvement           float64                    `json:"improvement"`
	AssignedInterventions []journey.InterventionType `json:"assigned_interventions"`
}

// PersonalGraph is the aggregate graph for one user.
type PersonalGraph struct {
	*DiGraph
	Meta Metadata
}

// GlobalGraph is the cohort-wide aggregate graph.
type GlobalGraph struct {
	*DiGraph
	// NumJourneys is the cohort size the edge thresholds were derived from.
	NumJourneys int
}

// Config holds the edge materialization thresholds.
type Config struct {
	// PersonalCoOccurrenceMin is the minimum pair count for a co_occurs edge
	// in a personal graph.
	PersonalCoOccurrenceMin int
	// GlobalCoOccurrenceFraction scales the cohort size into the minimum pair
	// count for a co_occurs edge in the global graph.
	GlobalCoOccurrenceFraction float64
	// TargetsMin is the minimum (intervention, distortion) count for a
	// targets edge in the global graph.
	TargetsMin int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		PersonalCoOccurrenceMin:    2,
		GlobalCoOccurrenceFraction: 0.1,
		TargetsMin:                 2,
	}
}
