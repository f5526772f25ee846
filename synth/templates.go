// Package synth generates synthetic longitudinal cohorts: journal entries
// written by the LLM collaborator along a templated severity trajectory, then
// labeled by the extractor and enriched with intervention assignments.
package synth

import (
	"github.com/mindweave/mindweave/journey"
)

// JourneyTemplate drives the severity trajectory of one journey type.
type JourneyTemplate struct {
	Trajectory       string
	DurationWeeks    int
	InterventionNote string // mentioned in generated entries, "" for none
	// DistortionChange is the total severity drift over the full journey;
	// negative means improvement.
	DistortionChange float64
}

// Templates maps every journey type to its trajectory template.
var Templates = map[journey.JourneyType]JourneyTemplate{
	journey.JourneyImproving: {
		Trajectory:       "gradual_improvement",
		DurationWeeks:    12,
		InterventionNote: "CBT thought records",
		DistortionChange: -0.6,
	},
	journey.JourneyPlateauing: {
		Trajectory:       "initial_improvement_then_stable",
		DurationWeeks:    16,
		InterventionNote: "therapy + medication",
		DistortionChange: -0.4,
	},
	journey.JourneyWorsening: {
		Trajectory:       "gradual_decline",
		DurationWeeks:    8,
		InterventionNote: "",
		DistortionChange: 0.3,
	},
	journey.JourneyFluctuating: {
		Trajectory:       "up_and_down",
		DurationWeeks:    20,
		InterventionNote: "inconsistent therapy",
		DistortionChange: -0.2,
	},
	journey.JourneyRapidImprovement: {
		Trajectory:       "breakthrough",
		DurationWeeks:    6,
		InterventionNote: "intensive therapy",
		DistortionChange: -0.7,
	},
}

// JourneyInterventions maps each journey type to the interventions assigned
// to users on that trajectory. Worsening journeys receive none.
var JourneyInterventions = map[journey.JourneyType][]journey.InterventionType{
	journey.JourneyImproving:        {journey.InterventionThoughtRecords, journey.InterventionExamineEvidence},
	journey.JourneyPlateauing:       {journey.InterventionCognitiveRestructuring, journey.InterventionMindfulness},
	journey.JourneyWorsening:        {},
	journey.JourneyFluctuating:      {journey.InterventionThoughtRecords},
	journey.JourneyRapidImprovement: {journey.InterventionBehavioralExperiments, journey.InterventionExposureTherapy, journey.InterventionExamineEvidence},
}
