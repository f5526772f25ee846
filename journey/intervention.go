package journey

// InterventionType is a categorical CBT technique from the closed vocabulary
// below.
type InterventionType string

const (
	InterventionThoughtRecords         InterventionType = "thought_records"
	InterventionBehavioralExperiments  InterventionType = "behavioral_experiments"
	InterventionExamineEvidence        InterventionType = "examine_evidence"
	InterventionCognitiveRestructuring InterventionType = "cognitive_restructuring"
	InterventionMindfulness            InterventionType = "mindfulness"
	InterventionExposureTherapy        InterventionType = "exposure_therapy"
)

// InterventionInfo describes one technique. Targets and BaselineEffectiveness
// are static metadata used during cohort synthesis and reporting; the
// retrieval math never reads them.
type InterventionInfo struct {
	Name                  string           `json:"name"`
	Targets               []DistortionType `json:"targets"`
	BaselineEffectiveness float64          `json:"effectiveness"`
}

// Interventions is the closed intervention vocabulary.
var Interventions = map[InterventionType]InterventionInfo{
	InterventionThoughtRecords: {
		Name:                  "Thought Records",
		Targets:               []DistortionType{DistortionAllOrNothing, DistortionCatastrophizing, DistortionOvergeneralization},
		BaselineEffectiveness: 0.75,
	},
	InterventionBehavioralExperiments: {
		Name:                  "Behavioral Experiments",
		Targets:               []DistortionType{DistortionFortuneTelling, DistortionMindReading, DistortionCatastrophizing},
		BaselineEffectiveness: 0.82,
	},
	InterventionExamineEvidence: {
		Name:                  "Examining Evidence",
		Targets:               []DistortionType{DistortionMindReading, DistortionOvergeneralization, DistortionJumpingToConclusions},
		BaselineEffectiveness: 0.78,
	},
	InterventionCognitiveRestructuring: {
		Name:                  "Cognitive Restructuring",
		Targets:               []DistortionType{DistortionLabeling, DistortionShouldStatements, DistortionEmotionalReasoning},
		BaselineEffectiveness: 0.71,
	},
	InterventionMindfulness: {
		Name:                  "Mindfulness Practice",
		Targets:               []DistortionType{DistortionRumination, DistortionEmotionalReasoning, DistortionMentalFilter},
		BaselineEffectiveness: 0.68,
	},
	InterventionExposureTherapy: {
		Name:                  "Exposure Therapy",
		Targets:               []DistortionType{DistortionCatastrophizing, DistortionFortuneTelling},
		BaselineEffectiveness: 0.85,
	},
}

// IsValidIntervention reports whether t belongs to the closed vocabulary.
func IsValidIntervention(t InterventionType) bool {
	_, ok := Interventions[t]
	return ok
}

// TargetOverlap returns how many of the given distortions the intervention
// targets.
func TargetOverlap(t InterventionType, distortions []DistortionType) int {
	info, ok := Interventions[t]
	if !ok {
		return 0
	}
	targeted := make(map[DistortionType]bool, len(info.Targets))
	for _, d := range info.Targets {
		targeted[d] = true
	}
	seen := make(map[DistortionType]bool, len(distortions))
	overlap := 0
	for _, d := range distortions {
		if targeted[d] && !seen[d] {
			overlap++
			seen[d] = true
		}
	}
	return overlap
}
