// Package journey defines the entity model shared by the graph builder and
// the retrieval engine: cognitive-distortion and intervention vocabularies,
// journal entries, and longitudinal user journeys.
package journey

import "sort"

// DistortionType is a categorical cognitive-distortion label from the closed
// vocabulary below. Detection of distortions in free text is delegated to the
// upstream classifier; the engine only consumes the labels.
type DistortionType string

const (
	DistortionAllOrNothing         DistortionType = "all_or_nothing"
	DistortionOvergeneralization   DistortionType = "overgeneralization"
	DistortionMentalFilter         DistortionType = "mental_filter"
	DistortionMindReading          DistortionType = "mind_reading"
	DistortionFortuneTelling       DistortionType = "fortune_telling"
	DistortionCatastrophizing      DistortionType = "catastrophizing"
	DistortionEmotionalReasoning   DistortionType = "emotional_reasoning"
	DistortionShouldStatements     DistortionType = "should_statements"
	DistortionLabeling             DistortionType = "labeling"
	DistortionPersonalization      DistortionType = "personalization"
	DistortionJumpingToConclusions DistortionType = "jumping_to_conclusions"
	DistortionRumination           DistortionType = "rumination"
)

// DistortionInfo describes one vocabulary entry.
type DistortionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Cues are example phrasings used in extraction prompts.
	Cues []string `json:"cues,omitempty"`
}

// Distortions is the closed distortion vocabulary.
var Distortions = map[DistortionType]DistortionInfo{
	DistortionAllOrNothing: {
		Name:        "All-or-Nothing Thinking",
		Description: "Seeing things in black-and-white categories",
		Cues:        []string{"always", "never", "completely", "totally"},
	},
	DistortionOvergeneralization: {
		Name:        "Overgeneralization",
		Description: "Seeing a single negative event as a never-ending pattern",
		Cues:        []string{"always happens", "never works", "every time"},
	},
	DistortionMentalFilter: {
		Name:        "Mental Filter",
		Description: "Dwelling on negatives and ignoring positives",
		Cues:        []string{"only the bad", "nothing good"},
	},
	DistortionMindReading: {
		Name:        "Mind Reading",
		Description: "Assuming you know what others think without evidence",
		Cues:        []string{"they think I'm", "everyone must think", "they probably hate"},
	},
	DistortionFortuneTelling: {
		Name:        "Fortune Telling",
		Description: "Predicting negative outcomes without evidence",
		Cues:        []string{"I know it will", "it's going to", "I'll definitely"},
	},
	DistortionCatastrophizing: {
		Name:        "Catastrophizing",
		Description: "Expecting disaster or blowing things out of proportion",
		Cues:        []string{"it will be terrible", "I'll never recover", "everything is ruined"},
	},
	DistortionEmotionalReasoning: {
		Name:        "Emotional Reasoning",
		Description: "Assuming feelings reflect reality",
		Cues:        []string{"I feel like", "I feel therefore I am"},
	},
	DistortionShouldStatements: {
		Name:        "Should Statements",
		Description: "Rigid rules about how you or others should behave",
		Cues:        []string{"I should", "I must", "I have to"},
	},
	DistortionLabeling: {
		Name:        "Labeling",
		Description: "Assigning global negative labels to yourself or others",
		Cues:        []string{"I'm a failure", "I'm worthless", "I'm stupid"},
	},
	DistortionPersonalization: {
		Name:        "Personalization",
		Description: "Blaming yourself for things outside your control",
		Cues:        []string{"it's my fault", "I caused this", "if only I had"},
	},
	DistortionJumpingToConclusions: {
		Name:        "Jumping to Conclusions",
		Description: "Reaching negative interpretations without supporting facts",
		Cues:        []string{"obviously", "clearly they", "there's no point"},
	},
	DistortionRumination: {
		Name:        "Rumination",
		Description: "Replaying the same negative thoughts over and over",
		Cues:        []string{"I keep thinking", "I can't stop", "over and over"},
	},
}

// IsValidDistortion reports whether t belongs to the closed vocabulary.
func IsValidDistortion(t DistortionType) bool {
	_, ok := Distortions[t]
	return ok
}

// DistortionVocabLines renders the vocabulary as sorted "- key: Name" lines
// for prompt building.
func DistortionVocabLines() []string {
	lines := make([]string, 0, len(Distortions))
	for t, info := range Distortions {
		lines = append(lines, "- "+string(t)+": "+info.Name)
	}
	sort.Strings(lines)
	return lines
}
