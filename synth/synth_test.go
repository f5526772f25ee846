package synth

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/ai"
	"github.com/mindweave/mindweave/journey"
)

// echoChat answers entry prompts with fixed text and extraction prompts with
// fixed labels, so generated journeys are fully deterministic.
type echoChat struct {
	calls int
}

func (c *echoChat) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	c.calls++
	if strings.Contains(req.Messages[0].Content, "Analyze this journal entry") {
		return `{"distortions": [{"type": "catastrophizing", "phrase": "ruined", "confidence": 0.8}], "measured_severity": 0.6}`, nil
	}
	return "Today everything felt ruined before it even started.", nil
}

func TestTemplatesCoverAllJourneyTypes(t *testing.T) {
	for _, jt := range journey.JourneyTypes {
		template, ok := Templates[jt]
		require.True(t, ok, "missing template for %s", jt)
		assert.Greater(t, template.DurationWeeks, 0)

		_, ok = JourneyInterventions[jt]
		assert.True(t, ok, "missing intervention set for %s", jt)
	}

	// Worsening journeys get no help by construction.
	assert.Empty(t, JourneyInterventions[journey.JourneyWorsening])

	// Improvement templates drift down, decline templates up.
	assert.Negative(t, Templates[journey.JourneyImproving].DistortionChange)
	assert.Negative(t, Templates[journey.JourneyRapidImprovement].DistortionChange)
	assert.Positive(t, Templates[journey.JourneyWorsening].DistortionChange)
}

func TestJourneyInterventionsAreValid(t *testing.T) {
	for jt, ivs := range JourneyInterventions {
		for _, iv := range ivs {
			assert.True(t, journey.IsValidIntervention(iv), "%s assigns unknown intervention %s", jt, iv)
		}
	}
}

func TestGenerateCohort(t *testing.T) {
	chat := &echoChat{}
	config := DefaultGeneratorConfig()
	config.NumUsers = 3
	config.EntriesPerWeek = 1
	config.Concurrency = 2
	config.CallInterval = time.Nanosecond

	gen := NewGenerator(chat, config)
	base := []BaseStatement{{
		Statement:          strings.Repeat("I can't do anything right. ", 5),
		MentalHealthStatus: "Depression",
		OverallSeverity:    0.7,
		PrimaryDistortion:  journey.DistortionCatastrophizing,
	}}

	journeys, err := gen.GenerateCohort(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, journeys, 3)

	for _, j := range journeys {
		require.NoError(t, j.Validate())
		assert.NotEmpty(t, j.UserID)
		assert.True(t, journey.IsValidJourneyType(j.JourneyType))
		assert.Equal(t, Templates[j.JourneyType].DurationWeeks, j.DurationWeeks)
		assert.Len(t, j.Entries, j.DurationWeeks)

		for _, e := range j.Entries {
			assert.NotEmpty(t, e.EntryText)
			require.Len(t, e.Distortions, 1)
			assert.Equal(t, journey.DistortionCatastrophizing, e.Distortions[0].Type)
		}

		// Finalize ran: improvement consistent with the entry sequence.
		last := j.Entries[len(j.Entries)-1].MeasuredSeverity
		assert.InDelta(t, j.InitialSeverity-last, j.Improvement, 1e-9)
	}
}

func TestGenerateCohortCheckpoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	config := DefaultGeneratorConfig()
	config.NumUsers = 2
	config.EntriesPerWeek = 1
	config.Concurrency = 1
	config.CallInterval = time.Nanosecond
	config.CheckpointPath = path

	gen := NewGenerator(&echoChat{}, config)
	base := []BaseStatement{{
		Statement:          "Nothing works out for me.",
		MentalHealthStatus: "Depression",
		OverallSeverity:    0.6,
		PrimaryDistortion:  journey.DistortionOvergeneralization,
	}}

	journeys, err := gen.GenerateCohort(context.Background(), base)
	require.NoError(t, err)

	saved, err := journey.LoadJourneys(path)
	require.NoError(t, err)
	assert.Len(t, saved, len(journeys), "final checkpoint holds the full cohort")
}

func TestGenerateCohortNoBaseStatements(t *testing.T) {
	gen := NewGenerator(&echoChat{}, DefaultGeneratorConfig())
	_, err := gen.GenerateCohort(context.Background(), nil)
	require.Error(t, err)
}

func TestScheduledSeverityClamped(t *testing.T) {
	gen := NewGenerator(&echoChat{}, DefaultGeneratorConfig())
	p := profile{base: BaseStatement{OverallSeverity: 0.9}}
	template := Templates[journey.JourneyWorsening]

	rng := rand.New(rand.NewSource(7))
	for week := 1; week <= template.DurationWeeks; week++ {
		s := gen.scheduledSeverity(p, template, week, rng)
		assert.GreaterOrEqual(t, s, 0.1)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestAssignInterventions(t *testing.T) {
	catEntry := func(week int) journey.JournalEntry {
		return journey.JournalEntry{
			Week:             week,
			MeasuredSeverity: 0.6,
			Distortions: []journey.DistortionDetection{
				{Type: journey.DistortionCatastrophizing, Phrase: "p", Confidence: 0.8},
			},
		}
	}

	improving := &journey.UserJourney{
		UserID:      "user_i",
		JourneyType: journey.JourneyImproving,
		Entries: []journey.JournalEntry{
			catEntry(1), catEntry(2), catEntry(3), catEntry(5),
		},
	}
	worsening := &journey.UserJourney{
		UserID:      "user_w",
		JourneyType: journey.JourneyWorsening,
		Entries:     []journey.JournalEntry{catEntry(3), catEntry(4)},
	}

	AssignInterventions([]*journey.UserJourney{improving, worsening}, 1)

	assert.Equal(t, JourneyInterventions[journey.JourneyImproving], improving.AssignedInterventions)
	assert.Empty(t, worsening.AssignedInterventions)

	// Nothing before week 3.
	assert.Empty(t, improving.Entries[0].InterventionsUsed)
	assert.Empty(t, improving.Entries[1].InterventionsUsed)

	for _, e := range improving.Entries[2:] {
		require.NotEmpty(t, e.InterventionsUsed, "week %d entry should use an intervention", e.Week)
		assert.True(t, e.InterventionActive)
		assert.LessOrEqual(t, len(e.InterventionsUsed), 2)
		for _, iv := range e.InterventionsUsed {
			// Only interventions whose targets overlap the entry's distortions
			// may be picked.
			assert.Positive(t, journey.TargetOverlap(iv, e.DistortionTypes()),
				"%s does not target any present distortion", iv)
		}
	}

	// Worsening journeys never get uses.
	for _, e := range worsening.Entries {
		assert.Empty(t, e.InterventionsUsed)
		assert.False(t, e.InterventionActive)
	}
}

func TestAssignInterventionsNoMatchingTargets(t *testing.T) {
	// should_statements is outside the target sets of both interventions an
	// improving journey is assigned.
	j := &journey.UserJourney{
		UserID:      "user_n",
		JourneyType: journey.JourneyImproving, // thought_records + examine_evidence
		Entries: []journey.JournalEntry{
			{
				Week:             4,
				MeasuredSeverity: 0.5,
				Distortions: []journey.DistortionDetection{
					{Type: journey.DistortionShouldStatements, Phrase: "p", Confidence: 0.7},
				},
			},
		},
	}

	AssignInterventions([]*journey.UserJourney{j}, 1)
	assert.Empty(t, j.Entries[0].InterventionsUsed,
		"no assigned intervention targets should_statements")
	assert.False(t, j.Entries[0].InterventionActive)
}
