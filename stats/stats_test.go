package stats

import (
	"strings"
	"testing"

	"github.com/mindweave/mindweave/journey"
)

func cohort() []*journey.UserJourney {
	return []*journey.UserJourney{
		{
			UserID:      "u1",
			JourneyType: journey.JourneyImproving,
			Improvement: 0.5,
			Entries: []journey.JournalEntry{
				{
					Week:             1,
					MeasuredSeverity: 0.8,
					Distortions: []journey.DistortionDetection{
						{Type: journey.DistortionCatastrophizing, Confidence: 0.9},
						{Type: journey.DistortionRumination, Confidence: 0.7},
					},
				},
				{
					Week:              2,
					MeasuredSeverity:  0.3,
					InterventionsUsed: []journey.InterventionType{journey.InterventionThoughtRecords},
				},
			},
		},
		{
			UserID:      "u2",
			JourneyType: journey.JourneyWorsening,
			Improvement: -0.3,
			Entries: []journey.JournalEntry{
				{
					Week:             1,
					MeasuredSeverity: 0.4,
					Distortions: []journey.DistortionDetection{
						{Type: journey.DistortionCatastrophizing, Confidence: 0.6},
					},
				},
			},
		},
	}
}

func TestCollect(t *testing.T) {
	s := Collect(cohort())

	if s.NumUsers != 2 {
		t.Errorf("users: expected 2, got %d", s.NumUsers)
	}
	if s.TotalEntries != 3 {
		t.Errorf("entries: expected 3, got %d", s.TotalEntries)
	}
	if s.JourneyTypes[journey.JourneyImproving] != 1 || s.JourneyTypes[journey.JourneyWorsening] != 1 {
		t.Errorf("journey type distribution wrong: %v", s.JourneyTypes)
	}
	if got := s.AvgImprovement; got < 0.099 || got > 0.101 {
		t.Errorf("avg improvement: expected 0.1, got %v", got)
	}
	if s.NumImproved != 1 || s.NumWorsened != 1 {
		t.Errorf("improved/worsened: expected 1/1, got %d/%d", s.NumImproved, s.NumWorsened)
	}
	if s.DistortionCounts[journey.DistortionCatastrophizing] != 2 {
		t.Errorf("catastrophizing count: expected 2, got %d", s.DistortionCounts[journey.DistortionCatastrophizing])
	}
	if s.InterventionUses[journey.InterventionThoughtRecords] != 1 {
		t.Errorf("thought_records uses: expected 1, got %d", s.InterventionUses[journey.InterventionThoughtRecords])
	}
}

func TestCollectEmpty(t *testing.T) {
	s := Collect(nil)
	if s.NumUsers != 0 || s.TotalEntries != 0 || s.AvgImprovement != 0 {
		t.Errorf("empty cohort should zero out: %+v", s)
	}
}

func TestSummary(t *testing.T) {
	report := Collect(cohort()).Summary()

	for _, want := range []string{
		"Users:   2",
		"Entries: 3",
		"improving: 1",
		"worsening: 1",
		"catastrophizing: 2",
		"thought_records: 1",
		"improved: 1, worsened: 1",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestSummaryNoInterventions(t *testing.T) {
	journeys := cohort()
	journeys[0].Entries[1].InterventionsUsed = nil
	report := Collect(journeys).Summary()
	if !strings.Contains(report, "none") {
		t.Errorf("report should note the absence of intervention uses:\n%s", report)
	}
}
