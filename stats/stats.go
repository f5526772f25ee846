// Package stats provides simple cohort statistics over generated journeys.
// This is a lightweight report for eyeballing a dataset, not a monitoring
// solution.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mindweave/mindweave/journey"
)

// CohortStats summarizes a cohort of user journeys.
type CohortStats struct {
	NumUsers     int
	TotalEntries int

	// JourneyTypes maps journey type to user count.
	JourneyTypes map[journey.JourneyType]int

	AvgImprovement float64
	NumImproved    int
	NumWorsened    int

	// DistortionCounts maps distortion type to total detections.
	DistortionCounts map[journey.DistortionType]int

	// InterventionUses maps intervention type to entries that used it.
	InterventionUses map[journey.InterventionType]int

	GeneratedAt time.Time
}

// Collect computes cohort statistics.
func Collect(journeys []*journey.UserJourney) *CohortStats {
	s := &CohortStats{
		NumUsers:         len(journeys),
		JourneyTypes:     make(map[journey.JourneyType]int),
		DistortionCounts: make(map[journey.DistortionType]int),
		InterventionUses: make(map[journey.InterventionType]int),
		GeneratedAt:      time.Now(),
	}

	var improvementSum float64
	for _, j := range journeys {
		s.JourneyTypes[j.JourneyType]++
		improvementSum += j.Improvement
		if j.Improvement > 0 {
			s.NumImproved++
		} else if j.Improvement < 0 {
			s.NumWorsened++
		}

		for _, entry := range j.Entries {
			s.TotalEntries++
			for _, d := range entry.Distortions {
				s.DistortionCounts[d.Type]++
			}
			for _, t := range entry.InterventionsUsed {
				s.InterventionUses[t]++
			}
		}
	}
	if len(journeys) > 0 {
		s.AvgImprovement = improvementSum / float64(len(journeys))
	}
	return s
}

// Summary returns a human-readable report.
func (s *CohortStats) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Cohort report (generated %s)\n\n", s.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "Users:   %d\n", s.NumUsers)
	fmt.Fprintf(&sb, "Entries: %d\n\n", s.TotalEntries)

	sb.WriteString("Journey types:\n")
	for _, line := range sortedCounts(s.JourneyTypes) {
		sb.WriteString("  " + line + "\n")
	}

	fmt.Fprintf(&sb, "\nOutcomes:\n")
	fmt.Fprintf(&sb, "  avg improvement: %+.3f\n", s.AvgImprovement)
	fmt.Fprintf(&sb, "  improved: %d, worsened: %d\n", s.NumImproved, s.NumWorsened)

	sb.WriteString("\nDistortion detections:\n")
	for _, line := range sortedCounts(s.DistortionCounts) {
		sb.WriteString("  " + line + "\n")
	}

	sb.WriteString("\nIntervention uses:\n")
	if len(s.InterventionUses) == 0 {
		sb.WriteString("  none\n")
	}
	for _, line := range sortedCounts(s.InterventionUses) {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// sortedCounts renders a count map as "key: n" lines, highest count first,
// key order on ties.
func sortedCounts[K ~string](counts map[K]int) []string {
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s: %d", string(k), counts[k])
	}
	return lines
}
