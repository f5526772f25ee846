package synth

import (
	"log/slog"
	"math/rand"

	"github.com/mindweave/mindweave/journey"
)

// AssignInterventions enriches a cohort in place. Each journey gets the
// intervention set of its trajectory; from week 3 on, entries whose
// distortions overlap an assigned intervention's targets record up to two of
// them as used. Worsening journeys get none.
func AssignInterventions(journeys []*journey.UserJourney, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	assigned := 0
	for _, j := range journeys {
		types := JourneyInterventions[j.JourneyType]
		j.AssignedInterventions = append([]journey.InterventionType(nil), types...)
		if len(types) == 0 {
			continue
		}

		for i := range j.Entries {
			entry := &j.Entries[i]
			if entry.Week < 3 {
				continue
			}

			matching := matchingInterventions(types, entry.DistortionTypes())
			if len(matching) == 0 {
				continue
			}

			n := 1
			if len(matching) > 1 && rng.Float64() < 0.5 {
				n = 2
			}
			entry.InterventionsUsed = matching[:n]
			entry.InterventionActive = true
			assigned++
		}
	}

	slog.Info("interventions assigned", "journeys", len(journeys), "entries_with_use", assigned)
}

// matchingInterventions filters the assigned set down to interventions whose
// targets overlap the entry's distortions, best overlap first.
func matchingInterventions(assigned []journey.InterventionType, distortions []journey.DistortionType) []journey.InterventionType {
	if len(distortions) == 0 {
		return nil
	}

	var matched []journey.InterventionType
	for _, t := range assigned {
		if journey.TargetOverlap(t, distortions) > 0 {
			matched = append(matched, t)
		}
	}
	// Stable selection sort by overlap keeps assigned order on ties.
	for i := 0; i < len(matched); i++ {
		best := i
		for k := i + 1; k < len(matched); k++ {
			if journey.TargetOverlap(matched[k], distortions) > journey.TargetOverlap(matched[best], distortions) {
				best = k
			}
		}
		if best != i {
			picked := matched[best]
			copy(matched[i+1:best+1], matched[i:best])
			matched[i] = picked
		}
	}
	return matched
}
