package journey

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

// JourneyType classifies the overall severity trajectory of a journey.
type JourneyType string

const (
	JourneyImproving        JourneyType = "improving"
	JourneyPlateauing       JourneyType = "plateauing"
	JourneyWorsening        JourneyType = "worsening"
	JourneyFluctuating      JourneyType = "fluctuating"
	JourneyRapidImprovement JourneyType = "rapid_improvement"
)

// JourneyTypes lists the valid journey types in a stable order.
var JourneyTypes = []JourneyType{
	JourneyImproving,
	JourneyPlateauing,
	JourneyWorsening,
	JourneyFluctuating,
	JourneyRapidImprovement,
}

// IsValidJourneyType reports whether t is a known journey type.
func IsValidJourneyType(t JourneyType) bool {
	for _, jt := range JourneyTypes {
		if jt == t {
			return true
		}
	}
	return false
}

// DistortionDetection is one labeled distortion occurrence inside an entry.
type DistortionDetection struct {
	Type       DistortionType `json:"type"`
	Phrase     string         `json:"phrase"`
	Confidence float64        `json:"confidence"`
}

// JournalEntry is one journal entry within a journey. Entries are ordered by
// week, then by intra-week sequence.
type JournalEntry struct {
	Week              int                   `json:"week"`
	Timestamp         time.Time             `json:"timestamp"`
	EntryText         string                `json:"entry_text,omitempty"`
	Distortions       []DistortionDetection `json:"distortions"`
	MeasuredSeverity  float64               `json:"measured_severity"`
	InterventionsUsed []InterventionType    `json:"interventions_used,omitempty"`
	// InterventionActive is derived: true when InterventionsUsed is non-empty.
	InterventionActive bool `json:"intervention_active"`
}

// DistortionTypes returns the distortion labels of the entry in order.
func (e *JournalEntry) DistortionTypes() []DistortionType {
	types := make([]DistortionType, 0, len(e.Distortions))
	for _, d := range e.Distortions {
		types = append(types, d.Type)
	}
	return types
}

// UserJourney is the longitudinal record for one user.
type UserJourney struct {
	UserID                string             `json:"user_id"`
	JourneyType           JourneyType        `json:"journey_type"`
	Entries               []JournalEntry     `json:"entries"`
	InitialSeverity       float64            `json:"initial_severity"`
	FinalSeverity         float64            `json:"final_severity"`
	Improvement           float64            `json:"improvement"`
	AssignedInterventions []InterventionType `json:"assigned_interventions,omitempty"`

	// Synthesis provenance, absent for ingested journeys.
	PrimaryDistortion DistortionType `json:"primary_distortion,omitempty"`
	BaseStatement     string         `json:"base_statement,omitempty"`
	DurationWeeks     int            `json:"duration_weeks,omitempty"`
}

// Finalize derives FinalSeverity and Improvement from the entry sequence.
// A journey with no entries keeps FinalSeverity 0.
func (j *UserJourney) Finalize() {
	if len(j.Entries) > 0 {
		j.FinalSeverity = j.Entries[len(j.Entries)-1].MeasuredSeverity
	} else {
		j.FinalSeverity = 0
	}
	j.Improvement = j.InitialSeverity - j.FinalSeverity
}

// Validate checks the journey invariants: a user ID, a known journey type,
// non-decreasing weeks, and confidence/severity values in [0,1].
func (j *UserJourney) Validate() error {
	if j.UserID == "" {
		return errors.New("journey missing user_id")
	}
	if !IsValidJourneyType(j.JourneyType) {
		return errors.Errorf("journey %s: unknown journey_type %q", j.UserID, j.JourneyType)
	}
	lastWeek := 0
	for i, e := range j.Entries {
		if e.Week < 1 {
			return errors.Errorf("journey %s: entry %d has week %d, want >= 1", j.UserID, i, e.Week)
		}
		if e.Week < lastWeek {
			return errors.Errorf("journey %s: entry %d week %d precedes week %d", j.UserID, i, e.Week, lastWeek)
		}
		lastWeek = e.Week
		if e.MeasuredSeverity < 0 || e.MeasuredSeverity > 1 {
			return errors.Errorf("journey %s: entry %d severity %f out of [0,1]", j.UserID, i, e.MeasuredSeverity)
		}
		for _, d := range e.Distortions {
			if d.Confidence < 0 || d.Confidence > 1 {
				return errors.Errorf("journey %s: entry %d confidence %f out of [0,1]", j.UserID, i, d.Confidence)
			}
		}
		if len(e.InterventionsUsed) > 2 {
			return errors.Errorf("journey %s: entry %d uses %d interventions, max 2", j.UserID, i, len(e.InterventionsUsed))
		}
	}
	return nil
}

// LoadJourneys reads a journey collection from a JSON file.
func LoadJourneys(path string) ([]*UserJourney, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read journeys file %s", path)
	}
	var journeys []*UserJourney
	if err := json.Unmarshal(data, &journeys); err != nil {
		return nil, errors.Wrapf(err, "decode journeys file %s", path)
	}
	for _, j := range journeys {
		if err := j.Validate(); err != nil {
			return nil, err
		}
	}
	return journeys, nil
}

// SaveJourneys writes a journey collection to a JSON file.
func SaveJourneys(path string, journeys []*UserJourney) error {
	data, err := json.MarshalIndent(journeys, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode journeys")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write journeys file %s", path)
	}
	return nil
}
