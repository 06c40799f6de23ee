package graph

import (
	"sort"
	"time"
)

// MedicationRecord is the plain medication row returned by read queries
type MedicationRecord struct {
	MedicationID string     `json:"medication_id"`
	Name         string     `json:"name"`
	Indication   string     `json:"indication,omitempty"`
	Prescriber   string     `json:"prescriber,omitempty"`
	Status       string     `json:"status"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// ObservationRecord is the plain observation row returned by read queries
type ObservationRecord struct {
	ObservationID string     `json:"observation_id"`
	Category      string     `json:"category"`
	Name          string     `json:"name"`
	Value         string     `json:"value,omitempty"`
	ValueNumeric  *float64   `json:"value_numeric,omitempty"`
	Unit          string     `json:"unit,omitempty"`
	ObservedAt    *time.Time `json:"observed_at,omitempty"`
}

// DocumentRecord is the plain document row returned by read queries
type DocumentRecord struct {
	DocumentID  string     `json:"document_id"`
	DocType     string     `json:"doc_type"`
	Title       string     `json:"title,omitempty"`
	ExtractedAt *time.Time `json:"extracted_at,omitempty"`
}

// EncounterRow is the plain encounter row returned by read queries
type EncounterRow struct {
	EncounterID   string     `json:"encounter_id"`
	EncounterType string     `json:"encounter_type"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

// EncounterRecord bundles an encounter with everything directly linked
// to it. Encounter is nil when the ID does not exist; that is not an
// error condition.
type EncounterRecord struct {
	Encounter    *EncounterRow       `json:"encounter"`
	Observations []ObservationRecord `json:"observations"`
	Medications  []MedicationRecord  `json:"medications"`
	Documents    []DocumentRecord    `json:"documents"`
}

// Timeline event kinds
const (
	EventEncounter  = "encounter"
	EventMedication = "medication"
	EventDocument   = "document"
)

// TimelineEvent is one entry in a patient timeline
type TimelineEvent struct {
	EventType string     `json:"event_type"`
	RefID     string     `json:"ref_id"`
	EventTime *time.Time `json:"event_time,omitempty"`
}

// MedicationPair is an unordered pair of distinct medications a patient
// takes, reported once with MedicationAID < MedicationBID under plain
// string ordering
type MedicationPair struct {
	MedicationAID   string `json:"medication_a_id"`
	MedicationAName string `json:"medication_a_name"`
	MedicationBID   string `json:"medication_b_id"`
	MedicationBName string `json:"medication_b_name"`
}

// DefaultTimelineLimit applies when a caller passes a non-positive limit
const DefaultTimelineLimit = 200

// sortTimeline orders events by event time descending with missing
// times sorted last, then truncates to limit. Result shaping lives
// here, in one place, so both providers return identical orderings;
// engines disagree on where NULL sorts in a descending ORDER BY.
func sortTimeline(events []TimelineEvent, limit int) []TimelineEvent {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].EventTime, events[j].EventTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events
}
