// Package model defines the clinical record types shared by the graph
// store, the memory backends, and the ingestion services. Records are
// treated as immutable values once constructed; all identifiers are
// caller-supplied opaque strings.
package model

import "time"

// SourceType identifies where a record was captured from
type SourceType string

const (
	SourceChat     SourceType = "chat"
	SourceReport   SourceType = "report"
	SourceDocument SourceType = "document"
	SourceImport   SourceType = "import"
)

// ActorRole identifies who produced a piece of content
type ActorRole string

const (
	RolePatient   ActorRole = "patient"
	RoleClinician ActorRole = "clinician"
	RoleAssistant ActorRole = "assistant"
	RoleSystem    ActorRole = "system"
)

// RiskLevel grades clinical risk attached to a memory
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ObservationCategory classifies an observation
type ObservationCategory string

const (
	CategoryVital   ObservationCategory = "vital"
	CategoryLab     ObservationCategory = "lab"
	CategoryImaging ObservationCategory = "imaging"
	CategoryNote    ObservationCategory = "note"
)

// MedicationStatus is the prescription state of a medication
type MedicationStatus string

const (
	MedicationActive  MedicationStatus = "active"
	MedicationStopped MedicationStatus = "stopped"
	MedicationUnknown MedicationStatus = "unknown"
)

// DocumentType classifies an ingested document
type DocumentType string

const (
	DocReport       DocumentType = "report"
	DocPrescription DocumentType = "prescription"
	DocLab          DocumentType = "lab"
	DocImaging      DocumentType = "imaging"
	DocDischarge    DocumentType = "discharge"
	DocNote         DocumentType = "note"
	DocOther        DocumentType = "other"
)

// Metadata is the provenance envelope carried by every record
type Metadata struct {
	UserID      string         `json:"user_id,omitempty"`
	PatientID   string         `json:"patient_id,omitempty"`
	EncounterID string         `json:"encounter_id,omitempty"`
	SourceType  SourceType     `json:"source_type,omitempty"`
	SourceID    string         `json:"source_id,omitempty"`
	ActorRole   ActorRole      `json:"actor_role,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	Confidence  *float64       `json:"confidence,omitempty"`
	RiskLevel   RiskLevel      `json:"risk_level,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Flatten merges Extra into a flat map alongside the named fields,
// the shape the memory backends store and filter on
func (m Metadata) Flatten() map[string]any {
	out := make(map[string]any)
	if m.UserID != "" {
		out["user_id"] = m.UserID
	}
	if m.PatientID != "" {
		out["patient_id"] = m.PatientID
	}
	if m.EncounterID != "" {
		out["encounter_id"] = m.EncounterID
	}
	if m.SourceType != "" {
		out["source_type"] = string(m.SourceType)
	}
	if m.SourceID != "" {
		out["source_id"] = m.SourceID
	}
	if m.ActorRole != "" {
		out["actor_role"] = string(m.ActorRole)
	}
	if m.RiskLevel != "" {
		out["risk_level"] = string(m.RiskLevel)
	}
	for k, v := range m.Extra {
		out[k] = v
	}
	return out
}

// PatientProfile is the identity record for a patient
type PatientProfile struct {
	PatientID   string            `json:"patient_id"`
	Name        string            `json:"name,omitempty"`
	DateOfBirth string            `json:"date_of_birth,omitempty"`
	Sex         string            `json:"sex,omitempty"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
	Allergies   []string          `json:"allergies,omitempty"`
	Conditions  []string          `json:"conditions,omitempty"`
	RiskFactors []string          `json:"risk_factors,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Metadata    Metadata          `json:"metadata"`
}

// Encounter records a clinical visit belonging to one patient
type Encounter struct {
	EncounterID    string     `json:"encounter_id"`
	PatientID      string     `json:"patient_id"`
	EncounterType  string     `json:"encounter_type"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ChiefComplaint string     `json:"chief_complaint,omitempty"`
	Assessment     string     `json:"assessment,omitempty"`
	Plan           string     `json:"plan,omitempty"`
	Practitioner   string     `json:"practitioner,omitempty"`
	Facility       string     `json:"facility,omitempty"`
	Metadata       Metadata   `json:"metadata"`
}

// Observation records a single measured or noted finding
type Observation struct {
	ObservationID  string              `json:"observation_id"`
	PatientID      string              `json:"patient_id"`
	EncounterID    string              `json:"encounter_id,omitempty"`
	Category       ObservationCategory `json:"category"`
	Name           string              `json:"name"`
	Value          string              `json:"value,omitempty"`
	ValueNumeric   *float64            `json:"value_numeric,omitempty"`
	Unit           string              `json:"unit,omitempty"`
	ReferenceRange string              `json:"reference_range,omitempty"`
	ObservedAt     *time.Time          `json:"observed_at,omitempty"`
	Metadata       Metadata            `json:"metadata"`
}

// Medication records a prescription for a patient
type Medication struct {
	MedicationID string           `json:"medication_id"`
	PatientID    string           `json:"patient_id"`
	EncounterID  string           `json:"encounter_id,omitempty"`
	Name         string           `json:"name"`
	Indication   string           `json:"indication,omitempty"`
	Prescriber   string           `json:"prescriber,omitempty"`
	Dose         string           `json:"dose,omitempty"`
	Frequency    string           `json:"frequency,omitempty"`
	Route        string           `json:"route,omitempty"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	Status       MedicationStatus `json:"status"`
	Metadata     Metadata         `json:"metadata"`
}

// Document records an ingested clinical document
type Document struct {
	DocumentID  string       `json:"document_id"`
	PatientID   string       `json:"patient_id"`
	EncounterID string       `json:"encounter_id,omitempty"`
	DocType     DocumentType `json:"doc_type"`
	Title       string       `json:"title,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	SourceURI   string       `json:"source_uri,omitempty"`
	FileHash    string       `json:"file_hash,omitempty"`
	ExtractedAt *time.Time   `json:"extracted_at,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}
