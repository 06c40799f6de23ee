package medical

import (
	"context"
	"strings"

	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
)

// HealthRecordService writes individual record entities to the graph
// and mirrors each as a readable memory line
type HealthRecordService struct {
	memory memory.Backend
	graph  graph.Store
}

func NewHealthRecordService(backend memory.Backend, store graph.Store) *HealthRecordService {
	return &HealthRecordService{memory: backend, graph: store}
}

// UpsertProfile stores the patient identity record
func (s *HealthRecordService) UpsertProfile(ctx context.Context, userID string, profile model.PatientProfile) error {
	if s.graph != nil {
		if err := s.graph.AddPatient(ctx, profile); err != nil {
			return err
		}
	}

	content := "PatientProfile: " + compactParts([]string{
		nonEmpty("name=", profile.Name),
		nonEmpty("dob=", profile.DateOfBirth),
		nonEmpty("sex=", profile.Sex),
		nonEmpty("allergies=", strings.Join(profile.Allergies, ", ")),
		nonEmpty("conditions=", strings.Join(profile.Conditions, ", ")),
		nonEmpty("risk_factors=", strings.Join(profile.RiskFactors, ", ")),
		nonEmpty("summary=", profile.Summary),
	})
	meta := buildMetadata(userID, model.Metadata{
		PatientID:  profile.PatientID,
		SourceType: model.SourceImport,
		SourceID:   profile.PatientID,
	})
	return s.memory.Add(ctx, assistantMessage(content), userID, meta)
}

// AddObservation stores one finding
func (s *HealthRecordService) AddObservation(ctx context.Context, userID string, observation model.Observation) error {
	if s.graph != nil {
		if err := s.graph.AddObservation(ctx, observation); err != nil {
			return err
		}
	}

	parts := []string{
		"category=" + string(observation.Category),
		"name=" + observation.Name,
		nonEmpty("value=", observation.Value),
	}
	if observation.ValueNumeric != nil {
		parts = append(parts, "value_numeric="+formatFloat(*observation.ValueNumeric))
	}
	parts = append(parts, nonEmpty("unit=", observation.Unit))
	if observation.ObservedAt != nil {
		parts = append(parts, "observed_at="+formatTime(*observation.ObservedAt))
	}

	meta := buildMetadata(userID, model.Metadata{
		PatientID:   observation.PatientID,
		EncounterID: observation.EncounterID,
		SourceType:  model.SourceReport,
		SourceID:    observation.ObservationID,
	})
	return s.memory.Add(ctx, assistantMessage("Observation: "+compactParts(parts)), userID, meta)
}

// AddMedication stores one prescription
func (s *HealthRecordService) AddMedication(ctx context.Context, userID string, medication model.Medication) error {
	if s.graph != nil {
		if err := s.graph.AddMedication(ctx, medication); err != nil {
			return err
		}
	}

	parts := []string{
		"name=" + medication.Name,
		nonEmpty("indication=", medication.Indication),
		nonEmpty("prescriber=", medication.Prescriber),
		nonEmpty("dose=", medication.Dose),
		nonEmpty("frequency=", medication.Frequency),
		nonEmpty("route=", medication.Route),
		"status=" + string(medication.Status),
	}
	if medication.StartDate != nil {
		parts = append(parts, "start_date="+formatTime(*medication.StartDate))
	}
	if medication.EndDate != nil {
		parts = append(parts, "end_date="+formatTime(*medication.EndDate))
	}

	meta := buildMetadata(userID, model.Metadata{
		PatientID:   medication.PatientID,
		EncounterID: medication.EncounterID,
		SourceType:  model.SourceImport,
		SourceID:    medication.MedicationID,
	})
	return s.memory.Add(ctx, assistantMessage("Medication: "+compactParts(parts)), userID, meta)
}

// AddDocument stores one document. summary overrides the document's
// own summary in the memory line when non-empty.
func (s *HealthRecordService) AddDocument(ctx context.Context, userID string, document model.Document, summary string) error {
	if s.graph != nil {
		if err := s.graph.AddDocument(ctx, document); err != nil {
			return err
		}
	}

	if summary == "" {
		summary = document.Summary
	}
	parts := []string{
		"doc_type=" + string(document.DocType),
		nonEmpty("title=", document.Title),
		nonEmpty("summary=", summary),
		nonEmpty("source_uri=", document.SourceURI),
	}
	if document.ExtractedAt != nil {
		parts = append(parts, "extracted_at="+formatTime(*document.ExtractedAt))
	}

	meta := buildMetadata(userID, model.Metadata{
		PatientID:   document.PatientID,
		EncounterID: document.EncounterID,
		SourceType:  model.SourceDocument,
		SourceID:    document.DocumentID,
	})
	return s.memory.Add(ctx, assistantMessage("Document: "+compactParts(parts)), userID, meta)
}
