package medical

import (
	"context"
	"time"

	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
)

// ConsultationRequest describes one consultation to record. When
// Summary is set it is stored as the single memory for the encounter;
// otherwise the raw transcript messages are stored.
type ConsultationRequest struct {
	PatientID     string
	EncounterID   string
	EncounterType string
	Messages      []memory.Message
	StartTime     *time.Time
	EndTime       *time.Time
	Summary       string
}

// ConsultationService records a consultation as an encounter node plus
// its transcript (or summary) in memory
type ConsultationService struct {
	memory memory.Backend
	graph  graph.Store
}

func NewConsultationService(backend memory.Backend, store graph.Store) *ConsultationService {
	return &ConsultationService{memory: backend, graph: store}
}

// LogConsultation writes the patient and encounter nodes, then the
// conversational record. The patient upsert guarantees the encounter
// edge has both endpoints.
func (s *ConsultationService) LogConsultation(ctx context.Context, userID string, req ConsultationRequest) error {
	if s.graph != nil {
		if err := s.graph.AddPatient(ctx, model.PatientProfile{PatientID: req.PatientID}); err != nil {
			return err
		}
		encounter := model.Encounter{
			EncounterID:   req.EncounterID,
			PatientID:     req.PatientID,
			EncounterType: req.EncounterType,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Metadata: model.Metadata{
				UserID:      userID,
				PatientID:   req.PatientID,
				EncounterID: req.EncounterID,
			},
		}
		if err := s.graph.AddEncounter(ctx, encounter); err != nil {
			return err
		}
	}

	meta := buildMetadata(userID, model.Metadata{
		PatientID:   req.PatientID,
		EncounterID: req.EncounterID,
		SourceType:  model.SourceChat,
		SourceID:    req.EncounterID,
		Extra:       map[string]any{"encounter_type": req.EncounterType},
	})

	if req.Summary != "" {
		return s.memory.Add(ctx, assistantMessage(req.Summary), userID, meta)
	}
	return s.memory.Add(ctx, req.Messages, userID, meta)
}
