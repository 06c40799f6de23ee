package medical

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
)

// recordingStore captures graph writes in call order
type recordingStore struct {
	calls []string
}

func (r *recordingStore) AddPatient(ctx context.Context, p model.PatientProfile) error {
	r.calls = append(r.calls, "patient:"+p.PatientID)
	return nil
}

func (r *recordingStore) AddEncounter(ctx context.Context, e model.Encounter) error {
	r.calls = append(r.calls, "encounter:"+e.EncounterID)
	return nil
}

func (r *recordingStore) AddObservation(ctx context.Context, o model.Observation) error {
	r.calls = append(r.calls, "observation:"+o.Name)
	return nil
}

func (r *recordingStore) AddMedication(ctx context.Context, m model.Medication) error {
	r.calls = append(r.calls, "medication:"+m.MedicationID)
	return nil
}

func (r *recordingStore) AddDocument(ctx context.Context, d model.Document) error {
	r.calls = append(r.calls, "document:"+d.DocumentID)
	return nil
}

func (r *recordingStore) ActiveMedications(ctx context.Context, patientID string) ([]graph.MedicationRecord, error) {
	return nil, nil
}

func (r *recordingStore) EncounterRecord(ctx context.Context, encounterID string) (graph.EncounterRecord, error) {
	return graph.EncounterRecord{}, nil
}

func (r *recordingStore) PatientTimeline(ctx context.Context, patientID string, limit int) ([]graph.TimelineEvent, error) {
	return nil, nil
}

func (r *recordingStore) MedicationPairs(ctx context.Context, patientID string) ([]graph.MedicationPair, error) {
	return nil, nil
}

func (r *recordingStore) Close(ctx context.Context) error { return nil }

func searchAll(t *testing.T, backend memory.Backend, userID string) []memory.Entry {
	t.Helper()
	result, err := backend.Search(context.Background(), memory.SearchParams{
		Query: "", UserID: userID, Limit: 50,
	})
	require.NoError(t, err)
	return result.Results
}

func TestReportService_DocumentWrittenBeforeObservations(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	backend := memory.NewInMemoryBackend()
	service := NewReportService(backend, store)

	result, err := service.ParseAndStore(ctx, "u1", ParseRequest{
		ReportText: "Hemoglobin: 12.3 g/dL\nGlucose: 105 mg/dL",
		PatientID:  "p1",
		DocumentID: "doc_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc_1", result.DocumentID)
	assert.Equal(t, 2, result.Observations)

	require.Len(t, store.calls, 3)
	assert.Equal(t, "document:doc_1", store.calls[0], "document lands before its observations")
	assert.Equal(t, "observation:Hemoglobin", store.calls[1])
	assert.Equal(t, "observation:Glucose", store.calls[2])

	entries := searchAll(t, backend, "u1")
	require.Len(t, entries, 3)
	assert.Contains(t, entries[0].Memory, "ReportDocument: doc_type=lab")
	assert.Contains(t, entries[1].Memory, "ReportObservation: name=Hemoglobin; value=12.3; value_numeric=12.3; unit=g/dL")
}

func TestReportService_WorksWithoutGraph(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewInMemoryBackend()
	service := NewReportService(backend, nil)

	result, err := service.ParseAndStore(ctx, "u1", ParseRequest{
		ReportText: "HbA1c: 7.2 %",
		PatientID:  "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Observations)
	assert.Len(t, searchAll(t, backend, "u1"), 2)
}

func TestHealthRecordService_UpsertProfile(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	backend := memory.NewInMemoryBackend()
	service := NewHealthRecordService(backend, store)

	require.NoError(t, service.UpsertProfile(ctx, "u1", model.PatientProfile{
		PatientID: "p1",
		Name:      "Alice",
		Sex:       "F",
		Allergies: []string{"penicillin", "sulfa"},
	}))

	assert.Equal(t, []string{"patient:p1"}, store.calls)
	entries := searchAll(t, backend, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t, "PatientProfile: name=Alice; sex=F; allergies=penicillin, sulfa", entries[0].Memory)
	assert.Equal(t, "p1", entries[0].Metadata["patient_id"])
	assert.Equal(t, "import", entries[0].Metadata["source_type"])
}

func TestHealthRecordService_AddMedication(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	backend := memory.NewInMemoryBackend()
	service := NewHealthRecordService(backend, store)

	require.NoError(t, service.AddMedication(ctx, "u1", model.Medication{
		MedicationID: "m1",
		PatientID:    "p1",
		Name:         "Metformin",
		Dose:         "500mg",
		Frequency:    "BID",
		Status:       model.MedicationActive,
	}))

	assert.Equal(t, []string{"medication:m1"}, store.calls)
	entries := searchAll(t, backend, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t, "Medication: name=Metformin; dose=500mg; frequency=BID; status=active", entries[0].Memory)
}

func TestConsultationService_SummaryReplacesTranscript(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	backend := memory.NewInMemoryBackend()
	service := NewConsultationService(backend, store)

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, service.LogConsultation(ctx, "u1", ConsultationRequest{
		PatientID:     "p1",
		EncounterID:   "e1",
		EncounterType: "telehealth",
		StartTime:     &start,
		Summary:       "Discussed persistent cough, advised chest x-ray",
		Messages: []memory.Message{
			{Role: model.RolePatient, Content: "I have a cough"},
			{Role: model.RoleAssistant, Content: "How long has it lasted?"},
		},
	}))

	// Patient upsert precedes the encounter so the edge has both endpoints
	assert.Equal(t, []string{"patient:p1", "encounter:e1"}, store.calls)

	entries := searchAll(t, backend, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t, "Discussed persistent cough, advised chest x-ray", entries[0].Memory)
	assert.Equal(t, "telehealth", entries[0].Metadata["encounter_type"])
}

func TestConsultationService_TranscriptWhenNoSummary(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewInMemoryBackend()
	service := NewConsultationService(backend, &recordingStore{})

	require.NoError(t, service.LogConsultation(ctx, "u1", ConsultationRequest{
		PatientID:     "p1",
		EncounterID:   "e1",
		EncounterType: "outpatient",
		Messages: []memory.Message{
			{Role: model.RolePatient, Content: "question"},
			{Role: model.RoleAssistant, Content: "first answer"},
			{Role: model.RoleAssistant, Content: "second answer"},
		},
	}))

	entries := searchAll(t, backend, "u1")
	require.Len(t, entries, 2, "only assistant turns become memories")
}

func TestDocumentInterpreterService_StoreInterpretation(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	backend := memory.NewInMemoryBackend()
	service := NewDocumentInterpreterService(backend, store)

	require.NoError(t, service.StoreInterpretation(ctx, "u1", model.Document{
		DocumentID: "d1",
		PatientID:  "p1",
		DocType:    model.DocImaging,
		Title:      "Chest X-Ray",
	}, "no acute findings", "clear lung fields"))

	assert.Equal(t, []string{"document:d1"}, store.calls)
	entries := searchAll(t, backend, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t,
		"DocumentInterpretation: doc_type=imaging; title=Chest X-Ray; summary=no acute findings; key_findings=clear lung fields",
		entries[0].Memory)
}
