// Seeds the graph store with a demo patient record so the API and CLI
// have something to query. Safe to run repeatedly; every write is an
// upsert. Run with: go run ./backend/scripts
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/config"
	"askbob-medical/backend/pkg/logger"
)

func main() {
	patientID := flag.String("patient-id", "demo-patient", "Patient ID to seed")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graph seeding...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	store, err := graph.Open(ctx, graph.FromAppConfig(cfg))
	if err != nil {
		log.Fatal("Failed to open graph store", zap.Error(err))
	}
	if store == nil {
		log.Fatal("Graph store is disabled; set ASKBOB_GRAPH_ENABLED=1")
	}
	defer store.Close(ctx)

	if err := seed(ctx, store, *patientID); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	timeline, err := store.PatientTimeline(ctx, *patientID, 50)
	if err != nil {
		log.Fatal("Failed to verify seeded data", zap.Error(err))
	}

	log.Info("Graph seeded successfully",
		zap.String("patient_id", *patientID),
		zap.Int("timeline_events", len(timeline)))
}

func seed(ctx context.Context, store graph.Store, patientID string) error {
	encounterStart := time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	encounterEnd := encounterStart.Add(45 * time.Minute)
	medStart := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	hba1c := 7.8

	if err := store.AddPatient(ctx, model.PatientProfile{
		PatientID:   patientID,
		Name:        "Demo Patient",
		DateOfBirth: "1968-03-14",
		Sex:         "M",
		Allergies:   []string{"penicillin"},
		Conditions:  []string{"type 2 diabetes", "hypertension"},
	}); err != nil {
		return err
	}

	if err := store.AddEncounter(ctx, model.Encounter{
		EncounterID:    patientID + "-enc-1",
		PatientID:      patientID,
		EncounterType:  "outpatient",
		StartTime:      &encounterStart,
		EndTime:        &encounterEnd,
		ChiefComplaint: "routine diabetes follow-up",
		Assessment:     "glycemic control suboptimal",
		Plan:           "increase metformin, recheck HbA1c in 3 months",
	}); err != nil {
		return err
	}

	if err := store.AddObservation(ctx, model.Observation{
		ObservationID: patientID + "-obs-1",
		PatientID:     patientID,
		EncounterID:   patientID + "-enc-1",
		Category:      model.CategoryLab,
		Name:          "HbA1c",
		Value:         "7.8",
		ValueNumeric:  &hba1c,
		Unit:          "%",
		ObservedAt:    &encounterStart,
	}); err != nil {
		return err
	}

	medications := []model.Medication{
		{
			MedicationID: patientID + "-med-1",
			PatientID:    patientID,
			EncounterID:  patientID + "-enc-1",
			Name:         "Metformin",
			Dose:         "1000mg",
			Frequency:    "BID",
			Route:        "oral",
			Status:       model.MedicationActive,
			StartDate:    &medStart,
		},
		{
			MedicationID: patientID + "-med-2",
			PatientID:    patientID,
			Name:         "Lisinopril",
			Dose:         "10mg",
			Frequency:    "QD",
			Route:        "oral",
			Status:       model.MedicationActive,
		},
	}
	for _, medication := range medications {
		if err := store.AddMedication(ctx, medication); err != nil {
			return err
		}
	}

	return store.AddDocument(ctx, model.Document{
		DocumentID:  patientID + "-doc-1",
		PatientID:   patientID,
		EncounterID: patientID + "-enc-1",
		DocType:     model.DocLab,
		Title:       "lab report",
		Summary:     "HbA1c: 7.8 %",
		ExtractedAt: &encounterStart,
	})
}
