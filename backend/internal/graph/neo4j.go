package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jcfg "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/errors"
	"askbob-medical/backend/pkg/logger"
)

// Neo4jStore is the networked graph backend. The driver maintains its
// own bounded connection pool; callers may issue concurrent requests up
// to the pool size without external locking. Cancellation and timeouts
// are delegated to the pool's acquisition timeout.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore connects to the configured Neo4j server, verifies
// connectivity and initializes the schema constraints. Constraint
// creation is idempotent; running against an already-initialized
// database is a no-op.
func NewNeo4jStore(ctx context.Context, cfg Config) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URL,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jcfg.Config) {
			if cfg.MaxPool > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPool
			}
			if cfg.AcquireTimeout > 0 {
				c.ConnectionAcquisitionTimeout = cfg.AcquireTimeout
			}
		},
	)
	if err != nil {
		return nil, errors.NewGraphConnectionFailed(cfg.URL, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.NewGraphConnectionFailed(cfg.URL, err)
	}

	s := &Neo4jStore{driver: driver, database: cfg.Database, logger: logger.Get()}
	if err := s.initSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Neo4jStore) initSchema(ctx context.Context) error {
	for _, stmt := range cypherSchemaConstraints {
		if err := s.execWrite(ctx, stmt, nil); err != nil {
			return errors.NewGraphQueryFailed("init schema", err)
		}
	}
	return nil
}

// Close closes the driver and its connection pool
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) execWrite(ctx context.Context, cypher string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, params)
	})
	return err
}

// execWriteMany runs several statements inside one transaction, so the
// entity upsert and its relationship writes land atomically and in
// order.
func (s *Neo4jStore) execWriteMany(ctx context.Context, statements []statement) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range statements {
			if _, err := tx.Run(ctx, st.cypher, st.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

type statement struct {
	cypher string
	params map[string]any
}

func (s *Neo4jStore) fetch(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

// AddPatient upserts the patient node
func (s *Neo4jStore) AddPatient(ctx context.Context, profile model.PatientProfile) error {
	err := s.execWrite(ctx, cypherMergePatient, map[string]any{
		"patient_id":    profile.PatientID,
		"name":          profile.Name,
		"date_of_birth": profile.DateOfBirth,
		"sex":           profile.Sex,
	})
	if err != nil {
		return errors.NewGraphQueryFailed("add patient", err)
	}
	s.logger.Debug("patient upserted", zap.String("patient_id", profile.PatientID))
	return nil
}

// AddEncounter upserts the encounter node and its HAS_ENCOUNTER edge
func (s *Neo4jStore) AddEncounter(ctx context.Context, encounter model.Encounter) error {
	createdAt := encounter.Metadata.CreatedAt
	if createdAt == nil {
		createdAt = encounter.StartTime
	}
	err := s.execWriteMany(ctx, []statement{
		{cypherMergeEncounter, map[string]any{
			"encounter_id":   encounter.EncounterID,
			"encounter_type": encounter.EncounterType,
			"start_time":     timeParam(encounter.StartTime),
			"end_time":       timeParam(encounter.EndTime),
		}},
		{cypherLinkHasEncounter, map[string]any{
			"patient_id":   encounter.PatientID,
			"encounter_id": encounter.EncounterID,
			"created_at":   timeParam(createdAt),
		}},
	})
	if err != nil {
		return errors.NewGraphQueryFailed("add encounter", err)
	}
	return nil
}

// AddObservation upserts the observation node and, when the observation
// references an encounter, its HAS_OBSERVATION edge
func (s *Neo4jStore) AddObservation(ctx context.Context, observation model.Observation) error {
	statements := []statement{
		{cypherMergeObservation, map[string]any{
			"observation_id": observation.ObservationID,
			"category":       string(observation.Category),
			"name":           observation.Name,
			"value":          observation.Value,
			"value_numeric":  floatParam(observation.ValueNumeric),
			"unit":           observation.Unit,
			"observed_at":    timeParam(observation.ObservedAt),
		}},
	}
	if observation.EncounterID != "" {
		statements = append(statements, statement{cypherLinkHasObservation, map[string]any{
			"encounter_id":   observation.EncounterID,
			"observation_id": observation.ObservationID,
		}})
	}
	if err := s.execWriteMany(ctx, statements); err != nil {
		return errors.NewGraphQueryFailed("add observation", err)
	}
	return nil
}

// AddMedication upserts the medication node, the optional encounter
// edge and the patient's TAKES_MEDICATION edge
func (s *Neo4jStore) AddMedication(ctx context.Context, medication model.Medication) error {
	prescribedAt := medication.StartDate
	if prescribedAt == nil {
		prescribedAt = medication.Metadata.CreatedAt
	}
	statements := []statement{
		{cypherMergeMedication, map[string]any{
			"medication_id": medication.MedicationID,
			"name":          medication.Name,
			"indication":    medication.Indication,
			"prescriber":    medication.Prescriber,
			"status":        string(medication.Status),
			"start_date":    timeParam(medication.StartDate),
			"end_date":      timeParam(medication.EndDate),
		}},
	}
	if medication.EncounterID != "" {
		statements = append(statements, statement{cypherLinkHasMedication, map[string]any{
			"encounter_id":  medication.EncounterID,
			"medication_id": medication.MedicationID,
		}})
	}
	statements = append(statements, statement{cypherLinkTakesMedication, map[string]any{
		"patient_id":    medication.PatientID,
		"medication_id": medication.MedicationID,
		"prescribed_at": timeParam(prescribedAt),
		"indication":    medication.Indication,
	}})
	if err := s.execWriteMany(ctx, statements); err != nil {
		return errors.NewGraphQueryFailed("add medication", err)
	}
	return nil
}

// AddDocument upserts the document node and attaches it to its
// encounter, or directly to its patient when no encounter is
// referenced. Never both.
func (s *Neo4jStore) AddDocument(ctx context.Context, document model.Document) error {
	statements := []statement{
		{cypherMergeDocument, map[string]any{
			"document_id":  document.DocumentID,
			"doc_type":     string(document.DocType),
			"title":        document.Title,
			"extracted_at": timeParam(document.ExtractedAt),
		}},
	}
	if document.EncounterID != "" {
		statements = append(statements, statement{cypherLinkHasDocument, map[string]any{
			"encounter_id": document.EncounterID,
			"document_id":  document.DocumentID,
		}})
	} else {
		statements = append(statements, statement{cypherLinkHasDocumentDirect, map[string]any{
			"patient_id":  document.PatientID,
			"document_id": document.DocumentID,
		}})
	}
	if err := s.execWriteMany(ctx, statements); err != nil {
		return errors.NewGraphQueryFailed("add document", err)
	}
	return nil
}

// ActiveMedications returns the patient's medications with status "active"
func (s *Neo4jStore) ActiveMedications(ctx context.Context, patientID string) ([]MedicationRecord, error) {
	records, err := s.fetch(ctx, cypherActiveMedications, map[string]any{
		"patient_id": patientID,
		"status":     string(model.MedicationActive),
	})
	if err != nil {
		return nil, errors.NewGraphQueryFailed("active medications", err)
	}
	medications := make([]MedicationRecord, 0, len(records))
	for _, record := range records {
		medications = append(medications, medicationFromRecord(record))
	}
	return medications, nil
}

// EncounterRecord assembles an encounter and its linked entities. The
// four reads are independent, so they run concurrently; the connection
// pool bounds the fan-out.
func (s *Neo4jStore) EncounterRecord(ctx context.Context, encounterID string) (EncounterRecord, error) {
	params := map[string]any{"encounter_id": encounterID}
	var record EncounterRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.fetch(gctx, cypherEncounterByID, params)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			row := encounterFromRecord(rows[0])
			record.Encounter = &row
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.fetch(gctx, cypherEncounterObservations, params)
		if err != nil {
			return err
		}
		record.Observations = make([]ObservationRecord, 0, len(rows))
		for _, row := range rows {
			record.Observations = append(record.Observations, observationFromRecord(row))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.fetch(gctx, cypherEncounterMedications, params)
		if err != nil {
			return err
		}
		record.Medications = make([]MedicationRecord, 0, len(rows))
		for _, row := range rows {
			record.Medications = append(record.Medications, medicationFromRecord(row))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.fetch(gctx, cypherEncounterDocuments, params)
		if err != nil {
			return err
		}
		record.Documents = make([]DocumentRecord, 0, len(rows))
		for _, row := range rows {
			record.Documents = append(record.Documents, documentFromRecord(row))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return EncounterRecord{}, errors.NewGraphQueryFailed("encounter record", err)
	}
	return record, nil
}

// PatientTimeline merges the three event kinds for a patient
func (s *Neo4jStore) PatientTimeline(ctx context.Context, patientID string, limit int) ([]TimelineEvent, error) {
	params := map[string]any{"patient_id": patientID}
	sources := []struct {
		eventType string
		cypher    string
	}{
		{EventEncounter, cypherTimelineEncounters},
		{EventMedication, cypherTimelineMedications},
		{EventDocument, cypherTimelineDocuments},
	}

	var events []TimelineEvent
	for _, src := range sources {
		rows, err := s.fetch(ctx, src.cypher, params)
		if err != nil {
			return nil, errors.NewGraphQueryFailed(fmt.Sprintf("timeline %s events", src.eventType), err)
		}
		for _, row := range rows {
			events = append(events, TimelineEvent{
				EventType: src.eventType,
				RefID:     recordString(row, "ref_id"),
				EventTime: recordTimePtr(row, "event_time"),
			})
		}
	}
	return sortTimeline(events, limit), nil
}

// MedicationPairs returns each unordered pair of the patient's
// medications exactly once; the WHERE m1 < m2 tie-break in the query
// enforces uniqueness
func (s *Neo4jStore) MedicationPairs(ctx context.Context, patientID string) ([]MedicationPair, error) {
	records, err := s.fetch(ctx, cypherMedicationPairs, map[string]any{"patient_id": patientID})
	if err != nil {
		return nil, errors.NewGraphQueryFailed("medication pairs", err)
	}
	pairs := make([]MedicationPair, 0, len(records))
	for _, record := range records {
		pairs = append(pairs, MedicationPair{
			MedicationAID:   recordString(record, "medication_a_id"),
			MedicationAName: recordString(record, "medication_a_name"),
			MedicationBID:   recordString(record, "medication_b_id"),
			MedicationBName: recordString(record, "medication_b_name"),
		})
	}
	return pairs, nil
}

func medicationFromRecord(record *neo4j.Record) MedicationRecord {
	return MedicationRecord{
		MedicationID: recordString(record, "medication_id"),
		Name:         recordString(record, "name"),
		Indication:   recordString(record, "indication"),
		Prescriber:   recordString(record, "prescriber"),
		Status:       recordString(record, "status"),
		StartDate:    recordTimePtr(record, "start_date"),
		EndDate:      recordTimePtr(record, "end_date"),
	}
}

func observationFromRecord(record *neo4j.Record) ObservationRecord {
	return ObservationRecord{
		ObservationID: recordString(record, "observation_id"),
		Category:      recordString(record, "category"),
		Name:          recordString(record, "name"),
		Value:         recordString(record, "value"),
		ValueNumeric:  recordFloatPtr(record, "value_numeric"),
		Unit:          recordString(record, "unit"),
		ObservedAt:    recordTimePtr(record, "observed_at"),
	}
}

func documentFromRecord(record *neo4j.Record) DocumentRecord {
	return DocumentRecord{
		DocumentID:  recordString(record, "document_id"),
		DocType:     recordString(record, "doc_type"),
		Title:       recordString(record, "title"),
		ExtractedAt: recordTimePtr(record, "extracted_at"),
	}
}

func encounterFromRecord(record *neo4j.Record) EncounterRow {
	return EncounterRow{
		EncounterID:   recordString(record, "encounter_id"),
		EncounterType: recordString(record, "encounter_type"),
		StartTime:     recordTimePtr(record, "start_time"),
		EndTime:       recordTimePtr(record, "end_time"),
	}
}

// Parameter and record coercion helpers. SET with a null parameter
// clears the property, which is exactly the upsert semantics for an
// absent optional field.

func timeParam(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func floatParam(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func recordString(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func recordFloatPtr(record *neo4j.Record, key string) *float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	switch v := val.(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func recordTimePtr(record *neo4j.Record, key string) *time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if t, ok := val.(time.Time); ok {
		return &t
	}
	return nil
}
