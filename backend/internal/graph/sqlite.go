package graph

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/errors"
	"askbob-medical/backend/pkg/logger"
)

// SQLiteStore is the embedded single-file graph backend. The engine is
// treated as single-writer: all mutations are serialized behind one
// mutex, while WAL mode keeps concurrent readers safe against the
// in-flight writer.
type SQLiteStore struct {
	writeMu sync.Mutex
	db      *sql.DB
	logger  *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the embedded store at path
// and initializes the schema. Schema creation is IF NOT EXISTS
// throughout; opening an already-initialized file is a no-op.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewGraphConnectionFailed(path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewGraphConnectionFailed(path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewGraphConnectionFailed(path, err)
	}

	for _, pragma := range graphPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.NewGraphConnectionFailed(path, fmt.Errorf("setting pragma: %w", err))
		}
	}
	for _, stmt := range graphSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.NewGraphConnectionFailed(path, fmt.Errorf("creating schema: %w", err))
		}
	}

	return &SQLiteStore{db: db, logger: logger.Get()}, nil
}

// Close closes the database handle
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// exec runs a single write statement under the writer lock
func (s *SQLiteStore) exec(ctx context.Context, operation string, statements []sqlStatement) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewGraphQueryFailed(operation, err)
	}
	for _, st := range statements {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			_ = tx.Rollback()
			return errors.NewGraphQueryFailed(operation, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewGraphQueryFailed(operation, err)
	}
	return nil
}

type sqlStatement struct {
	query string
	args  []any
}

// AddPatient upserts the patient row
func (s *SQLiteStore) AddPatient(ctx context.Context, profile model.PatientProfile) error {
	err := s.exec(ctx, "add patient", []sqlStatement{{
		query: `
			INSERT INTO patients (patient_id, name, date_of_birth, sex)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(patient_id) DO UPDATE SET
			    name = excluded.name,
			    date_of_birth = excluded.date_of_birth,
			    sex = excluded.sex`,
		args: []any{profile.PatientID, profile.Name, profile.DateOfBirth, profile.Sex},
	}})
	if err != nil {
		return err
	}
	s.logger.Debug("patient upserted", zap.String("patient_id", profile.PatientID))
	return nil
}

// AddEncounter upserts the encounter row and its HAS_ENCOUNTER edge.
// The edge insert only fires when both endpoints exist.
func (s *SQLiteStore) AddEncounter(ctx context.Context, encounter model.Encounter) error {
	createdAt := encounter.Metadata.CreatedAt
	if createdAt == nil {
		createdAt = encounter.StartTime
	}
	return s.exec(ctx, "add encounter", []sqlStatement{
		{
			query: `
				INSERT INTO encounters (encounter_id, encounter_type, start_time, end_time)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(encounter_id) DO UPDATE SET
				    encounter_type = excluded.encounter_type,
				    start_time = excluded.start_time,
				    end_time = excluded.end_time`,
			args: []any{encounter.EncounterID, encounter.EncounterType, timeText(encounter.StartTime), timeText(encounter.EndTime)},
		},
		{
			query: `
				INSERT INTO has_encounter (patient_id, encounter_id, created_at)
				SELECT ?, ?, ?
				WHERE EXISTS (SELECT 1 FROM patients WHERE patient_id = ?)
				  AND EXISTS (SELECT 1 FROM encounters WHERE encounter_id = ?)
				ON CONFLICT(patient_id, encounter_id) DO UPDATE SET
				    created_at = excluded.created_at`,
			args: []any{encounter.PatientID, encounter.EncounterID, timeText(createdAt), encounter.PatientID, encounter.EncounterID},
		},
	})
}

// AddObservation upserts the observation row and, when the observation
// references an encounter, its HAS_OBSERVATION edge
func (s *SQLiteStore) AddObservation(ctx context.Context, observation model.Observation) error {
	statements := []sqlStatement{{
		query: `
			INSERT INTO observations (observation_id, category, name, value, value_numeric, unit, observed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(observation_id) DO UPDATE SET
			    category = excluded.category,
			    name = excluded.name,
			    value = excluded.value,
			    value_numeric = excluded.value_numeric,
			    unit = excluded.unit,
			    observed_at = excluded.observed_at`,
		args: []any{
			observation.ObservationID, string(observation.Category), observation.Name,
			observation.Value, floatNull(observation.ValueNumeric), observation.Unit,
			timeText(observation.ObservedAt),
		},
	}}
	if observation.EncounterID != "" {
		statements = append(statements, sqlStatement{
			query: `
				INSERT INTO has_observation (encounter_id, observation_id)
				SELECT ?, ?
				WHERE EXISTS (SELECT 1 FROM encounters WHERE encounter_id = ?)
				  AND EXISTS (SELECT 1 FROM observations WHERE observation_id = ?)
				ON CONFLICT(encounter_id, observation_id) DO NOTHING`,
			args: []any{observation.EncounterID, observation.ObservationID, observation.EncounterID, observation.ObservationID},
		})
	}
	return s.exec(ctx, "add observation", statements)
}

// AddMedication upserts the medication row, the optional encounter edge
// and the patient's TAKES_MEDICATION edge
func (s *SQLiteStore) AddMedication(ctx context.Context, medication model.Medication) error {
	prescribedAt := medication.StartDate
	if prescribedAt == nil {
		prescribedAt = medication.Metadata.CreatedAt
	}
	statements := []sqlStatement{{
		query: `
			INSERT INTO medications (medication_id, name, indication, prescriber, status, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(medication_id) DO UPDATE SET
			    name = excluded.name,
			    indication = excluded.indication,
			    prescriber = excluded.prescriber,
			    status = excluded.status,
			    start_date = excluded.start_date,
			    end_date = excluded.end_date`,
		args: []any{
			medication.MedicationID, medication.Name, medication.Indication,
			medication.Prescriber, string(medication.Status),
			timeText(medication.StartDate), timeText(medication.EndDate),
		},
	}}
	if medication.EncounterID != "" {
		statements = append(statements, sqlStatement{
			query: `
				INSERT INTO has_medication (encounter_id, medication_id)
				SELECT ?, ?
				WHERE EXISTS (SELECT 1 FROM encounters WHERE encounter_id = ?)
				  AND EXISTS (SELECT 1 FROM medications WHERE medication_id = ?)
				ON CONFLICT(encounter_id, medication_id) DO NOTHING`,
			args: []any{medication.EncounterID, medication.MedicationID, medication.EncounterID, medication.MedicationID},
		})
	}
	statements = append(statements, sqlStatement{
		query: `
			INSERT INTO takes_medication (patient_id, medication_id, prescribed_at, indication)
			SELECT ?, ?, ?, ?
			WHERE EXISTS (SELECT 1 FROM patients WHERE patient_id = ?)
			  AND EXISTS (SELECT 1 FROM medications WHERE medication_id = ?)
			ON CONFLICT(patient_id, medication_id) DO UPDATE SET
			    prescribed_at = excluded.prescribed_at,
			    indication = excluded.indication`,
		args: []any{
			medication.PatientID, medication.MedicationID, timeText(prescribedAt),
			medication.Indication, medication.PatientID, medication.MedicationID,
		},
	})
	return s.exec(ctx, "add medication", statements)
}

// AddDocument upserts the document row and attaches it to its
// encounter, or directly to its patient when no encounter is
// referenced. Never both.
func (s *SQLiteStore) AddDocument(ctx context.Context, document model.Document) error {
	statements := []sqlStatement{{
		query: `
			INSERT INTO documents (document_id, doc_type, title, extracted_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(document_id) DO UPDATE SET
			    doc_type = excluded.doc_type,
			    title = excluded.title,
			    extracted_at = excluded.extracted_at`,
		args: []any{document.DocumentID, string(document.DocType), document.Title, timeText(document.ExtractedAt)},
	}}
	if document.EncounterID != "" {
		statements = append(statements, sqlStatement{
			query: `
				INSERT INTO has_document (encounter_id, document_id)
				SELECT ?, ?
				WHERE EXISTS (SELECT 1 FROM encounters WHERE encounter_id = ?)
				  AND EXISTS (SELECT 1 FROM documents WHERE document_id = ?)
				ON CONFLICT(encounter_id, document_id) DO NOTHING`,
			args: []any{document.EncounterID, document.DocumentID, document.EncounterID, document.DocumentID},
		})
	} else {
		statements = append(statements, sqlStatement{
			query: `
				INSERT INTO has_document_direct (patient_id, document_id)
				SELECT ?, ?
				WHERE EXISTS (SELECT 1 FROM patients WHERE patient_id = ?)
				  AND EXISTS (SELECT 1 FROM documents WHERE document_id = ?)
				ON CONFLICT(patient_id, document_id) DO NOTHING`,
			args: []any{document.PatientID, document.DocumentID, document.PatientID, document.DocumentID},
		})
	}
	return s.exec(ctx, "add document", statements)
}

// ActiveMedications returns the patient's medications with status "active"
func (s *SQLiteStore) ActiveMedications(ctx context.Context, patientID string) ([]MedicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.medication_id, m.name, m.indication, m.prescriber, m.status, m.start_date, m.end_date
		FROM takes_medication t
		JOIN medications m ON m.medication_id = t.medication_id
		WHERE t.patient_id = ? AND m.status = ?`,
		patientID, string(model.MedicationActive),
	)
	if err != nil {
		return nil, errors.NewGraphQueryFailed("active medications", err)
	}
	defer rows.Close()
	return scanMedications(rows)
}

// EncounterRecord assembles an encounter and its linked entities
func (s *SQLiteStore) EncounterRecord(ctx context.Context, encounterID string) (EncounterRecord, error) {
	var record EncounterRecord

	var encounterType sql.NullString
	var startTime, endTime sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT encounter_type, start_time, end_time
		FROM encounters WHERE encounter_id = ?`, encounterID,
	).Scan(&encounterType, &startTime, &endTime)
	switch {
	case err == sql.ErrNoRows:
		// Unknown encounter: nil Encounter plus empty lists, not an error
	case err != nil:
		return EncounterRecord{}, errors.NewGraphQueryFailed("encounter record", err)
	default:
		record.Encounter = &EncounterRow{
			EncounterID:   encounterID,
			EncounterType: encounterType.String,
			StartTime:     parseTimeText(startTime),
			EndTime:       parseTimeText(endTime),
		}
	}

	obsRows, err := s.db.QueryContext(ctx, `
		SELECT o.observation_id, o.category, o.name, o.value, o.value_numeric, o.unit, o.observed_at
		FROM has_observation h
		JOIN observations o ON o.observation_id = h.observation_id
		WHERE h.encounter_id = ?`, encounterID,
	)
	if err != nil {
		return EncounterRecord{}, errors.NewGraphQueryFailed("encounter observations", err)
	}
	record.Observations, err = scanObservations(obsRows)
	if err != nil {
		return EncounterRecord{}, err
	}

	medRows, err := s.db.QueryContext(ctx, `
		SELECT m.medication_id, m.name, m.indication, m.prescriber, m.status, m.start_date, m.end_date
		FROM has_medication h
		JOIN medications m ON m.medication_id = h.medication_id
		WHERE h.encounter_id = ?`, encounterID,
	)
	if err != nil {
		return EncounterRecord{}, errors.NewGraphQueryFailed("encounter medications", err)
	}
	record.Medications, err = scanMedications(medRows)
	if err != nil {
		return EncounterRecord{}, err
	}

	docRows, err := s.db.QueryContext(ctx, `
		SELECT d.document_id, d.doc_type, d.title, d.extracted_at
		FROM has_document h
		JOIN documents d ON d.document_id = h.document_id
		WHERE h.encounter_id = ?`, encounterID,
	)
	if err != nil {
		return EncounterRecord{}, errors.NewGraphQueryFailed("encounter documents", err)
	}
	record.Documents, err = scanDocuments(docRows)
	if err != nil {
		return EncounterRecord{}, err
	}

	return record, nil
}

// PatientTimeline merges the three event kinds for a patient
func (s *SQLiteStore) PatientTimeline(ctx context.Context, patientID string, limit int) ([]TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ? AS event_type, e.encounter_id AS ref_id, e.start_time AS event_time
		FROM has_encounter h
		JOIN encounters e ON e.encounter_id = h.encounter_id
		WHERE h.patient_id = ?
		UNION ALL
		SELECT ?, m.medication_id, m.start_date
		FROM takes_medication t
		JOIN medications m ON m.medication_id = t.medication_id
		WHERE t.patient_id = ?
		UNION ALL
		SELECT ?, d.document_id, d.extracted_at
		FROM has_document_direct h
		JOIN documents d ON d.document_id = h.document_id
		WHERE h.patient_id = ?`,
		EventEncounter, patientID,
		EventMedication, patientID,
		EventDocument, patientID,
	)
	if err != nil {
		return nil, errors.NewGraphQueryFailed("patient timeline", err)
	}
	defer rows.Close()

	var events []TimelineEvent
	for rows.Next() {
		var eventType, refID string
		var eventTime sql.NullString
		if err := rows.Scan(&eventType, &refID, &eventTime); err != nil {
			return nil, errors.NewGraphQueryFailed("patient timeline", err)
		}
		events = append(events, TimelineEvent{
			EventType: eventType,
			RefID:     refID,
			EventTime: parseTimeText(eventTime),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("patient timeline", err)
	}
	return sortTimeline(events, limit), nil
}

// MedicationPairs returns each unordered pair of the patient's
// medications exactly once; the m1 < m2 join condition enforces
// uniqueness
func (s *SQLiteStore) MedicationPairs(ctx context.Context, patientID string) ([]MedicationPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m1.medication_id, m1.name, m2.medication_id, m2.name
		FROM takes_medication t1
		JOIN takes_medication t2
		  ON t2.patient_id = t1.patient_id
		JOIN medications m1 ON m1.medication_id = t1.medication_id
		JOIN medications m2 ON m2.medication_id = t2.medication_id
		WHERE t1.patient_id = ? AND m1.medication_id < m2.medication_id`,
		patientID,
	)
	if err != nil {
		return nil, errors.NewGraphQueryFailed("medication pairs", err)
	}
	defer rows.Close()

	var pairs []MedicationPair
	for rows.Next() {
		var pair MedicationPair
		var nameA, nameB sql.NullString
		if err := rows.Scan(&pair.MedicationAID, &nameA, &pair.MedicationBID, &nameB); err != nil {
			return nil, errors.NewGraphQueryFailed("medication pairs", err)
		}
		pair.MedicationAName = nameA.String
		pair.MedicationBName = nameB.String
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("medication pairs", err)
	}
	if pairs == nil {
		pairs = []MedicationPair{}
	}
	return pairs, nil
}

func scanMedications(rows *sql.Rows) ([]MedicationRecord, error) {
	defer rows.Close()
	medications := []MedicationRecord{}
	for rows.Next() {
		var m MedicationRecord
		var indication, prescriber, status sql.NullString
		var startDate, endDate sql.NullString
		if err := rows.Scan(&m.MedicationID, &m.Name, &indication, &prescriber, &status, &startDate, &endDate); err != nil {
			return nil, errors.NewGraphQueryFailed("scan medication", err)
		}
		m.Indication = indication.String
		m.Prescriber = prescriber.String
		m.Status = status.String
		m.StartDate = parseTimeText(startDate)
		m.EndDate = parseTimeText(endDate)
		medications = append(medications, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("scan medication", err)
	}
	return medications, nil
}

func scanObservations(rows *sql.Rows) ([]ObservationRecord, error) {
	defer rows.Close()
	observations := []ObservationRecord{}
	for rows.Next() {
		var o ObservationRecord
		var value, unit, observedAt sql.NullString
		var valueNumeric sql.NullFloat64
		if err := rows.Scan(&o.ObservationID, &o.Category, &o.Name, &value, &valueNumeric, &unit, &observedAt); err != nil {
			return nil, errors.NewGraphQueryFailed("scan observation", err)
		}
		o.Value = value.String
		if valueNumeric.Valid {
			o.ValueNumeric = &valueNumeric.Float64
		}
		o.Unit = unit.String
		o.ObservedAt = parseTimeText(observedAt)
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("scan observation", err)
	}
	return observations, nil
}

func scanDocuments(rows *sql.Rows) ([]DocumentRecord, error) {
	defer rows.Close()
	documents := []DocumentRecord{}
	for rows.Next() {
		var d DocumentRecord
		var title, extractedAt sql.NullString
		if err := rows.Scan(&d.DocumentID, &d.DocType, &title, &extractedAt); err != nil {
			return nil, errors.NewGraphQueryFailed("scan document", err)
		}
		d.Title = title.String
		d.ExtractedAt = parseTimeText(extractedAt)
		documents = append(documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("scan document", err)
	}
	return documents, nil
}

// Timestamps are stored as RFC 3339 text, NULL when absent

func timeText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func floatNull(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func parseTimeText(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
