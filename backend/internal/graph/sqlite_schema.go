package graph

// Relational encoding of the clinical graph for the embedded engine:
// one table per node type keyed by the stable entity ID, one table per
// relationship type keyed by its endpoint pair. Upserts land on the
// primary keys; relationship inserts are guarded so an edge is only
// created when both endpoints already exist, matching the MATCH/MERGE
// behavior of the networked engine.

const schemaPatients = `
CREATE TABLE IF NOT EXISTS patients (
    patient_id TEXT PRIMARY KEY,
    name TEXT,
    date_of_birth TEXT,
    sex TEXT
)`

const schemaEncounters = `
CREATE TABLE IF NOT EXISTS encounters (
    encounter_id TEXT PRIMARY KEY,
    encounter_type TEXT,
    start_time TEXT,
    end_time TEXT
)`

const schemaObservations = `
CREATE TABLE IF NOT EXISTS observations (
    observation_id TEXT PRIMARY KEY,
    category TEXT,
    name TEXT,
    value TEXT,
    value_numeric REAL,
    unit TEXT,
    observed_at TEXT
)`

const schemaMedications = `
CREATE TABLE IF NOT EXISTS medications (
    medication_id TEXT PRIMARY KEY,
    name TEXT,
    indication TEXT,
    prescriber TEXT,
    status TEXT,
    start_date TEXT,
    end_date TEXT
)`

const schemaDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    document_id TEXT PRIMARY KEY,
    doc_type TEXT,
    title TEXT,
    extracted_at TEXT
)`

const schemaHasEncounter = `
CREATE TABLE IF NOT EXISTS has_encounter (
    patient_id TEXT NOT NULL,
    encounter_id TEXT NOT NULL,
    created_at TEXT,
    PRIMARY KEY (patient_id, encounter_id)
)`

const schemaHasObservation = `
CREATE TABLE IF NOT EXISTS has_observation (
    encounter_id TEXT NOT NULL,
    observation_id TEXT NOT NULL,
    PRIMARY KEY (encounter_id, observation_id)
)`

const schemaHasMedication = `
CREATE TABLE IF NOT EXISTS has_medication (
    encounter_id TEXT NOT NULL,
    medication_id TEXT NOT NULL,
    PRIMARY KEY (encounter_id, medication_id)
)`

const schemaHasDocument = `
CREATE TABLE IF NOT EXISTS has_document (
    encounter_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    PRIMARY KEY (encounter_id, document_id)
)`

const schemaHasDocumentDirect = `
CREATE TABLE IF NOT EXISTS has_document_direct (
    patient_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    PRIMARY KEY (patient_id, document_id)
)`

const schemaTakesMedication = `
CREATE TABLE IF NOT EXISTS takes_medication (
    patient_id TEXT NOT NULL,
    medication_id TEXT NOT NULL,
    prescribed_at TEXT,
    indication TEXT,
    PRIMARY KEY (patient_id, medication_id)
)`

const indexHasEncounterEncounter = `CREATE INDEX IF NOT EXISTS idx_has_encounter_encounter ON has_encounter(encounter_id)`
const indexHasObservationObservation = `CREATE INDEX IF NOT EXISTS idx_has_observation_observation ON has_observation(observation_id)`
const indexHasMedicationMedication = `CREATE INDEX IF NOT EXISTS idx_has_medication_medication ON has_medication(medication_id)`
const indexHasDocumentDocument = `CREATE INDEX IF NOT EXISTS idx_has_document_document ON has_document(document_id)`
const indexHasDocumentDirectDocument = `CREATE INDEX IF NOT EXISTS idx_has_document_direct_document ON has_document_direct(document_id)`
const indexTakesMedicationMedication = `CREATE INDEX IF NOT EXISTS idx_takes_medication_medication ON takes_medication(medication_id)`

const pragmaWAL = `PRAGMA journal_mode=WAL`
const pragmaBusyTimeout = `PRAGMA busy_timeout=5000`
const pragmaSynchronous = `PRAGMA synchronous=NORMAL`

// graphSchemaStatements returns all schema DDL in order
func graphSchemaStatements() []string {
	return []string{
		schemaPatients,
		schemaEncounters,
		schemaObservations,
		schemaMedications,
		schemaDocuments,
		schemaHasEncounter,
		schemaHasObservation,
		schemaHasMedication,
		schemaHasDocument,
		schemaHasDocumentDirect,
		schemaTakesMedication,
		indexHasEncounterEncounter,
		indexHasObservationObservation,
		indexHasMedicationMedication,
		indexHasDocumentDocument,
		indexHasDocumentDirectDocument,
		indexTakesMedicationMedication,
	}
}

// graphPragmas returns all pragma statements
func graphPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}
