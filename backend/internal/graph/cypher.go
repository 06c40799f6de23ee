package graph

// Cypher statements for the networked engine. Writes are MERGE-based
// upserts keyed on the stable entity ID; relationship statements MATCH
// both endpoints first, so a link is only ever created between nodes
// that already exist.

const cypherMergePatient = `
MERGE (p:Patient {patient_id: $patient_id})
SET p.name = $name,
    p.date_of_birth = $date_of_birth,
    p.sex = $sex`

const cypherMergeEncounter = `
MERGE (e:Encounter {encounter_id: $encounter_id})
SET e.encounter_type = $encounter_type,
    e.start_time = $start_time,
    e.end_time = $end_time`

const cypherLinkHasEncounter = `
MATCH (p:Patient {patient_id: $patient_id})
MATCH (e:Encounter {encounter_id: $encounter_id})
MERGE (p)-[r:HAS_ENCOUNTER]->(e)
SET r.created_at = $created_at`

const cypherMergeObservation = `
MERGE (o:Observation {observation_id: $observation_id})
SET o.category = $category,
    o.name = $name,
    o.value = $value,
    o.value_numeric = $value_numeric,
    o.unit = $unit,
    o.observed_at = $observed_at`

const cypherLinkHasObservation = `
MATCH (e:Encounter {encounter_id: $encounter_id})
MATCH (o:Observation {observation_id: $observation_id})
MERGE (e)-[:HAS_OBSERVATION]->(o)`

const cypherMergeMedication = `
MERGE (m:Medication {medication_id: $medication_id})
SET m.name = $name,
    m.indication = $indication,
    m.prescriber = $prescriber,
    m.status = $status,
    m.start_date = $start_date,
    m.end_date = $end_date`

const cypherLinkHasMedication = `
MATCH (e:Encounter {encounter_id: $encounter_id})
MATCH (m:Medication {medication_id: $medication_id})
MERGE (e)-[:HAS_MEDICATION]->(m)`

const cypherLinkTakesMedication = `
MATCH (p:Patient {patient_id: $patient_id})
MATCH (m:Medication {medication_id: $medication_id})
MERGE (p)-[r:TAKES_MEDICATION]->(m)
SET r.prescribed_at = $prescribed_at,
    r.indication = $indication`

const cypherMergeDocument = `
MERGE (d:Document {document_id: $document_id})
SET d.doc_type = $doc_type,
    d.title = $title,
    d.extracted_at = $extracted_at`

const cypherLinkHasDocument = `
MATCH (e:Encounter {encounter_id: $encounter_id})
MATCH (d:Document {document_id: $document_id})
MERGE (e)-[:HAS_DOCUMENT]->(d)`

const cypherLinkHasDocumentDirect = `
MATCH (p:Patient {patient_id: $patient_id})
MATCH (d:Document {document_id: $document_id})
MERGE (p)-[:HAS_DOCUMENT_DIRECT]->(d)`

const cypherActiveMedications = `
MATCH (p:Patient {patient_id: $patient_id})-[:TAKES_MEDICATION]->(m:Medication)
WHERE m.status = $status
RETURN m.medication_id AS medication_id,
       m.name AS name,
       m.indication AS indication,
       m.prescriber AS prescriber,
       m.status AS status,
       m.start_date AS start_date,
       m.end_date AS end_date`

const cypherEncounterByID = `
MATCH (e:Encounter {encounter_id: $encounter_id})
RETURN e.encounter_id AS encounter_id,
       e.encounter_type AS encounter_type,
       e.start_time AS start_time,
       e.end_time AS end_time`

const cypherEncounterObservations = `
MATCH (e:Encounter {encounter_id: $encounter_id})-[:HAS_OBSERVATION]->(o:Observation)
RETURN o.observation_id AS observation_id,
       o.category AS category,
       o.name AS name,
       o.value AS value,
       o.value_numeric AS value_numeric,
       o.unit AS unit,
       o.observed_at AS observed_at`

const cypherEncounterMedications = `
MATCH (e:Encounter {encounter_id: $encounter_id})-[:HAS_MEDICATION]->(m:Medication)
RETURN m.medication_id AS medication_id,
       m.name AS name,
       m.indication AS indication,
       m.prescriber AS prescriber,
       m.status AS status,
       m.start_date AS start_date,
       m.end_date AS end_date`

const cypherEncounterDocuments = `
MATCH (e:Encounter {encounter_id: $encounter_id})-[:HAS_DOCUMENT]->(d:Document)
RETURN d.document_id AS document_id,
       d.doc_type AS doc_type,
       d.title AS title,
       d.extracted_at AS extracted_at`

// Timeline reads fetch the three event kinds separately; merging,
// ordering and truncation happen in sortTimeline so both providers
// agree on null handling.

const cypherTimelineEncounters = `
MATCH (p:Patient {patient_id: $patient_id})-[:HAS_ENCOUNTER]->(e:Encounter)
RETURN e.encounter_id AS ref_id, e.start_time AS event_time`

const cypherTimelineMedications = `
MATCH (p:Patient {patient_id: $patient_id})-[:TAKES_MEDICATION]->(m:Medication)
RETURN m.medication_id AS ref_id, m.start_date AS event_time`

const cypherTimelineDocuments = `
MATCH (p:Patient {patient_id: $patient_id})-[:HAS_DOCUMENT_DIRECT]->(d:Document)
RETURN d.document_id AS ref_id, d.extracted_at AS event_time`

const cypherMedicationPairs = `
MATCH (p:Patient {patient_id: $patient_id})-[:TAKES_MEDICATION]->(m1:Medication)
MATCH (p)-[:TAKES_MEDICATION]->(m2:Medication)
WHERE m1.medication_id < m2.medication_id
RETURN m1.medication_id AS medication_a_id,
       m1.name AS medication_a_name,
       m2.medication_id AS medication_b_id,
       m2.name AS medication_b_name`

// Schema constraints, idempotent by construction
var cypherSchemaConstraints = []string{
	`CREATE CONSTRAINT patient_id IF NOT EXISTS FOR (p:Patient) REQUIRE p.patient_id IS UNIQUE`,
	`CREATE CONSTRAINT encounter_id IF NOT EXISTS FOR (e:Encounter) REQUIRE e.encounter_id IS UNIQUE`,
	`CREATE CONSTRAINT observation_id IF NOT EXISTS FOR (o:Observation) REQUIRE o.observation_id IS UNIQUE`,
	`CREATE CONSTRAINT medication_id IF NOT EXISTS FOR (m:Medication) REQUIRE m.medication_id IS UNIQUE`,
	`CREATE CONSTRAINT document_id IF NOT EXISTS FOR (d:Document) REQUIRE d.document_id IS UNIQUE`,
}
