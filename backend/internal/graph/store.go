// Package graph persists the clinical record graph (patients,
// encounters, observations, medications, documents and their
// relationships) behind a provider-agnostic Store interface with two
// interchangeable backends: an embedded single-file SQLite engine and a
// networked Neo4j engine. Both enforce the same schema and query
// semantics; callers never see engine-specific handles.
package graph

import (
	"context"
	"time"

	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/config"
	"askbob-medical/backend/pkg/errors"
)

// Provider selectors
const (
	ProviderSQLite = "sqlite"
	ProviderNeo4j  = "neo4j"
)

// Store is the capability contract every graph backend implements.
// Every Add* call upserts the entity first and then any relationship
// implied by its foreign references; invoking it twice with the same
// entity leaves the graph in the same state as once. Reads return plain
// records and treat unknown IDs as empty results, never as errors.
type Store interface {
	AddPatient(ctx context.Context, profile model.PatientProfile) error
	AddEncounter(ctx context.Context, encounter model.Encounter) error
	AddObservation(ctx context.Context, observation model.Observation) error
	AddMedication(ctx context.Context, medication model.Medication) error
	AddDocument(ctx context.Context, document model.Document) error

	// ActiveMedications returns all medications the patient takes whose
	// status is "active". Order is unspecified.
	ActiveMedications(ctx context.Context, patientID string) ([]MedicationRecord, error)

	// EncounterRecord returns one encounter plus everything directly
	// linked to it; Encounter is nil for an unknown ID.
	EncounterRecord(ctx context.Context, encounterID string) (EncounterRecord, error)

	// PatientTimeline merges encounter starts, medication start dates
	// and directly attached document extraction times, newest first,
	// missing timestamps last, truncated to limit.
	PatientTimeline(ctx context.Context, patientID string, limit int) ([]TimelineEvent, error)

	// MedicationPairs returns every unordered pair of distinct
	// medications the patient takes, each reported exactly once with
	// the lexically smaller medication ID first.
	MedicationPairs(ctx context.Context, patientID string) ([]MedicationPair, error)

	// Close releases underlying connections. Best-effort cleanup; safe
	// to call once.
	Close(ctx context.Context) error
}

// Config selects and parameterizes a graph backend
type Config struct {
	Provider string
	Enabled  bool

	// Embedded engine
	Path string

	// Networked engine
	URL            string
	Username       string
	Password       string
	Database       string
	MaxPool        int
	AcquireTimeout time.Duration
}

// FromAppConfig extracts the graph store settings from the application
// configuration
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		Provider:       cfg.GraphProvider,
		Enabled:        cfg.GraphEnabled,
		Path:           cfg.GraphPath,
		URL:            cfg.Neo4jURL,
		Username:       cfg.Neo4jUser,
		Password:       cfg.Neo4jPassword,
		Database:       cfg.Neo4jDatabase,
		MaxPool:        cfg.Neo4jMaxPool,
		AcquireTimeout: cfg.Neo4jAcquireTimeout,
	}
}

// Open constructs the configured graph backend. A disabled store opens
// as nil without error; missing or invalid provider configuration fails
// here, before any store exists.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Provider {
	case ProviderSQLite:
		if cfg.Path == "" {
			return nil, errors.NewConfigMissingRequired("ASKBOB_GRAPH_PATH")
		}
		return NewSQLiteStore(ctx, cfg.Path)
	case ProviderNeo4j:
		if cfg.URL == "" {
			return nil, errors.NewConfigMissingRequired("ASKBOB_NEO4J_URL")
		}
		if cfg.Username == "" {
			return nil, errors.NewConfigMissingRequired("ASKBOB_NEO4J_USERNAME")
		}
		if cfg.Password == "" {
			return nil, errors.NewConfigMissingRequired("ASKBOB_NEO4J_PASSWORD")
		}
		return NewNeo4jStore(ctx, cfg)
	default:
		return nil, errors.NewUnsupportedProvider(cfg.Provider)
	}
}
