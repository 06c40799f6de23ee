package medical

import (
	"context"

	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
)

// DocumentInterpreterService stores an interpretation of a document
// (typically LLM-produced) alongside the document itself
type DocumentInterpreterService struct {
	memory memory.Backend
	graph  graph.Store
}

func NewDocumentInterpreterService(backend memory.Backend, store graph.Store) *DocumentInterpreterService {
	return &DocumentInterpreterService{memory: backend, graph: store}
}

// StoreInterpretation writes the document node and records the
// interpretation summary and key findings as one memory
func (s *DocumentInterpreterService) StoreInterpretation(ctx context.Context, userID string, document model.Document, summary, keyFindings string) error {
	if s.graph != nil {
		if err := s.graph.AddDocument(ctx, document); err != nil {
			return err
		}
	}

	content := "DocumentInterpretation: " + compactParts([]string{
		"doc_type=" + string(document.DocType),
		nonEmpty("title=", document.Title),
		"summary=" + summary,
		nonEmpty("key_findings=", keyFindings),
	})
	meta := buildMetadata(userID, model.Metadata{
		PatientID:   document.PatientID,
		EncounterID: document.EncounterID,
		SourceType:  model.SourceDocument,
		SourceID:    document.DocumentID,
	})
	return s.memory.Add(ctx, assistantMessage(content), userID, meta)
}
