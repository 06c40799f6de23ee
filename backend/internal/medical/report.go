package medical

import (
	"context"

	"go.uber.org/zap"

	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/logger"
)

// ReportResult summarizes what a parsed report produced
type ReportResult struct {
	DocumentID   string `json:"document_id"`
	Observations int    `json:"observations"`
}

// ReportService parses reports and stores the results. The graph gets
// the document before its observations so observation sources always
// refer to an existing document node.
type ReportService struct {
	memory memory.Backend
	graph  graph.Store
	parser *ReportParser
	logger *zap.Logger
}

func NewReportService(backend memory.Backend, store graph.Store) *ReportService {
	return &ReportService{
		memory: backend,
		graph:  store,
		parser: NewReportParser(),
		logger: logger.Get(),
	}
}

// ParseAndStore parses the report, writes the document and its
// observations to the graph, then records each as a memory for userID
func (s *ReportService) ParseAndStore(ctx context.Context, userID string, req ParseRequest) (ReportResult, error) {
	document, observations := s.parser.Parse(req)

	if s.graph != nil {
		if err := s.graph.AddDocument(ctx, document); err != nil {
			return ReportResult{}, err
		}
		for _, observation := range observations {
			if err := s.graph.AddObservation(ctx, observation); err != nil {
				return ReportResult{}, err
			}
		}
	}

	docContent := "ReportDocument: " + compactParts([]string{
		"doc_type=" + string(document.DocType),
		nonEmpty("title=", document.Title),
		nonEmpty("summary=", document.Summary),
	})
	docMeta := buildMetadata(userID, model.Metadata{
		PatientID:   req.PatientID,
		EncounterID: req.EncounterID,
		SourceType:  model.SourceReport,
		SourceID:    document.DocumentID,
	})
	if err := s.memory.Add(ctx, assistantMessage(docContent), userID, docMeta); err != nil {
		return ReportResult{}, err
	}

	for _, observation := range observations {
		parts := []string{
			"name=" + observation.Name,
			nonEmpty("value=", observation.Value),
		}
		if observation.ValueNumeric != nil {
			parts = append(parts, "value_numeric="+formatFloat(*observation.ValueNumeric))
		}
		parts = append(parts, nonEmpty("unit=", observation.Unit))

		obsMeta := buildMetadata(userID, model.Metadata{
			PatientID:   req.PatientID,
			EncounterID: req.EncounterID,
			SourceType:  model.SourceReport,
			SourceID:    observation.ObservationID,
		})
		if err := s.memory.Add(ctx, assistantMessage("ReportObservation: "+compactParts(parts)), userID, obsMeta); err != nil {
			return ReportResult{}, err
		}
	}

	s.logger.Info("report stored",
		zap.String("document_id", document.DocumentID),
		zap.Int("observations", len(observations)))
	return ReportResult{DocumentID: document.DocumentID, Observations: len(observations)}, nil
}

func assistantMessage(content string) []memory.Message {
	return []memory.Message{{Role: model.RoleAssistant, Content: content}}
}

// nonEmpty returns prefix+value, or "" when the value is empty so
// compactParts drops the part
func nonEmpty(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}
