package medical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"askbob-medical/backend/internal/model"
)

// valuePattern splits a reading into its leading numeric value and a
// trailing unit, e.g. "5.6 mmol/L". Lines whose value does not start
// with a number keep the raw text and get no numeric value.
var valuePattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*(.*)$`)

const summaryMaxLen = 500

// ParseRequest describes one report to parse. DocumentID is generated
// when empty; DocType defaults to lab.
type ParseRequest struct {
	ReportText  string
	PatientID   string
	EncounterID string
	DocumentID  string
	DocType     model.DocumentType
	SourceURI   string
	ExtractedAt *time.Time
}

// ReportParser extracts lab observations from plain-text reports. One
// observation per "name: value unit" line; anything else is skipped.
type ReportParser struct{}

func NewReportParser() *ReportParser {
	return &ReportParser{}
}

// Parse turns the report text into a document plus its observations.
// Every observation carries the document ID as its source.
func (p *ReportParser) Parse(req ParseRequest) (model.Document, []model.Observation) {
	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}
	docType := req.DocType
	if docType == "" {
		docType = model.DocLab
	}

	var observations []model.Observation
	for _, line := range strings.Split(req.ReportText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ":") {
			continue
		}
		name, rawValue, _ := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		rawValue = strings.TrimSpace(rawValue)
		if name == "" || rawValue == "" {
			continue
		}

		value := rawValue
		var valueNumeric *float64
		var unit string
		if match := valuePattern.FindStringSubmatch(rawValue); match != nil {
			value = match[1]
			unit = strings.TrimSpace(match[2])
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				valueNumeric = &parsed
			}
		}

		observations = append(observations, model.Observation{
			ObservationID: uuid.NewString(),
			PatientID:     req.PatientID,
			EncounterID:   req.EncounterID,
			Category:      model.CategoryLab,
			Name:          name,
			Value:         value,
			ValueNumeric:  valueNumeric,
			Unit:          unit,
			ObservedAt:    req.ExtractedAt,
			Metadata: model.Metadata{
				PatientID:   req.PatientID,
				EncounterID: req.EncounterID,
				SourceType:  model.SourceReport,
				SourceID:    documentID,
			},
		})
	}

	summary := strings.TrimSpace(req.ReportText)
	if runes := []rune(summary); len(runes) > summaryMaxLen {
		summary = string(runes[:summaryMaxLen])
	}

	document := model.Document{
		DocumentID:  documentID,
		PatientID:   req.PatientID,
		EncounterID: req.EncounterID,
		DocType:     docType,
		Title:       fmt.Sprintf("%s report", docType),
		Summary:     summary,
		SourceURI:   req.SourceURI,
		ExtractedAt: req.ExtractedAt,
		Metadata: model.Metadata{
			PatientID:   req.PatientID,
			EncounterID: req.EncounterID,
			SourceType:  model.SourceReport,
			SourceID:    documentID,
		},
	}
	return document, observations
}
