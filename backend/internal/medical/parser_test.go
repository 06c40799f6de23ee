package medical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askbob-medical/backend/internal/model"
)

func TestReportParser_Parse(t *testing.T) {
	parser := NewReportParser()
	extractedAt := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	reportText := "Hemoglobin: 12.3 g/dL\nGlucose: 105 mg/dL\nNote: Normal"
	document, observations := parser.Parse(ParseRequest{
		ReportText:  reportText,
		PatientID:   "patient_1",
		EncounterID: "enc_1",
		DocumentID:  "doc_1",
		DocType:     model.DocLab,
		ExtractedAt: &extractedAt,
	})

	assert.Equal(t, "doc_1", document.DocumentID)
	assert.Equal(t, model.DocLab, document.DocType)
	assert.Equal(t, "lab report", document.Title)
	assert.Equal(t, reportText, document.Summary)

	require.Len(t, observations, 3)
	for _, obs := range observations {
		assert.Equal(t, model.CategoryLab, obs.Category)
		assert.Equal(t, "doc_1", obs.Metadata.SourceID)
		assert.NotEmpty(t, obs.ObservationID)
	}

	assert.Equal(t, "Hemoglobin", observations[0].Name)
	assert.Equal(t, "12.3", observations[0].Value)
	assert.Equal(t, "g/dL", observations[0].Unit)
	require.NotNil(t, observations[0].ValueNumeric)
	assert.Equal(t, 12.3, *observations[0].ValueNumeric)

	// "Note: Normal" has no leading number: raw value, no numeric, no unit
	assert.Equal(t, "Note", observations[2].Name)
	assert.Equal(t, "Normal", observations[2].Value)
	assert.Nil(t, observations[2].ValueNumeric)
	assert.Empty(t, observations[2].Unit)
}

func TestReportParser_SkipsUnparsableLines(t *testing.T) {
	parser := NewReportParser()

	_, observations := parser.Parse(ParseRequest{
		ReportText: "no colon on this line\n\n: missing name\nname only:   \nHbA1c: 7.2 %",
		PatientID:  "p1",
	})

	require.Len(t, observations, 1)
	assert.Equal(t, "HbA1c", observations[0].Name)
	assert.Equal(t, "%", observations[0].Unit)
}

func TestReportParser_NegativeValue(t *testing.T) {
	parser := NewReportParser()

	_, observations := parser.Parse(ParseRequest{
		ReportText: "Base excess: -2.5 mmol/L",
		PatientID:  "p1",
	})

	require.Len(t, observations, 1)
	assert.Equal(t, "-2.5", observations[0].Value)
	require.NotNil(t, observations[0].ValueNumeric)
	assert.Equal(t, -2.5, *observations[0].ValueNumeric)
	assert.Equal(t, "mmol/L", observations[0].Unit)
}

func TestReportParser_ValueWithoutUnit(t *testing.T) {
	parser := NewReportParser()

	_, observations := parser.Parse(ParseRequest{
		ReportText: "WBC: 6",
		PatientID:  "p1",
	})

	require.Len(t, observations, 1)
	assert.Equal(t, "6", observations[0].Value)
	assert.Empty(t, observations[0].Unit)
	require.NotNil(t, observations[0].ValueNumeric)
	assert.Equal(t, 6.0, *observations[0].ValueNumeric)
}

func TestReportParser_GeneratesDocumentID(t *testing.T) {
	parser := NewReportParser()

	document, _ := parser.Parse(ParseRequest{ReportText: "", PatientID: "p1"})
	assert.NotEmpty(t, document.DocumentID)
	assert.Equal(t, model.DocLab, document.DocType, "doc type defaults to lab")
}

func TestReportParser_SummaryTruncated(t *testing.T) {
	parser := NewReportParser()

	document, _ := parser.Parse(ParseRequest{
		ReportText: strings.Repeat("x", 600),
		PatientID:  "p1",
	})
	assert.Len(t, document.Summary, 500)
}
