package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askbob-medical/backend/internal/agent"
	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/medical"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/logger"
)

// echoLLM returns a canned answer without any network calls
type echoLLM struct{}

func (echoLLM) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return "echo: " + userMessage, nil
}

func newTestApp(t *testing.T, withGraph bool) *application {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var store graph.Store
	if withGraph {
		s, err := graph.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close(context.Background()) })
		store = s
	}

	backend := memory.NewInMemoryBackend()
	return &application{
		agent:   agent.NewMemoryAgent(backend, echoLLM{}),
		reports: medical.NewReportService(backend, store),
		graph:   store,
		logger:  logger.Get(),
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newRouter(newTestApp(t, true), false)

	w := doJSON(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, true, response["graph_enabled"])
}

func TestChatEndpoint(t *testing.T) {
	router := newRouter(newTestApp(t, false), false)

	w := doJSON(t, router, "POST", "/api/chat", `{"message":"hello","user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "echo: hello", response["response"])
}

func TestChatEndpoint_InvalidRequest(t *testing.T) {
	router := newRouter(newTestApp(t, false), false)

	w := doJSON(t, router, "POST", "/api/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	app := newTestApp(t, true)
	router := newRouter(app, false)

	w := doJSON(t, router, "POST", "/api/reports",
		`{"report_text":"Hemoglobin: 12.3 g/dL","patient_id":"p1","user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Status string               `json:"status"`
		Data   medical.ReportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
	assert.Equal(t, 1, response.Data.Observations)
	assert.NotEmpty(t, response.Data.DocumentID)
}

func TestReportEndpoint_MissingPatientID(t *testing.T) {
	router := newRouter(newTestApp(t, true), false)

	w := doJSON(t, router, "POST", "/api/reports", `{"report_text":"HbA1c: 7.2 %"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphEndpoints_DisabledStore(t *testing.T) {
	router := newRouter(newTestApp(t, false), false)

	for _, path := range []string{
		"/api/patients/p1/medications",
		"/api/patients/p1/timeline",
		"/api/patients/p1/med-pairs",
		"/api/encounters/e1",
	} {
		w := doJSON(t, router, "GET", path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestMedicationsEndpoint(t *testing.T) {
	app := newTestApp(t, true)
	router := newRouter(app, false)

	ctx := context.Background()
	require.NoError(t, app.graph.AddPatient(ctx, model.PatientProfile{PatientID: "p1"}))
	require.NoError(t, app.graph.AddMedication(ctx, model.Medication{
		MedicationID: "m1", PatientID: "p1", Name: "Metformin", Status: model.MedicationActive,
	}))

	w := doJSON(t, router, "GET", "/api/patients/p1/medications", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Medications []graph.MedicationRecord `json:"medications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Medications, 1)
	assert.Equal(t, "Metformin", response.Medications[0].Name)
}

func TestEncounterEndpoint_NotFound(t *testing.T) {
	router := newRouter(newTestApp(t, true), false)

	w := doJSON(t, router, "GET", "/api/encounters/absent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimelineEndpoint_BadLimit(t *testing.T) {
	router := newRouter(newTestApp(t, true), false)

	w := doJSON(t, router, "GET", "/api/patients/p1/timeline?limit=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
