package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"askbob-medical/backend/internal/agent"
	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/medical"
)

// application bundles the handler dependencies. graph may be nil when
// the store is disabled; graph endpoints then answer 503.
type application struct {
	agent   *agent.MemoryAgent
	reports *medical.ReportService
	graph   graph.Store
	logger  *zap.Logger
}

func newRouter(app *application, production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(app.logger))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "graph_enabled": app.graph != nil})
	})

	api := router.Group("/api")
	{
		api.POST("/chat", app.handleChat)
		api.POST("/reports", app.handleReport)

		api.GET("/patients/:id/medications", app.requireGraph(app.handleActiveMedications))
		api.GET("/patients/:id/timeline", app.requireGraph(app.handleTimeline))
		api.GET("/patients/:id/med-pairs", app.requireGraph(app.handleMedicationPairs))
		api.GET("/encounters/:id", app.requireGraph(app.handleEncounter))
	}

	return router
}

// requireGraph answers 503 when the graph store is disabled
func (app *application) requireGraph(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.graph == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store disabled"})
			return
		}
		handler(c)
	}
}

func (app *application) handleChat(c *gin.Context) {
	var req struct {
		Message  string         `json:"message" binding:"required"`
		UserID   string         `json:"user_id"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	result, err := app.agent.Respond(c.Request.Context(), req.UserID, req.Message, agent.RespondOptions{
		Metadata: req.Metadata,
	})
	if err != nil {
		app.logger.Error("Failed to run agent turn", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": result.Content,
		"memories": result.Memories,
	})
}

func (app *application) handleReport(c *gin.Context) {
	var req struct {
		ReportText  string `json:"report_text" binding:"required"`
		PatientID   string `json:"patient_id" binding:"required"`
		UserID      string `json:"user_id"`
		EncounterID string `json:"encounter_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	result, err := app.reports.ParseAndStore(c.Request.Context(), req.UserID, medical.ParseRequest{
		ReportText:  req.ReportText,
		PatientID:   req.PatientID,
		EncounterID: req.EncounterID,
	})
	if err != nil {
		app.logger.Error("Failed to store report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (app *application) handleActiveMedications(c *gin.Context) {
	medications, err := app.graph.ActiveMedications(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.logger.Error("Failed to fetch medications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch medications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": medications})
}

func (app *application) handleTimeline(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	timeline, err := app.graph.PatientTimeline(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		app.logger.Error("Failed to fetch timeline", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch timeline"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeline": timeline})
}

func (app *application) handleMedicationPairs(c *gin.Context) {
	pairs, err := app.graph.MedicationPairs(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.logger.Error("Failed to fetch medication pairs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch medication pairs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

func (app *application) handleEncounter(c *gin.Context) {
	record, err := app.graph.EncounterRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.logger.Error("Failed to fetch encounter", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch encounter"})
		return
	}
	if record.Encounter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Encounter not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
