// Package httpserver exposes the prediction and reporting HTTP APIs
package httpserver

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/utils"
)

const previewLength = 50

// PredictServer serves the spam prediction API
type PredictServer struct {
	service    *core.SpamDetectionService
	classifier core.Classifier
	registry   *breaker.Registry
	logger     *zap.Logger
	server     *http.Server
}

// predictRequest is the body of a prediction call
type predictRequest struct {
	EmailText string `json:"email_text"`
}

// NewPredictServer creates the prediction API server
func NewPredictServer(
	listenAddress string,
	service *core.SpamDetectionService,
	classifier core.Classifier,
	registry *breaker.Registry,
	logger *zap.Logger,
) *PredictServer {
	s := &PredictServer{
		service:    service,
		classifier: classifier,
		registry:   registry,
		logger:     logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	api := router.Group("/api/ml")
	{
		api.POST("/predict", s.handlePredict)
		api.GET("/circuit-breaker-status", s.handleBreakerStatus)
		api.GET("/model-info", s.handleModelInfo)
	}

	s.server = &http.Server{
		Addr:    listenAddress,
		Handler: router,
	}
	return s
}

// Start begins serving in a background goroutine
func (s *PredictServer) Start() error {
	go func() {
		s.logger.Info("Prediction API listening", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Prediction API server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down
func (s *PredictServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handlePredict classifies the submitted text. Breaker rejection and
// prediction failure are distinct caller-visible conditions: 503 with a
// retry hint versus 500.
func (s *PredictServer) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email_text field"})
		return
	}
	if req.EmailText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email_text cannot be empty"})
		return
	}

	result, err := s.service.Predict(c.Request.Context(), req.EmailText)
	if err != nil {
		var openErr *breaker.OpenError
		if errors.As(err, &openErr) {
			s.logger.Warn("Prediction rejected, circuit breaker open",
				zap.String("breaker", openErr.Name),
				zap.Duration("retry_after", openErr.RetryAfter))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":                  "Prediction service temporarily unavailable",
				"retry_after":            int(math.Ceil(openErr.RetryAfter.Seconds())),
				"circuit_breaker_status": "OPEN",
			})
			return
		}

		s.logger.Error("Prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":                  "Prediction failed",
			"circuit_breaker_status": s.service.MLBreakerStatus().State,
		})
		return
	}

	response := gin.H{
		"email_text":     utils.TruncatePreview(req.EmailText, previewLength),
		"classification": result.Classification,
		"confidence":     result.Confidence,
	}
	if result.SubmissionID != "" {
		response["submission_id"] = result.SubmissionID
	}
	c.JSON(http.StatusOK, response)
}

// handleBreakerStatus reports every registered breaker without mutating any
func (s *PredictServer) handleBreakerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.StatusAll())
}

// handleModelInfo reports classifier metadata when the adapter exposes it
func (s *PredictServer) handleModelInfo(c *gin.Context) {
	if provider, ok := s.classifier.(interface{ Info() map[string]any }); ok {
		c.JSON(http.StatusOK, provider.Info())
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": "external", "status": "loaded"})
}

// handleHealth is the liveness endpoint
func (s *PredictServer) handleHealth(c *gin.Context) {
	modelLoaded := true
	if provider, ok := s.classifier.(interface{ Loaded() bool }); ok {
		modelLoaded = provider.Loaded()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"service":      "spam-detection",
		"model_loaded": modelLoaded,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}
