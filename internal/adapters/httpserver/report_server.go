package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/aggregator"
	"github.com/mikey/spam-detector/internal/core"
)

// ReportServer serves the daily report API
type ReportServer struct {
	store  core.ReportStore
	agg    *aggregator.Aggregator
	logger *zap.Logger
	server *http.Server

	now func() time.Time
}

// NewReportServer creates the reporting API server
func NewReportServer(
	listenAddress string,
	store core.ReportStore,
	agg *aggregator.Aggregator,
	logger *zap.Logger,
) *ReportServer {
	s := &ReportServer{
		store:  store,
		agg:    agg,
		logger: logger,
		now:    time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	api := router.Group("/api/reports")
	{
		api.GET("/daily", s.handleDailyReport)
		api.GET("/stats", s.handleStats)
	}

	s.server = &http.Server{
		Addr:    listenAddress,
		Handler: router,
	}
	return s
}

// Start begins serving in a background goroutine
func (s *ReportServer) Start() error {
	go func() {
		s.logger.Info("Reporting API listening", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Reporting API server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down
func (s *ReportServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// todayReport reads the current day's report, substituting the zero-valued
// default when no events have arrived yet. Store failures are not masked as
// empty days.
func (s *ReportServer) todayReport(ctx context.Context) (*core.DailyReport, error) {
	date := core.DayKey(s.now())
	report, err := s.store.FindByDate(ctx, date)
	if errors.Is(err, core.ErrReportNotFound) {
		return core.NewDailyReport(date, s.now().UTC()), nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// handleDailyReport returns today's report
func (s *ReportServer) handleDailyReport(c *gin.Context) {
	report, err := s.todayReport(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to fetch daily report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleStats returns today's report alongside the consumer loop status
func (s *ReportServer) handleStats(c *gin.Context) {
	report, err := s.todayReport(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to fetch daily report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"today_report":    report,
		"listener_active": s.agg.Running(),
	})
}

// handleHealth is the liveness endpoint
func (s *ReportServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"service":         "reporting",
		"listener_active": s.agg.Running(),
		"timestamp":       s.now().UTC().Format(time.RFC3339),
	})
}
