package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// MemoryStore is an in-memory implementation of the ReportStore and
// SubmissionStore interfaces
type MemoryStore struct {
	mu          sync.RWMutex
	reports     map[string]*core.DailyReport
	submissions map[string]string
	logger      *zap.Logger
}

// NewMemoryStore creates a new in-memory report store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		reports:     make(map[string]*core.DailyReport),
		submissions: make(map[string]string),
		logger:      logger,
	}
}

// FindByDate retrieves the report for a calendar day
func (s *MemoryStore) FindByDate(ctx context.Context, date string) (*core.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[date]
	if !ok {
		return nil, core.ErrReportNotFound
	}

	// Copy so callers never mutate the stored record.
	clone := *report
	return &clone, nil
}

// Upsert replaces the report for its day
func (s *MemoryStore) Upsert(ctx context.Context, report *core.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *report
	s.reports[report.Date] = &clone
	return nil
}

// IncrementCounters atomically folds one classification into a day's report
func (s *MemoryStore) IncrementCounters(ctx context.Context, date string, classification string) (*core.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	report, ok := s.reports[date]
	if !ok {
		report = core.NewDailyReport(date, now)
		s.reports[date] = report
	}
	report.Apply(classification, now)

	clone := *report
	return &clone, nil
}

// RecordSubmission persists a submission and returns its identifier
func (s *MemoryStore) RecordSubmission(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.submissions[id] = text
	return id, nil
}
