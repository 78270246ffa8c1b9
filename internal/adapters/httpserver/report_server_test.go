package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/membus"
	"github.com/mikey/spam-detector/internal/adapters/store"
	"github.com/mikey/spam-detector/internal/aggregator"
	"github.com/mikey/spam-detector/internal/core"
)

type brokenStore struct{}

func (brokenStore) FindByDate(ctx context.Context, date string) (*core.DailyReport, error) {
	return nil, core.ErrStoreUnavailable
}

func (brokenStore) Upsert(ctx context.Context, report *core.DailyReport) error {
	return core.ErrStoreUnavailable
}

func newTestReportServer(t *testing.T, reports core.ReportStore) *ReportServer {
	t.Helper()

	agg := aggregator.New(membus.New(zap.NewNop()), reports, false, zap.NewNop())
	server := NewReportServer(":0", reports, agg, zap.NewNop())
	server.now = func() time.Time {
		return time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC)
	}
	return server
}

func reportRequest(t *testing.T, s *ReportServer, path string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestDailyReportDefaultsToEmptyDay(t *testing.T) {
	server := newTestReportServer(t, store.NewMemoryStore(zap.NewNop()))

	code, body := reportRequest(t, server, "/api/reports/daily")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2025-12-05", body["date"])
	assert.Equal(t, 0.0, body["total_checked"])
	assert.Equal(t, 0.0, body["spam_count"])
	assert.Equal(t, 0.0, body["spam_percentage"])
}

func TestDailyReportReturnsStoredDay(t *testing.T) {
	reports := store.NewMemoryStore(zap.NewNop())
	now := time.Date(2025, 12, 5, 9, 0, 0, 0, time.UTC)
	report := core.NewDailyReport("2025-12-05", now)
	report.Apply(core.LabelSpam, now)
	report.Apply(core.LabelSpam, now)
	report.Apply(core.LabelHam, now)
	require.NoError(t, reports.Upsert(context.Background(), report))

	server := newTestReportServer(t, reports)

	code, body := reportRequest(t, server, "/api/reports/daily")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2025-12-05", body["date"])
	assert.Equal(t, 3.0, body["total_checked"])
	assert.Equal(t, 2.0, body["spam_count"])
	assert.Equal(t, 1.0, body["ham_count"])
	assert.Equal(t, 66.67, body["spam_percentage"])
}

func TestDailyReportStoreFailureReturns500(t *testing.T) {
	server := newTestReportServer(t, brokenStore{})

	code, body := reportRequest(t, server, "/api/reports/daily")
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to fetch report", body["error"])
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestReportServer(t, store.NewMemoryStore(zap.NewNop()))

	code, body := reportRequest(t, server, "/api/reports/stats")
	require.Equal(t, http.StatusOK, code)

	require.Contains(t, body, "today_report")
	assert.Equal(t, false, body["listener_active"])

	today := body["today_report"].(map[string]any)
	assert.Equal(t, "2025-12-05", today["date"])
}

func TestReportHealthEndpoint(t *testing.T) {
	server := newTestReportServer(t, store.NewMemoryStore(zap.NewNop()))

	code, body := reportRequest(t, server, "/health")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "reporting", body["service"])
	assert.Equal(t, false, body["listener_active"])
	assert.Equal(t, "2025-12-05T10:00:00Z", body["timestamp"])
}
