package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/utils"
)

type stubClassifier struct {
	prediction *core.Prediction
	err        error
	loaded     bool
}

func (s *stubClassifier) Predict(ctx context.Context, text string) (*core.Prediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prediction, nil
}

func (s *stubClassifier) Loaded() bool { return s.loaded }

func (s *stubClassifier) Info() map[string]any {
	return map[string]any{"model": "stub", "status": "loaded"}
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event *core.ClassificationEvent) error {
	return nil
}

func newTestPredictServer(t *testing.T, cls core.Classifier, failThreshold int) (*PredictServer, *breaker.Breaker) {
	t.Helper()

	mlBreaker := breaker.New("ml_prediction", failThreshold, 30*time.Second, zap.NewNop())
	storeBreaker := breaker.New("database", 3, 30*time.Second, zap.NewNop())
	registry := breaker.NewRegistry()
	registry.Register(mlBreaker)
	registry.Register(storeBreaker)

	service := core.NewSpamDetectionService(
		cls, nopPublisher{}, nil, mlBreaker, storeBreaker,
		utils.NewTextNormalizer(zap.NewNop()), zap.NewNop(), core.LabelHam, 0.5)

	return NewPredictServer(":0", service, cls, registry, zap.NewNop()), mlBreaker
}

func doRequest(s *PredictServer, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPredictEndpointSuccess(t *testing.T) {
	cls := &stubClassifier{prediction: &core.Prediction{Classification: core.LabelSpam, Confidence: 0.97}, loaded: true}
	server, _ := newTestPredictServer(t, cls, 5)

	rec := doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":"FREE money now!!!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "spam", body["classification"])
	assert.Equal(t, 0.97, body["confidence"])
	assert.Equal(t, "FREE money now!!!", body["email_text"])
	assert.NotContains(t, body, "submission_id")
}

func TestPredictEndpointTruncatesPreview(t *testing.T) {
	cls := &stubClassifier{prediction: &core.Prediction{Classification: core.LabelHam, Confidence: 0.8}}
	server, _ := newTestPredictServer(t, cls, 5)

	long := strings.Repeat("a", 200)
	rec := doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":"`+long+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Len(t, body["email_text"], 50)
}

func TestPredictEndpointBadRequests(t *testing.T) {
	server, _ := newTestPredictServer(t, &stubClassifier{}, 5)

	rec := doRequest(server, http.MethodPost, "/api/ml/predict", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(server, http.MethodPost, "/api/ml/predict", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictEndpointFailureReturns500(t *testing.T) {
	cls := &stubClassifier{err: &core.PredictionError{Reason: "tokenizer exploded"}}
	server, _ := newTestPredictServer(t, cls, 5)

	rec := doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Prediction failed", body["error"])
	assert.Equal(t, "closed", body["circuit_breaker_status"])
}

func TestPredictEndpointOpenBreakerReturns503(t *testing.T) {
	cls := &stubClassifier{err: &core.PredictionError{Reason: "down"}}
	server, _ := newTestPredictServer(t, cls, 1)

	// First call trips the breaker.
	rec := doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":"hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "OPEN", body["circuit_breaker_status"])
	assert.Equal(t, 30.0, body["retry_after"])
}

func TestPredictEndpointModelUnavailableFallsBack(t *testing.T) {
	cls := &stubClassifier{err: core.ErrModelUnavailable}
	server, mlBreaker := newTestPredictServer(t, cls, 1)

	rec := doRequest(server, http.MethodPost, "/api/ml/predict", `{"email_text":"hello there"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ham", body["classification"])
	assert.Equal(t, 0.5, body["confidence"])

	// The fallback counts as a success; the breaker stays closed.
	assert.Equal(t, "closed", mlBreaker.Status().State)
}

func TestBreakerStatusEndpoint(t *testing.T) {
	server, _ := newTestPredictServer(t, &stubClassifier{}, 5)

	rec := doRequest(server, http.MethodGet, "/api/ml/circuit-breaker-status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Contains(t, body, "ml_prediction")
	require.Contains(t, body, "database")

	status := body["ml_prediction"].(map[string]any)
	assert.Equal(t, "closed", status["state"])
	assert.Equal(t, false, status["is_open"])
	assert.Equal(t, 30.0, status["reset_timeout"])
}

func TestModelInfoEndpoint(t *testing.T) {
	server, _ := newTestPredictServer(t, &stubClassifier{loaded: true}, 5)

	rec := doRequest(server, http.MethodGet, "/api/ml/model-info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stub", decodeBody(t, rec)["model"])
}

func TestPredictHealthEndpoint(t *testing.T) {
	server, _ := newTestPredictServer(t, &stubClassifier{loaded: false}, 5)

	rec := doRequest(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "spam-detection", body["service"])
	assert.Equal(t, false, body["model_loaded"])
}
