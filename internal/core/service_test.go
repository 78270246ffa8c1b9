package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/utils"
)

type stubClassifier struct {
	predict func(ctx context.Context, text string) (*Prediction, error)
	calls   int
}

func (s *stubClassifier) Predict(ctx context.Context, text string) (*Prediction, error) {
	s.calls++
	return s.predict(ctx, text)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []*ClassificationEvent
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, event *ClassificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubSubmissions struct {
	err error
}

func (s *stubSubmissions) RecordSubmission(ctx context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "sub-123", nil
}

func newTestService(classifier Classifier, publisher EventPublisher, submissions SubmissionStore) *SpamDetectionService {
	logger := zap.NewNop()
	return NewSpamDetectionService(
		classifier,
		publisher,
		submissions,
		breaker.New("ml_prediction", 5, time.Minute, logger),
		breaker.New("database", 3, 30*time.Second, logger),
		utils.NewTextNormalizer(logger),
		logger,
		LabelHam,
		0.5,
	)
}

func TestPredictPublishesEvent(t *testing.T) {
	classifier := &stubClassifier{
		predict: func(ctx context.Context, text string) (*Prediction, error) {
			return &Prediction{Classification: LabelSpam, Confidence: 0.9}, nil
		},
	}
	publisher := &capturePublisher{}
	service := newTestService(classifier, publisher, &stubSubmissions{})

	result, err := service.Predict(context.Background(), "WIN a FREE prize now!!!")
	require.NoError(t, err)

	assert.Equal(t, LabelSpam, result.Classification)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, "sub-123", result.SubmissionID)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, LabelSpam, event.Classification)
	assert.Equal(t, 0.9, event.Confidence)
	assert.Equal(t, "sub-123", event.SubmissionID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPredictDependencyFailureNoEvent(t *testing.T) {
	classifier := &stubClassifier{
		predict: func(ctx context.Context, text string) (*Prediction, error) {
			return nil, &PredictionError{Reason: "model exploded"}
		},
	}
	publisher := &capturePublisher{}
	service := newTestService(classifier, publisher, &stubSubmissions{})

	_, err := service.Predict(context.Background(), "some text")
	require.Error(t, err)

	var openErr *breaker.OpenError
	assert.False(t, errors.As(err, &openErr), "a dependency failure is not a breaker rejection")
	assert.Empty(t, publisher.events)
}

func TestPredictModelUnavailableFallback(t *testing.T) {
	classifier := &stubClassifier{
		predict: func(ctx context.Context, text string) (*Prediction, error) {
			return nil, ErrModelUnavailable
		},
	}
	publisher := &capturePublisher{}
	service := newTestService(classifier, publisher, &stubSubmissions{})

	result, err := service.Predict(context.Background(), "some text")
	require.NoError(t, err)

	assert.Equal(t, LabelHam, result.Classification)
	assert.Equal(t, 0.5, result.Confidence)

	// The fallback counts as a success: the breaker stays closed.
	assert.Equal(t, "closed", service.MLBreakerStatus().State)
	assert.Equal(t, 0, service.MLBreakerStatus().FailureCount)
	assert.Len(t, publisher.events, 1)
}

func TestPredictBreakerOpensAfterThreshold(t *testing.T) {
	classifier := &stubClassifier{
		predict: func(ctx context.Context, text string) (*Prediction, error) {
			return nil, &PredictionError{Reason: "down"}
		},
	}
	service := newTestService(classifier, &capturePublisher{}, nil)

	for i := 0; i < 5; i++ {
		_, err := service.Predict(context.Background(), "text")
		require.Error(t, err)
	}
	assert.Equal(t, 5, classifier.calls)

	// The sixth call is rejected without invoking the classifier.
	_, err := service.Predict(context.Background(), "text")
	var openErr *breaker.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, 5, classifier.calls)
}

func TestPredictPublishFailureNonFatal(t *testing.T) {
	classifier := &stubClassifier{
		predict: func(ctx context.Context, text string) (*Prediction, error) {
			return &Prediction{Classification: LabelHam, Confidence: 0.8}, nil
		},
	}
	publisher := &capturePublisher{err: errors.New("transport down")}
	service := newTestService(classifier, publisher, &stubSubmissions{})

	result, err := service.Predict(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, LabelHam, result.Classification)
}

func TestPredictSubmissionFailureNonFatal(t *testing.T) {
	classifier := &stubClassifier{
		predict: func(ctx context.Context, text string) (*Prediction, error) {
			return &Prediction{Classification: LabelHam, Confidence: 0.8}, nil
		},
	}
	publisher := &capturePublisher{}
	service := newTestService(classifier, publisher, &stubSubmissions{err: errors.New("db down")})

	result, err := service.Predict(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Empty(t, result.SubmissionID)

	require.Len(t, publisher.events, 1)
	assert.Empty(t, publisher.events[0].SubmissionID)
}
