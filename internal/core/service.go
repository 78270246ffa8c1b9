package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/utils"
)

// SpamDetectionService is the core service for spam prediction. The
// classifier call runs behind its own circuit breaker, submission recording
// behind another; event publication is fire-and-forget.
type SpamDetectionService struct {
	classifier        Classifier
	publisher         EventPublisher
	submissions       SubmissionStore
	mlBreaker         *breaker.Breaker
	storeBreaker      *breaker.Breaker
	normalizer        *utils.TextNormalizer
	logger            *zap.Logger
	defaultLabel      string
	defaultConfidence float64
}

// NewSpamDetectionService creates a new spam detection service. submissions
// may be nil, in which case requests are not recorded.
func NewSpamDetectionService(
	classifier Classifier,
	publisher EventPublisher,
	submissions SubmissionStore,
	mlBreaker *breaker.Breaker,
	storeBreaker *breaker.Breaker,
	normalizer *utils.TextNormalizer,
	logger *zap.Logger,
	defaultLabel string,
	defaultConfidence float64,
) *SpamDetectionService {
	return &SpamDetectionService{
		classifier:        classifier,
		publisher:         publisher,
		submissions:       submissions,
		mlBreaker:         mlBreaker,
		storeBreaker:      storeBreaker,
		normalizer:        normalizer,
		logger:            logger,
		defaultLabel:      defaultLabel,
		defaultConfidence: defaultConfidence,
	}
}

// Predict classifies the given text. A *breaker.OpenError means the
// prediction dependency is cooling down and the caller should retry later;
// any other error is a failure of the prediction itself.
func (s *SpamDetectionService) Predict(ctx context.Context, text string) (*PredictionResult, error) {
	normalized := s.normalizer.Normalize(text)

	prediction, err := breaker.Do(ctx, s.mlBreaker, func(ctx context.Context) (*Prediction, error) {
		p, err := s.classifier.Predict(ctx, normalized)
		if errors.Is(err, ErrModelUnavailable) {
			// Documented fallback: a conservative default verdict instead
			// of failing the request when no model artifact is loaded.
			s.logger.Warn("Classifier model unavailable, returning default prediction",
				zap.String("default_label", s.defaultLabel))
			return &Prediction{
				Classification: s.defaultLabel,
				Confidence:     s.defaultConfidence,
			}, nil
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}

	result := &PredictionResult{
		Classification: prediction.Classification,
		Confidence:     prediction.Confidence,
		PredictedAt:    time.Now().UTC(),
	}

	result.SubmissionID = s.recordSubmission(ctx, text)
	s.publishEvent(ctx, result)

	return result, nil
}

// recordSubmission persists the raw text best-effort behind the database
// breaker; a failure never affects the prediction response
func (s *SpamDetectionService) recordSubmission(ctx context.Context, text string) string {
	if s.submissions == nil {
		return ""
	}

	id, err := breaker.Do(ctx, s.storeBreaker, func(ctx context.Context) (string, error) {
		return s.submissions.RecordSubmission(ctx, text)
	})
	if err != nil {
		s.logger.Warn("Failed to record submission", zap.Error(err))
		return ""
	}

	s.logger.Debug("Submission recorded", zap.String("submission_id", id))
	return id
}

// publishEvent emits the classification event. Publish failures are logged
// and dropped; the response to the caller never waits on aggregation.
func (s *SpamDetectionService) publishEvent(ctx context.Context, result *PredictionResult) {
	event := &ClassificationEvent{
		Classification: result.Classification,
		Confidence:     result.Confidence,
		SubmissionID:   result.SubmissionID,
		Timestamp:      result.PredictedAt,
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish classification event",
			zap.Error(err),
			zap.String("classification", event.Classification))
		return
	}

	s.logger.Debug("Published classification event",
		zap.String("classification", event.Classification),
		zap.Float64("confidence", event.Confidence))
}

// MLBreakerStatus returns the prediction breaker's status snapshot
func (s *SpamDetectionService) MLBreakerStatus() breaker.Status {
	return s.mlBreaker.Status()
}
