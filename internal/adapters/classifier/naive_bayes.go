package classifier

import (
	"context"
	"errors"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// NaiveBayesClassifier is a multinomial Naive Bayes implementation of the
// Classifier interface, backed by a JSON model artifact
type NaiveBayesClassifier struct {
	model     *Model
	modelPath string
	logger    *zap.Logger
}

// NewNaiveBayesClassifier creates a classifier and attempts to load the model
// artifact. A missing or unreadable artifact is not fatal here; Predict
// returns core.ErrModelUnavailable until a model is present.
func NewNaiveBayesClassifier(modelPath string, logger *zap.Logger) *NaiveBayesClassifier {
	c := &NaiveBayesClassifier{
		modelPath: modelPath,
		logger:    logger,
	}

	model, err := LoadModel(modelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Model artifact not found", zap.String("path", modelPath))
		} else {
			logger.Error("Failed to load model artifact",
				zap.String("path", modelPath),
				zap.Error(err))
		}
		return c
	}

	c.model = model
	logger.Info("Model loaded",
		zap.String("path", modelPath),
		zap.Int("vocabulary", model.Vocabulary()),
		zap.Int64("spam_docs", model.SpamDocs),
		zap.Int64("ham_docs", model.HamDocs))
	return c
}

// NewNaiveBayesFromModel creates a classifier around an already-built model,
// bypassing artifact loading. Used by the trainer for held-out evaluation.
func NewNaiveBayesFromModel(model *Model, logger *zap.Logger) *NaiveBayesClassifier {
	return &NaiveBayesClassifier{
		model:  model,
		logger: logger,
	}
}

// Loaded reports whether a trained model is available
func (c *NaiveBayesClassifier) Loaded() bool {
	return c.model != nil
}

// Info returns model metadata for the model-info endpoint
func (c *NaiveBayesClassifier) Info() map[string]any {
	info := map[string]any{
		"model":      "Naive Bayes Classifier",
		"model_path": c.modelPath,
		"status":     "not_loaded",
	}
	if c.model != nil {
		info["status"] = "loaded"
		info["trained_at"] = c.model.TrainedAt
		info["vocabulary"] = c.model.Vocabulary()
		info["training_docs"] = c.model.SpamDocs + c.model.HamDocs
	}
	return info
}

// Predict classifies normalized text. The input is expected to be already
// lowercased and stripped of URLs, addresses and punctuation.
func (c *NaiveBayesClassifier) Predict(ctx context.Context, text string) (*core.Prediction, error) {
	if c.model == nil {
		return nil, core.ErrModelUnavailable
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, &core.PredictionError{Reason: "no usable tokens in input"}
	}

	spamScore, hamScore := c.scores(tokens)

	// Convert the two log scores into a posterior for the winning label.
	confidence := 1.0 / (1.0 + math.Exp(hamScore-spamScore))
	classification := core.LabelSpam
	if hamScore > spamScore {
		classification = core.LabelHam
		confidence = 1.0 - confidence
	}

	return &core.Prediction{
		Classification: classification,
		Confidence:     confidence,
	}, nil
}

// scores computes the log-likelihood of each label with Laplace smoothing
func (c *NaiveBayesClassifier) scores(tokens []string) (spam, ham float64) {
	m := c.model
	totalDocs := float64(m.SpamDocs + m.HamDocs)
	vocab := float64(m.Vocabulary())

	// Smoothed priors so a label absent from the training set still gets a
	// finite score.
	spam = math.Log((float64(m.SpamDocs) + 1) / (totalDocs + 2))
	ham = math.Log((float64(m.HamDocs) + 1) / (totalDocs + 2))

	for _, token := range tokens {
		counts := m.TokenCounts[token]
		spam += math.Log((float64(counts.Spam) + 1) / (float64(m.SpamTokens) + vocab))
		ham += math.Log((float64(counts.Ham) + 1) / (float64(m.HamTokens) + vocab))
	}
	return spam, ham
}
