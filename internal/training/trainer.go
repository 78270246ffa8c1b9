// Package training builds the Naive Bayes model artifact from a labeled CSV
// corpus
package training

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/classifier"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/utils"
)

// Sample is one labeled training document
type Sample struct {
	Text  string
	Label string
}

// Metrics summarizes held-out evaluation, with spam as the positive class
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	Evaluated int
}

// Trainer builds model artifacts from labeled samples
type Trainer struct {
	normalizer *utils.TextNormalizer
	logger     *zap.Logger
}

// NewTrainer creates a new trainer
func NewTrainer(normalizer *utils.TextNormalizer, logger *zap.Logger) *Trainer {
	return &Trainer{
		normalizer: normalizer,
		logger:     logger,
	}
}

// LoadSamples reads a CSV corpus with text,label columns. Labels accept
// spam/ham as well as 1/0.
func LoadSamples(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training data: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	var samples []Sample
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read training data: %w", err)
		}

		// Skip a header row.
		if line == 1 && strings.EqualFold(record[0], "text") {
			continue
		}

		label, err := parseLabel(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, Sample{Text: record[0], Label: label})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("training data is empty")
	}
	return samples, nil
}

// parseLabel maps a CSV label value onto a classification label
func parseLabel(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case core.LabelSpam, "1":
		return core.LabelSpam, nil
	case core.LabelHam, "0":
		return core.LabelHam, nil
	default:
		return "", fmt.Errorf("unrecognized label %q", value)
	}
}

// Split shuffles the samples and divides them into training and held-out
// sets. testFraction of zero keeps everything for training.
func Split(samples []Sample, testFraction float64, seed int64) (train, test []Sample) {
	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testSize := int(float64(len(shuffled)) * testFraction)
	return shuffled[testSize:], shuffled[:testSize]
}

// Train builds a model from the samples
func (t *Trainer) Train(samples []Sample) (*classifier.Model, error) {
	model := &classifier.Model{
		Version:     classifier.ModelVersion,
		TrainedAt:   time.Now().UTC(),
		TokenCounts: make(map[string]classifier.TokenCount),
	}

	for _, sample := range samples {
		tokens := t.normalizer.Tokenize(sample.Text)
		if len(tokens) == 0 {
			continue
		}

		isSpam := sample.Label == core.LabelSpam
		if isSpam {
			model.SpamDocs++
		} else {
			model.HamDocs++
		}

		for _, token := range tokens {
			counts := model.TokenCounts[token]
			if isSpam {
				counts.Spam++
				model.SpamTokens++
			} else {
				counts.Ham++
				model.HamTokens++
			}
			model.TokenCounts[token] = counts
		}
	}

	if len(model.TokenCounts) == 0 {
		return nil, fmt.Errorf("no usable tokens in training data")
	}

	t.logger.Info("Model trained",
		zap.Int64("spam_docs", model.SpamDocs),
		zap.Int64("ham_docs", model.HamDocs),
		zap.Int("vocabulary", model.Vocabulary()))
	return model, nil
}

// Evaluate runs the model over held-out samples and computes metrics
func (t *Trainer) Evaluate(ctx context.Context, model *classifier.Model, samples []Sample) Metrics {
	cls := classifier.NewNaiveBayesFromModel(model, t.logger)

	var correct, truePos, falsePos, falseNeg, evaluated int
	for _, sample := range samples {
		prediction, err := cls.Predict(ctx, t.normalizer.Normalize(sample.Text))
		if err != nil {
			continue
		}
		evaluated++

		if prediction.Classification == sample.Label {
			correct++
		}
		switch {
		case prediction.Classification == core.LabelSpam && sample.Label == core.LabelSpam:
			truePos++
		case prediction.Classification == core.LabelSpam && sample.Label == core.LabelHam:
			falsePos++
		case prediction.Classification == core.LabelHam && sample.Label == core.LabelSpam:
			falseNeg++
		}
	}

	metrics := Metrics{Evaluated: evaluated}
	if evaluated > 0 {
		metrics.Accuracy = float64(correct) / float64(evaluated)
	}
	if truePos+falsePos > 0 {
		metrics.Precision = float64(truePos) / float64(truePos+falsePos)
	}
	if truePos+falseNeg > 0 {
		metrics.Recall = float64(truePos) / float64(truePos+falseNeg)
	}
	return metrics
}
