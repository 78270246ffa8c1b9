package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

func testModel() *Model {
	return &Model{
		Version:   ModelVersion,
		TrainedAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		SpamDocs:  3,
		HamDocs:   3,
		TokenCounts: map[string]TokenCount{
			"free":    {Spam: 3},
			"money":   {Spam: 2},
			"winner":  {Spam: 2},
			"meeting": {Ham: 3},
			"agenda":  {Ham: 2},
			"lunch":   {Ham: 2},
		},
		SpamTokens: 7,
		HamTokens:  7,
	}
}

func TestPredictSeparatesLabels(t *testing.T) {
	cls := NewNaiveBayesFromModel(testModel(), zap.NewNop())
	ctx := context.Background()

	spam, err := cls.Predict(ctx, "free money winner")
	require.NoError(t, err)
	assert.Equal(t, core.LabelSpam, spam.Classification)
	assert.Greater(t, spam.Confidence, 0.5)
	assert.LessOrEqual(t, spam.Confidence, 1.0)

	ham, err := cls.Predict(ctx, "meeting agenda lunch")
	require.NoError(t, err)
	assert.Equal(t, core.LabelHam, ham.Classification)
	assert.Greater(t, ham.Confidence, 0.5)
}

func TestPredictUnknownTokensFallBackToPrior(t *testing.T) {
	model := testModel()
	model.SpamDocs = 1
	model.HamDocs = 9
	cls := NewNaiveBayesFromModel(model, zap.NewNop())

	// Tokens never seen in training: the prior decides.
	prediction, err := cls.Predict(context.Background(), "zebra quartz")
	require.NoError(t, err)
	assert.Equal(t, core.LabelHam, prediction.Classification)
}

func TestPredictWithoutModel(t *testing.T) {
	cls := NewNaiveBayesClassifier(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	assert.False(t, cls.Loaded())

	_, err := cls.Predict(context.Background(), "free money")
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestPredictEmptyInput(t *testing.T) {
	cls := NewNaiveBayesFromModel(testModel(), zap.NewNop())

	_, err := cls.Predict(context.Background(), "   ")
	var predErr *core.PredictionError
	require.True(t, errors.As(err, &predErr))
}

func TestLoadModelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, testModel().Save(path))

	cls := NewNaiveBayesClassifier(path, zap.NewNop())
	require.True(t, cls.Loaded())

	prediction, err := cls.Predict(context.Background(), "free money")
	require.NoError(t, err)
	assert.Equal(t, core.LabelSpam, prediction.Classification)

	info := cls.Info()
	assert.Equal(t, "loaded", info["status"])
	assert.Equal(t, 6, info["vocabulary"])
}

func TestLoadModelRejectsBadArtifacts(t *testing.T) {
	dir := t.TempDir()

	badVersion := filepath.Join(dir, "version.json")
	require.NoError(t, os.WriteFile(badVersion, []byte(`{"version":99,"spam_docs":1,"token_counts":{"x":{"spam":1}}}`), 0644))
	_, err := LoadModel(badVersion)
	assert.ErrorContains(t, err, "unsupported model version")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"version":1,"token_counts":{}}`), 0644))
	_, err = LoadModel(empty)
	assert.ErrorContains(t, err, "empty")

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`not json`), 0644))
	_, err = LoadModel(garbage)
	assert.ErrorContains(t, err, "parse")
}
