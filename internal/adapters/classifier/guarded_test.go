package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/core"
)

type flakyClassifier struct {
	err   error
	calls int
}

func (c *flakyClassifier) Predict(ctx context.Context, text string) (*core.Prediction, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &core.Prediction{Classification: core.LabelSpam, Confidence: 0.9}, nil
}

func TestGuardedClassifierPassesThrough(t *testing.T) {
	inner := &flakyClassifier{}
	guarded := NewGuardedClassifier(inner, breaker.New("external_api", 4, 45*time.Second, zap.NewNop()))

	prediction, err := guarded.Predict(context.Background(), "free money")
	require.NoError(t, err)
	assert.Equal(t, core.LabelSpam, prediction.Classification)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardedClassifierTripsOnOutboundFailures(t *testing.T) {
	inner := &flakyClassifier{err: errors.New("connection refused")}
	guarded := NewGuardedClassifier(inner, breaker.New("external_api", 2, 45*time.Second, zap.NewNop()))
	ctx := context.Background()

	_, err := guarded.Predict(ctx, "text")
	require.Error(t, err)
	_, err = guarded.Predict(ctx, "text")
	require.Error(t, err)

	// The breaker is open; the remote dependency is no longer invoked.
	_, err = guarded.Predict(ctx, "text")
	var openErr *breaker.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "external_api", openErr.Name)
	assert.Equal(t, 2, inner.calls)
}
