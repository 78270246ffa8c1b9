package classifier

import (
	"context"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/core"
)

// GuardedClassifier wraps a classifier whose predictions leave the process,
// running each call through the breaker guarding that outbound dependency.
type GuardedClassifier struct {
	inner   core.Classifier
	breaker *breaker.Breaker
}

// NewGuardedClassifier creates a breaker-guarded classifier
func NewGuardedClassifier(inner core.Classifier, b *breaker.Breaker) *GuardedClassifier {
	return &GuardedClassifier{
		inner:   inner,
		breaker: b,
	}
}

// Predict classifies the text through the guarded dependency. While the
// breaker is open the inner classifier is never invoked.
func (c *GuardedClassifier) Predict(ctx context.Context, text string) (*core.Prediction, error) {
	return breaker.Do(ctx, c.breaker, func(ctx context.Context) (*core.Prediction, error) {
		return c.inner.Predict(ctx, text)
	})
}
