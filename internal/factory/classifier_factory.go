package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/classifier"
	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
)

// ClassifierFactory creates classifier adapters based on configuration
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates a classifier based on the configuration. Remote
// variants are wrapped with the external API breaker, so an outbound outage
// trips independently of the prediction breaker.
func (f *ClassifierFactory) CreateClassifier(registry *breaker.Registry) (core.Classifier, error) {
	clsCfg := f.cfg.GetClassifier()

	switch clsCfg.Type {
	case "naive_bayes":
		return classifier.NewNaiveBayesClassifier(clsCfg.ModelPath, f.logger), nil
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		if openaiCfg.APIKey == "" {
			return nil, fmt.Errorf("openai classifier requires an API key")
		}
		remote := classifier.NewOpenAIClassifier(
			openaiCfg.APIKey,
			openaiCfg.ModelName,
			openaiCfg.MaxTokens,
			openaiCfg.Temperature,
			openaiCfg.TopP,
			f.logger,
		)
		return classifier.NewGuardedClassifier(remote, registry.Get(BreakerExternalAPI)), nil
	default:
		return nil, fmt.Errorf("unsupported classifier type: %s", clsCfg.Type)
	}
}
