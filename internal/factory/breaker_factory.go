package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/config"
)

// Names of the configured circuit breakers, one per protected dependency.
const (
	BreakerMLPrediction = "ml_prediction"
	BreakerDatabase     = "database"
	BreakerExternalAPI  = "external_api"
)

// BreakerFactory creates the process's circuit breakers from configuration
type BreakerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBreakerFactory creates a new breaker factory
func NewBreakerFactory(cfg *config.Config, logger *zap.Logger) *BreakerFactory {
	return &BreakerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRegistry builds all configured breakers and registers them
func (f *BreakerFactory) CreateRegistry() (*breaker.Registry, error) {
	registry := breaker.NewRegistry()
	for _, name := range []string{BreakerMLPrediction, BreakerDatabase, BreakerExternalAPI} {
		b, err := f.CreateBreaker(name)
		if err != nil {
			return nil, err
		}
		registry.Register(b)
	}
	return registry, nil
}

// CreateBreaker builds a single breaker from its configuration section
func (f *BreakerFactory) CreateBreaker(name string) (*breaker.Breaker, error) {
	brkCfg, err := f.cfg.GetBreaker(name)
	if err != nil {
		return nil, err
	}
	return breaker.New(brkCfg.Name, brkCfg.FailThreshold, brkCfg.ResetTimeout, f.logger), nil
}
