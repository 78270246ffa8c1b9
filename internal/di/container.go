package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/httpserver"
	"github.com/mikey/spam-detector/internal/breaker"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/factory"
	"github.com/mikey/spam-detector/internal/logging"
	"github.com/mikey/spam-detector/internal/utils"
)

// BuildContainer creates and configures the dependency injection container
// for the prediction service
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewBreakerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewBusFactory); err != nil {
		return nil, err
	}

	// Register text normalizer
	if err := container.Provide(utils.NewTextNormalizer); err != nil {
		return nil, err
	}

	// Register breaker registry
	if err := container.Provide(func(f *factory.BreakerFactory) (*breaker.Registry, error) {
		return f.CreateRegistry()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory, registry *breaker.Registry) (core.Classifier, error) {
		return f.CreateClassifier(registry)
	}); err != nil {
		return nil, err
	}

	// Register report store bundle
	if err := container.Provide(func(f *factory.StoreFactory) (*factory.ReportStoreBundle, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register event publisher
	if err := container.Provide(func(f *factory.BusFactory) (core.EventPublisher, error) {
		return f.CreatePublisher()
	}); err != nil {
		return nil, err
	}

	// Register spam detection service
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		classifier core.Classifier,
		publisher core.EventPublisher,
		stores *factory.ReportStoreBundle,
		registry *breaker.Registry,
		normalizer *utils.TextNormalizer,
	) *core.SpamDetectionService {
		clsCfg := cfg.GetClassifier()
		return core.NewSpamDetectionService(
			classifier,
			publisher,
			stores.Submissions,
			registry.Get(factory.BreakerMLPrediction),
			registry.Get(factory.BreakerDatabase),
			normalizer,
			logger,
			clsCfg.DefaultLabel,
			clsCfg.DefaultConfidence,
		)
	}); err != nil {
		return nil, err
	}

	// Register prediction API server
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		service *core.SpamDetectionService,
		classifier core.Classifier,
		registry *breaker.Registry,
	) *httpserver.PredictServer {
		return httpserver.NewPredictServer(
			cfg.GetString("server.listen_address"),
			service,
			classifier,
			registry,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
