package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/httpserver"
	"github.com/mikey/spam-detector/internal/aggregator"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/factory"
	"github.com/mikey/spam-detector/internal/logging"
)

// BuildReportContainer creates and configures the dependency injection
// container for the reporting service
func BuildReportContainer() (*dig.Container, error) {
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
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewBusFactory); err != nil {
		return nil, err
	}

	// Register report store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ReportStore, error) {
		bundle, err := f.CreateStore()
		if err != nil {
			return nil, err
		}
		return bundle.Reports, nil
	}); err != nil {
		return nil, err
	}

	// Register event source
	if err := container.Provide(func(f *factory.BusFactory) (core.EventSource, error) {
		return f.CreateSubscriber()
	}); err != nil {
		return nil, err
	}

	// Register aggregator
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		source core.EventSource,
		store core.ReportStore,
	) *aggregator.Aggregator {
		return aggregator.New(source, store, cfg.GetStore().AtomicIncrements, logger)
	}); err != nil {
		return nil, err
	}

	// Register reporting API server
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		store core.ReportStore,
		agg *aggregator.Aggregator,
	) *httpserver.ReportServer {
		return httpserver.NewReportServer(
			cfg.GetString("reporting.listen_address"),
			store,
			agg,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
