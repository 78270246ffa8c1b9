package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/httpserver"
	"github.com/mikey/spam-detector/internal/di"
	"github.com/mikey/spam-detector/internal/factory"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server *httpserver.PredictServer,
	stores *factory.ReportStoreBundle,
	buses *factory.BusFactory,
) error {
	defer logger.Sync()

	// Start the prediction API
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start prediction API", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Failed to stop prediction API", zap.Error(err))
	}

	// Close the event transport
	if err := buses.Close(); err != nil {
		logger.Error("Failed to close event transport", zap.Error(err))
	}

	// Stop the store if needed
	if stopper, ok := stores.Reports.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
