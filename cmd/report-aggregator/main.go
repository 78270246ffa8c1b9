package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/spam-detector/internal/adapters/httpserver"
	"github.com/mikey/spam-detector/internal/aggregator"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/di"
	"github.com/mikey/spam-detector/internal/factory"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildReportContainer()
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

// run starts the consumer loop and the reporting API, and tears both down on
// the first signal
func run(
	logger *zap.Logger,
	agg *aggregator.Aggregator,
	server *httpserver.ReportServer,
	store core.ReportStore,
	buses *factory.BusFactory,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	// The consumer loop: blocks on the channel until cancellation.
	group.Go(func() error {
		return agg.Run(ctx)
	})

	// The report read API.
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start reporting API", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Shutting down...")
	case <-ctx.Done():
		logger.Error("Consumer loop exited unexpectedly")
	}

	cancel()
	if err := group.Wait(); err != nil {
		logger.Error("Consumer loop error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop reporting API", zap.Error(err))
	}

	// Close the event transport
	if err := buses.Close(); err != nil {
		logger.Error("Failed to close event transport", zap.Error(err))
	}

	// Stop the store if needed
	if stopper, ok := store.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
