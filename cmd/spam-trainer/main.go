package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/logging"
	"github.com/mikey/spam-detector/internal/training"
	"github.com/mikey/spam-detector/internal/utils"
)

var (
	dataFile   = flag.String("data", "data/training_data.csv", "Labeled training CSV (text,label)")
	outputFile = flag.String("output", "models/spam_nb.json", "Output path for the model artifact")
	testSplit  = flag.Float64("test-split", 0.2, "Fraction of samples held out for evaluation")
	seed       = flag.Int64("seed", 42, "Shuffle seed for the train/test split")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	samples, err := training.LoadSamples(*dataFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded training data",
		zap.String("file", *dataFile),
		zap.Int("samples", len(samples)))

	trainSet, testSet := training.Split(samples, *testSplit, *seed)

	trainer := training.NewTrainer(utils.NewTextNormalizer(logger), logger)
	model, err := trainer.Train(trainSet)
	if err != nil {
		return err
	}

	if len(testSet) > 0 {
		metrics := trainer.Evaluate(context.Background(), model, testSet)
		logger.Info("Held-out evaluation",
			zap.Int("evaluated", metrics.Evaluated),
			zap.Float64("accuracy", metrics.Accuracy),
			zap.Float64("precision", metrics.Precision),
			zap.Float64("recall", metrics.Recall))
	}

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := model.Save(*outputFile); err != nil {
		return err
	}

	logger.Info("Model saved", zap.String("file", *outputFile))
	return nil
}
