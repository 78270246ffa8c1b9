package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/store"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
)

// ReportStoreBundle groups the store interfaces served by one backend
type ReportStoreBundle struct {
	Reports     core.ReportStore
	Submissions core.SubmissionStore
}

// StoreFactory creates report stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a report store based on the configuration
func (f *StoreFactory) CreateStore() (*ReportStoreBundle, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		s := store.NewMemoryStore(f.logger)
		return &ReportStoreBundle{Reports: s, Submissions: s}, nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		s, err := store.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
		if err != nil {
			return nil, err
		}
		return &ReportStoreBundle{Reports: s, Submissions: s}, nil
	case "mysql":
		s, err := store.NewMySQLStore(storeCfg.MySQLDSN, f.logger)
		if err != nil {
			return nil, err
		}
		return &ReportStoreBundle{Reports: s, Submissions: s}, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}
