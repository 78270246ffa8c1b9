package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// MySQLStore is a MySQL implementation of the ReportStore and
// SubmissionStore interfaces
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL report store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_reports (
			date VARCHAR(10) PRIMARY KEY,
			total_checked BIGINT NOT NULL DEFAULT 0,
			spam_count BIGINT NOT NULL DEFAULT 0,
			ham_count BIGINT NOT NULL DEFAULT 0,
			spam_percentage DOUBLE NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create daily_reports table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id VARCHAR(36) PRIMARY KEY,
			email_text TEXT NOT NULL,
			submitted_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// FindByDate retrieves the report for a calendar day
func (s *MySQLStore) FindByDate(ctx context.Context, date string) (*core.DailyReport, error) {
	report := &core.DailyReport{Date: date}

	err := s.db.QueryRowContext(ctx, `
		SELECT total_checked, spam_count, ham_count, spam_percentage, created_at, updated_at
		FROM daily_reports
		WHERE date = ?
	`, date).Scan(&report.TotalChecked, &report.SpamCount, &report.HamCount,
		&report.SpamPercentage, &report.CreatedAt, &report.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrReportNotFound
		}
		return nil, fmt.Errorf("%w: failed to query daily report: %v", core.ErrStoreUnavailable, err)
	}
	return report, nil
}

// Upsert replaces the report for its day, inserting if absent
func (s *MySQLStore) Upsert(ctx context.Context, report *core.DailyReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_reports (date, total_checked, spam_count, ham_count, spam_percentage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_checked = VALUES(total_checked),
			spam_count = VALUES(spam_count),
			ham_count = VALUES(ham_count),
			spam_percentage = VALUES(spam_percentage),
			updated_at = VALUES(updated_at)
	`, report.Date, report.TotalChecked, report.SpamCount, report.HamCount,
		report.SpamPercentage, report.CreatedAt.UTC(), report.UpdatedAt.UTC())

	if err != nil {
		return fmt.Errorf("%w: failed to upsert daily report: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// IncrementCounters atomically folds one classification into a day's report,
// safe against concurrent aggregator instances
func (s *MySQLStore) IncrementCounters(ctx context.Context, date string, classification string) (*core.DailyReport, error) {
	spam, ham := 0, 0
	switch classification {
	case core.LabelSpam:
		spam = 1
	case core.LabelHam:
		ham = 1
	}

	now := time.Now().UTC()
	initialPct := core.SpamPercentage(int64(spam), 1)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_reports (date, total_checked, spam_count, ham_count, spam_percentage, created_at, updated_at)
		VALUES (?, 1, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_checked = total_checked + 1,
			spam_count = spam_count + VALUES(spam_count),
			ham_count = ham_count + VALUES(ham_count),
			spam_percentage = ROUND(spam_count * 100.0 / total_checked, 2),
			updated_at = VALUES(updated_at)
	`, date, spam, ham, initialPct, now, now)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to increment daily report: %v", core.ErrStoreUnavailable, err)
	}

	return s.FindByDate(ctx, date)
}

// RecordSubmission persists a submission and returns its identifier
func (s *MySQLStore) RecordSubmission(ctx context.Context, text string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, email_text, submitted_at)
		VALUES (?, ?, ?)
	`, id, text, time.Now().UTC())

	if err != nil {
		return "", fmt.Errorf("%w: failed to insert submission: %v", core.ErrStoreUnavailable, err)
	}
	return id, nil
}

// Stop closes the database connection
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
