package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// SQLiteStore is a SQLite implementation of the ReportStore and
// SubmissionStore interfaces
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite report store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite serializes writers anyway; a single connection also keeps
	// in-memory databases on one handle.
	db.SetMaxOpenConns(1)

	// One record per calendar day, keyed by date.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_reports (
			date TEXT PRIMARY KEY,
			total_checked INTEGER NOT NULL DEFAULT 0,
			spam_count INTEGER NOT NULL DEFAULT 0,
			ham_count INTEGER NOT NULL DEFAULT 0,
			spam_percentage REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create daily_reports table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			email_text TEXT NOT NULL,
			submitted_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// FindByDate retrieves the report for a calendar day
func (s *SQLiteStore) FindByDate(ctx context.Context, date string) (*core.DailyReport, error) {
	report := &core.DailyReport{Date: date}
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT total_checked, spam_count, ham_count, spam_percentage, created_at, updated_at
		FROM daily_reports
		WHERE date = ?
	`, date).Scan(&report.TotalChecked, &report.SpamCount, &report.HamCount,
		&report.SpamPercentage, &createdAt, &updatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrReportNotFound
		}
		return nil, fmt.Errorf("%w: failed to query daily report: %v", core.ErrStoreUnavailable, err)
	}

	report.CreatedAt = parseTimestamp(createdAt)
	report.UpdatedAt = parseTimestamp(updatedAt)
	return report, nil
}

// Upsert replaces the report for its day, inserting if absent
func (s *SQLiteStore) Upsert(ctx context.Context, report *core.DailyReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_reports (date, total_checked, spam_count, ham_count, spam_percentage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_checked = excluded.total_checked,
			spam_count = excluded.spam_count,
			ham_count = excluded.ham_count,
			spam_percentage = excluded.spam_percentage,
			updated_at = excluded.updated_at
	`, report.Date, report.TotalChecked, report.SpamCount, report.HamCount,
		report.SpamPercentage, report.CreatedAt.UTC().Format(time.RFC3339), report.UpdatedAt.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("%w: failed to upsert daily report: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// IncrementCounters atomically folds one classification into a day's report
// in a single statement, safe against concurrent aggregator instances
func (s *SQLiteStore) IncrementCounters(ctx context.Context, date string, classification string) (*core.DailyReport, error) {
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
		ON CONFLICT(date) DO UPDATE SET
			total_checked = total_checked + 1,
			spam_count = spam_count + excluded.spam_count,
			ham_count = ham_count + excluded.ham_count,
			spam_percentage = ROUND((spam_count + excluded.spam_count) * 100.0 / (total_checked + 1), 2),
			updated_at = excluded.updated_at
	`, date, spam, ham, initialPct, now.Format(time.RFC3339), now.Format(time.RFC3339))

	if err != nil {
		return nil, fmt.Errorf("%w: failed to increment daily report: %v", core.ErrStoreUnavailable, err)
	}

	return s.FindByDate(ctx, date)
}

// RecordSubmission persists a submission and returns its identifier
func (s *SQLiteStore) RecordSubmission(ctx context.Context, text string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, email_text, submitted_at)
		VALUES (?, ?, ?)
	`, id, text, time.Now().UTC().Format(time.RFC3339))

	if err != nil {
		return "", fmt.Errorf("%w: failed to insert submission: %v", core.ErrStoreUnavailable, err)
	}
	return id, nil
}

// Stop closes the database connection
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

// parseTimestamp tolerates both RFC3339 strings and SQLite's default layout
func parseTimestamp(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}
