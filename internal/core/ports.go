package core

import (
	"context"
)

// Classifier defines the interface for text classification
type Classifier interface {
	// Predict classifies the given text as spam or ham
	Predict(ctx context.Context, text string) (*Prediction, error)
}

// EventPublisher defines the interface for publishing classification events
type EventPublisher interface {
	// Publish emits a classification event to the channel. The attempt is
	// bounded; a failure means the event is lost, never retried inline.
	Publish(ctx context.Context, event *ClassificationEvent) error
}

// EventSource defines the interface for consuming classification events
type EventSource interface {
	// Subscribe establishes the subscription to the channel
	Subscribe(ctx context.Context) error

	// Receive blocks until the next message arrives or the context is
	// cancelled, and returns the raw payload
	Receive(ctx context.Context) ([]byte, error)

	// Close tears down the subscription
	Close() error
}

// ReportStore defines the interface for the daily report document store
type ReportStore interface {
	// FindByDate retrieves the report for a calendar day, or ErrReportNotFound
	FindByDate(ctx context.Context, date string) (*DailyReport, error)

	// Upsert replaces the report for its day, inserting if absent
	Upsert(ctx context.Context, report *DailyReport) error
}

// CounterIncrementer is an optional store capability: atomically fold one
// classification into a day's counters. Required for safe multi-consumer
// aggregation, where the read-modify-write upsert loses updates.
type CounterIncrementer interface {
	IncrementCounters(ctx context.Context, date string, classification string) (*DailyReport, error)
}

// SubmissionStore defines the interface for recording submitted texts
type SubmissionStore interface {
	// RecordSubmission persists a submission and returns its opaque identifier
	RecordSubmission(ctx context.Context, text string) (string, error)
}
