// Package aggregator folds the stream of classification events into per-day
// report counters. It is designed for exactly one active instance: the
// read-modify-write upsert it performs is only safe under a single writer.
// Scaling out requires store.atomic_increments so counter updates become
// atomic on the store side.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// eventPayload is the wire shape the aggregator cares about; extra fields on
// the message are ignored
type eventPayload struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

// Aggregator consumes classification events and updates daily reports
type Aggregator struct {
	source     core.EventSource
	store      core.ReportStore
	logger     *zap.Logger
	useAtomic  bool
	running    atomic.Bool
	subRetries uint64

	now func() time.Time
}

// New creates a new aggregator. When useAtomic is set and the store supports
// atomic increments, counter updates bypass the read-modify-write upsert.
func New(source core.EventSource, store core.ReportStore, useAtomic bool, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		source:     source,
		store:      store,
		logger:     logger,
		useAtomic:  useAtomic,
		subRetries: 5,
		now:        time.Now,
	}
}

// Running reports whether the consumer loop is currently active
func (a *Aggregator) Running() bool {
	return a.running.Load()
}

// Run subscribes to the event channel and consumes messages until the
// context is cancelled. Failure to establish the subscription after backoff
// is fatal; everything after that degrades by skipping events.
func (a *Aggregator) Run(ctx context.Context) error {
	if err := a.subscribe(ctx); err != nil {
		return err
	}
	defer a.source.Close()

	a.running.Store(true)
	defer a.running.Store(false)

	a.logger.Info("Aggregator consumer loop started")

	for {
		payload, err := a.source.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, core.ErrChannelClosed) {
				a.logger.Info("Aggregator shutting down")
				return nil
			}
			a.logger.Error("Failed to receive event", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(1 * time.Second):
			}
			continue
		}

		a.processMessage(ctx, payload)
	}
}

// subscribe establishes the subscription with Fibonacci backoff
func (a *Aggregator) subscribe(ctx context.Context) error {
	b := retry.NewFibonacci(1 * time.Second)
	err := retry.Do(ctx, retry.WithMaxRetries(a.subRetries, b), func(ctx context.Context) error {
		if err := a.source.Subscribe(ctx); err != nil {
			a.logger.Warn("Subscription attempt failed", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to event channel: %w", err)
	}
	return nil
}

// processMessage folds one event into today's report. All failures are
// contained here: a malformed payload or an unreachable store loses the
// event, never the loop.
func (a *Aggregator) processMessage(ctx context.Context, payload []byte) {
	event, err := parseEvent(payload)
	if err != nil {
		a.logger.Warn("Discarding malformed event",
			zap.Error(err),
			zap.ByteString("payload", payload))
		return
	}

	// Bucketing is by processing day, not event time: a message consumed
	// after midnight UTC counts toward the new day even if generated before.
	now := a.now().UTC()
	date := core.DayKey(now)

	report, err := a.updateReport(ctx, date, event.Classification, now)
	if err != nil {
		a.logger.Error("Failed to update daily report, event dropped",
			zap.Error(err),
			zap.String("date", date),
			zap.String("classification", event.Classification))
		return
	}

	a.logger.Info("Daily report updated",
		zap.String("date", report.Date),
		zap.Int64("total_checked", report.TotalChecked),
		zap.Int64("spam_count", report.SpamCount),
		zap.Int64("ham_count", report.HamCount),
		zap.Float64("spam_percentage", report.SpamPercentage))
}

// updateReport applies one classification, either through the store's atomic
// increment or the replace-based upsert
func (a *Aggregator) updateReport(ctx context.Context, date, classification string, now time.Time) (*core.DailyReport, error) {
	if a.useAtomic {
		if inc, ok := a.store.(core.CounterIncrementer); ok {
			return inc.IncrementCounters(ctx, date, classification)
		}
		a.logger.Warn("Store does not support atomic increments, falling back to upsert")
	}

	report, err := a.store.FindByDate(ctx, date)
	if errors.Is(err, core.ErrReportNotFound) {
		report = core.NewDailyReport(date, now)
	} else if err != nil {
		return nil, err
	}

	report.Apply(classification, now)

	if err := a.store.Upsert(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// parseEvent validates the payload into an event the aggregator can apply
func parseEvent(payload []byte) (*eventPayload, error) {
	var event eventPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}
	if !core.ValidLabel(event.Classification) {
		return nil, fmt.Errorf("%w: unrecognized classification %q", core.ErrMalformedEvent, event.Classification)
	}
	return &event, nil
}
