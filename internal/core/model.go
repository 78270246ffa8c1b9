package core

import (
	"math"
	"time"
)

// Classification labels produced by the classifier.
const (
	LabelSpam = "spam"
	LabelHam  = "ham"
)

// ValidLabel reports whether the given classification is a known label
func ValidLabel(label string) bool {
	return label == LabelSpam || label == LabelHam
}

// Prediction represents a single classifier verdict
type Prediction struct {
	Classification string
	Confidence     float64
}

// PredictionResult represents the outcome of a prediction request
type PredictionResult struct {
	Classification string
	Confidence     float64
	SubmissionID   string
	PredictedAt    time.Time
}

// ClassificationEvent represents a completed classification published to the
// event channel. Events are immutable and exist only on the wire.
type ClassificationEvent struct {
	Classification string    `json:"classification"`
	Confidence     float64   `json:"confidence"`
	SubmissionID   string    `json:"submission_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// DailyReport represents the aggregated classification counters for one
// calendar day (UTC), keyed uniquely by Date.
type DailyReport struct {
	Date           string    `json:"date"`
	TotalChecked   int64     `json:"total_checked"`
	SpamCount      int64     `json:"spam_count"`
	HamCount       int64     `json:"ham_count"`
	SpamPercentage float64   `json:"spam_percentage"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewDailyReport creates a zero-valued report for the given day
func NewDailyReport(date string, now time.Time) *DailyReport {
	return &DailyReport{
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply folds one classification into the report's counters and recomputes
// the spam percentage
func (r *DailyReport) Apply(classification string, now time.Time) {
	r.TotalChecked++
	switch classification {
	case LabelSpam:
		r.SpamCount++
	case LabelHam:
		r.HamCount++
	}
	r.SpamPercentage = SpamPercentage(r.SpamCount, r.TotalChecked)
	r.UpdatedAt = now
}

// SpamPercentage computes the percentage of spam among total checked,
// rounded to two decimal places. Zero totals yield 0.0.
func SpamPercentage(spamCount, totalChecked int64) float64 {
	if totalChecked <= 0 {
		return 0.0
	}
	return math.Round(float64(spamCount)/float64(totalChecked)*100*100) / 100
}

// DayKey formats an instant as the UTC calendar-day key used by the report store
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
