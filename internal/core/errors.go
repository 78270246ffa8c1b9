package core

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is returned by a classifier when no trained model artifact is loaded
	ErrModelUnavailable = errors.New("classifier model not loaded")

	// ErrMalformedEvent is returned when a consumed message cannot be parsed
	// into a valid classification event
	ErrMalformedEvent = errors.New("malformed classification event")

	// ErrReportNotFound is returned by a report store when no record exists for the requested day
	ErrReportNotFound = errors.New("daily report not found")

	// ErrStoreUnavailable is returned when the report store cannot be reached
	ErrStoreUnavailable = errors.New("report store unavailable")

	// ErrChannelClosed is returned when the event channel has been shut down
	ErrChannelClosed = errors.New("event channel closed")
)

// PredictionError represents a failure of the underlying classification
// computation, as opposed to the model being unavailable
type PredictionError struct {
	Reason string
	Err    error
}

func (e *PredictionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("prediction failed: %s", e.Reason)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
