// Package breaker implements the circuit breaker guarding calls to fallible
// dependencies. Each protected dependency owns one Breaker instance; all
// concurrent callers share it.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State int

const (
	// StateClosed allows calls through and counts failures
	StateClosed State = iota
	// StateOpen rejects calls without touching the dependency
	StateOpen
	// StateHalfOpen lets a single probe through after the cooldown
	StateHalfOpen
)

// String returns the lowercase state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// OpenError is returned when a call is rejected because the breaker is open.
// The dependency was not invoked.
type OpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open (retry after %s)", e.Name, e.RetryAfter)
}

// Status is a read-only snapshot of a breaker for health reporting
type Status struct {
	Name         string  `json:"name"`
	State        string  `json:"state"`
	IsOpen       bool    `json:"is_open"`
	FailureCount int     `json:"failure_count"`
	ResetTimeout float64 `json:"reset_timeout"`
}

// Breaker is a circuit breaker protecting a single dependency
type Breaker struct {
	name          string
	failThreshold int
	resetTimeout  time.Duration
	logger        *zap.Logger

	mu           sync.Mutex
	state        State
	failureCount int
	lastChange   time.Time
	probing      bool

	now func() time.Time
}

// New creates a closed breaker with the given failure threshold and cooldown
func New(name string, failThreshold int, resetTimeout time.Duration, logger *zap.Logger) *Breaker {
	return &Breaker{
		name:          name,
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		logger:        logger,
		state:         StateClosed,
		now:           time.Now,
	}
}

// Execute runs op through the breaker. When the breaker is open the call is
// rejected with *OpenError and op is never invoked; otherwise op's error (if
// any) is returned unchanged and counted toward the failure tally.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	probe, err := b.allow()
	if err != nil {
		return err
	}

	err = op(ctx)
	b.record(probe, err)
	return err
}

// Do runs a typed operation through the breaker, returning its result on
// success and the zero value alongside the error otherwise.
func Do[T any](ctx context.Context, b *Breaker, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func(ctx context.Context) error {
		r, err := op(ctx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// allow decides whether a call may proceed, applying the open->half_open
// transition when the cooldown has elapsed. The decision and any resulting
// state change happen under one lock, so exactly one caller wins the probe;
// the returned flag tells that caller it holds the probe slot.
func (b *Breaker) allow() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if b.state == StateOpen {
		elapsed := now.Sub(b.lastChange)
		if elapsed < b.resetTimeout {
			return false, &OpenError{Name: b.name, RetryAfter: b.resetTimeout - elapsed}
		}
		b.transition(StateHalfOpen, now)
	}

	if b.state == StateHalfOpen {
		if b.probing {
			// Another caller already holds the probe slot.
			return false, &OpenError{Name: b.name, RetryAfter: b.resetTimeout}
		}
		b.probing = true
		return true, nil
	}

	return false, nil
}

// record folds the outcome of an attempted call back into the state machine.
// Only the probe holder may decide the half-open verdict; a call admitted
// while the breaker was still closed that finishes after a state change is
// stale, and its outcome is discarded rather than misattributed.
func (b *Breaker) record(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if probe {
		b.probing = false
		if err == nil {
			b.failureCount = 0
			b.transition(StateClosed, now)
			return
		}
		b.transition(StateOpen, now)
		return
	}

	if b.state != StateClosed {
		return
	}

	if err == nil {
		b.failureCount = 0
		return
	}
	b.failureCount++
	if b.failureCount >= b.failThreshold {
		b.transition(StateOpen, now)
	}
}

func (b *Breaker) transition(to State, now time.Time) {
	from := b.state
	b.state = to
	b.lastChange = now
	b.logger.Warn("Circuit breaker state change",
		zap.String("breaker", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("failure_count", b.failureCount))
}

// Name returns the name of the protected dependency
func (b *Breaker) Name() string {
	return b.name
}

// Status returns a snapshot of the breaker without mutating it; reading the
// status does not count as an attempt
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Status{
		Name:         b.name,
		State:        b.state.String(),
		IsOpen:       b.state == StateOpen,
		FailureCount: b.failureCount,
		ResetTimeout: b.resetTimeout.Seconds(),
	}
}
