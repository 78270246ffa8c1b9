// Package membus is an in-process event channel with the same loss semantics
// as the Redis transport: publishing with no subscriber, or into a full
// buffer, drops the message. It backs single-process deployments and tests.
package membus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

const defaultBufferSize = 64

// Bus is an in-memory pub/sub channel carrying serialized classification
// events. It holds a single logical subscription, matching the one active
// aggregator the pipeline is designed for.
type Bus struct {
	mu       sync.Mutex
	messages chan []byte
	closed   bool
	logger   *zap.Logger
}

// New creates a new in-memory bus
func New(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Publish serializes the event and hands it to the subscriber without
// blocking. Without an active subscription, or with a full buffer, the event
// is dropped.
func (b *Bus) Publish(ctx context.Context, event *core.ClassificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return core.ErrChannelClosed
	}
	if b.messages == nil {
		b.logger.Debug("No active subscriber, event dropped")
		return nil
	}

	select {
	case b.messages <- payload:
		return nil
	default:
		b.logger.Warn("Subscriber buffer full, event dropped")
		return nil
	}
}

// Subscribe establishes the bus's single subscription
func (b *Bus) Subscribe(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return core.ErrChannelClosed
	}
	if b.messages == nil {
		b.messages = make(chan []byte, defaultBufferSize)
	}
	return nil
}

// Receive blocks until the next message or context cancellation
func (b *Bus) Receive(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	messages := b.messages
	b.mu.Unlock()

	if messages == nil {
		return nil, fmt.Errorf("bus has no active subscription")
	}

	select {
	case payload, ok := <-messages:
		if !ok {
			return nil, core.ErrChannelClosed
		}
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the bus down; pending Receive calls return core.ErrChannelClosed
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.messages != nil {
		close(b.messages)
	}
	return nil
}
