// Package redisbus carries classification events over a Redis pub/sub
// channel. Delivery is at-most-once: a message published with no subscriber
// listening, or during a transport outage, is lost by design.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// Publisher publishes classification events to a Redis channel
type Publisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  *zap.Logger
}

// NewPublisher creates a publisher on the given channel. timeout bounds each
// publish attempt so the request path never waits on a slow transport.
func NewPublisher(client *redis.Client, channel string, timeout time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		timeout: timeout,
		logger:  logger,
	}
}

// Publish emits one event. Failures are returned for the caller to log; the
// publisher never retries.
func (p *Publisher) Publish(ctx context.Context, event *core.ClassificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %q: %w", p.channel, err)
	}

	p.logger.Debug("Event published",
		zap.String("channel", p.channel),
		zap.String("classification", event.Classification))
	return nil
}
