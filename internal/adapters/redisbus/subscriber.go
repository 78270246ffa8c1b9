package redisbus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscriber is a single subscription to the classification event channel
type Subscriber struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
	logger  *zap.Logger
}

// NewSubscriber creates a subscriber for the given channel. Subscribe must be
// called before Receive.
func NewSubscriber(client *redis.Client, channel string, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Subscribe establishes the subscription and waits for the server's
// confirmation, so a subscription failure surfaces here rather than on the
// first Receive
func (s *Subscriber) Subscribe(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to channel %q: %w", s.channel, err)
	}

	s.pubsub = pubsub
	s.logger.Info("Subscribed to channel", zap.String("channel", s.channel))
	return nil
}

// Receive blocks until the next message or context cancellation
func (s *Subscriber) Receive(ctx context.Context) ([]byte, error) {
	if s.pubsub == nil {
		return nil, fmt.Errorf("subscriber not subscribed to channel %q", s.channel)
	}

	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(msg.Payload), nil
}

// Close tears down the subscription
func (s *Subscriber) Close() error {
	if s.pubsub == nil {
		return nil
	}
	return s.pubsub.Close()
}
