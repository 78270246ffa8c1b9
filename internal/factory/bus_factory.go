package factory

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/membus"
	"github.com/mikey/spam-detector/internal/adapters/redisbus"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
)

// BusFactory creates pub/sub publishers and subscribers based on
// configuration. The "memory" transport only connects components inside one
// process; it is meant for tests and single-binary deployments.
type BusFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	client *redis.Client
	mem    *membus.Bus
}

// NewBusFactory creates a new bus factory
func NewBusFactory(cfg *config.Config, logger *zap.Logger) *BusFactory {
	return &BusFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePublisher creates an event publisher based on the configuration
func (f *BusFactory) CreatePublisher() (core.EventPublisher, error) {
	busCfg, err := f.cfg.GetPubSub()
	if err != nil {
		return nil, err
	}

	switch busCfg.Type {
	case "redis":
		return redisbus.NewPublisher(f.redisClient(busCfg), busCfg.Channel, busCfg.PublishTimeout, f.logger), nil
	case "memory":
		return f.memoryBus(), nil
	default:
		return nil, fmt.Errorf("unsupported pubsub type: %s", busCfg.Type)
	}
}

// CreateSubscriber creates an event source based on the configuration
func (f *BusFactory) CreateSubscriber() (core.EventSource, error) {
	busCfg, err := f.cfg.GetPubSub()
	if err != nil {
		return nil, err
	}

	switch busCfg.Type {
	case "redis":
		return redisbus.NewSubscriber(f.redisClient(busCfg), busCfg.Channel, f.logger), nil
	case "memory":
		return f.memoryBus(), nil
	default:
		return nil, fmt.Errorf("unsupported pubsub type: %s", busCfg.Type)
	}
}

// redisClient lazily creates the shared Redis connection
func (f *BusFactory) redisClient(busCfg config.PubSubConfig) *redis.Client {
	if f.client == nil {
		f.client = redis.NewClient(&redis.Options{
			Addr:     busCfg.RedisAddress,
			Password: busCfg.RedisPassword,
			DB:       busCfg.RedisDB,
		})
	}
	return f.client
}

// memoryBus lazily creates the shared in-process bus so the publisher and
// subscriber ends connect to each other
func (f *BusFactory) memoryBus() *membus.Bus {
	if f.mem == nil {
		f.mem = membus.New(f.logger)
	}
	return f.mem
}

// Close releases the underlying transport connections
func (f *BusFactory) Close() error {
	if f.mem != nil {
		_ = f.mem.Close()
	}
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
