package config

import (
	"fmt"
	"time"
)

// BreakerConfig represents the configuration for a single circuit breaker
type BreakerConfig struct {
	Name          string
	FailThreshold int
	ResetTimeout  time.Duration
}

// ClassifierConfig represents the configuration for the classifier adapter
type ClassifierConfig struct {
	Type              string
	ModelPath         string
	DefaultLabel      string
	DefaultConfidence float64
}

// OpenAIConfig represents the configuration for the OpenAI classifier
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// PubSubConfig represents the configuration for the event channel
type PubSubConfig struct {
	Type           string
	Channel        string
	PublishTimeout time.Duration
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
}

// StoreConfig represents the configuration for the report store
type StoreConfig struct {
	Type             string
	SQLitePath       string
	MySQLDSN         string
	AtomicIncrements bool
}

// GetBreaker returns the configuration for the named circuit breaker
func (c *Config) GetBreaker(name string) (BreakerConfig, error) {
	timeout, err := c.GetDuration(fmt.Sprintf("breaker.%s.reset_timeout", name))
	if err != nil {
		return BreakerConfig{}, fmt.Errorf("invalid reset timeout for breaker %q: %w", name, err)
	}
	return BreakerConfig{
		Name:          name,
		FailThreshold: c.GetInt(fmt.Sprintf("breaker.%s.fail_threshold", name)),
		ResetTimeout:  timeout,
	}, nil
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Type:              c.GetString("classifier.type"),
		ModelPath:         c.GetString("classifier.model_path"),
		DefaultLabel:      c.GetString("classifier.default_label"),
		DefaultConfidence: c.GetFloat64("classifier.default_confidence"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetPubSub returns the pub/sub configuration
func (c *Config) GetPubSub() (PubSubConfig, error) {
	timeout, err := c.GetDuration("pubsub.publish_timeout")
	if err != nil {
		return PubSubConfig{}, fmt.Errorf("invalid publish timeout: %w", err)
	}
	return PubSubConfig{
		Type:           c.GetString("pubsub.type"),
		Channel:        c.GetString("pubsub.channel"),
		PublishTimeout: timeout,
		RedisAddress:   c.GetString("pubsub.redis.address"),
		RedisPassword:  c.GetString("pubsub.redis.password"),
		RedisDB:        c.GetInt("pubsub.redis.db"),
	}, nil
}

// GetStore returns the report store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:             c.GetString("store.type"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		AtomicIncrements: c.GetBool("store.atomic_increments"),
	}
}
