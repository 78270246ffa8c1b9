package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/spam-detector/")
	v.AddConfigPath("$HOME/.spam-detector")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SPAM_DETECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Prediction server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:5000")

	// Reporting server defaults
	v.SetDefault("reporting.listen_address", "0.0.0.0:5001")

	// Classifier defaults
	v.SetDefault("classifier.type", "naive_bayes")
	v.SetDefault("classifier.model_path", "models/spam_nb.json")
	v.SetDefault("classifier.default_label", "ham")
	v.SetDefault("classifier.default_confidence", 0.5)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 256)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Circuit breaker defaults
	v.SetDefault("breaker.ml_prediction.fail_threshold", 5)
	v.SetDefault("breaker.ml_prediction.reset_timeout", "60s")
	v.SetDefault("breaker.database.fail_threshold", 3)
	v.SetDefault("breaker.database.reset_timeout", "30s")
	v.SetDefault("breaker.external_api.fail_threshold", 4)
	v.SetDefault("breaker.external_api.reset_timeout", "45s")

	// Pub/sub defaults
	v.SetDefault("pubsub.type", "redis")
	v.SetDefault("pubsub.channel", "spam-detection-results")
	v.SetDefault("pubsub.publish_timeout", "2s")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)

	// Report store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/spam_reports.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/spam_detection?parseTime=true")
	v.SetDefault("store.atomic_increments", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.service", "spam-detector")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
