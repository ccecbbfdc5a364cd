// Package config loads the daemon configuration from environment variables
// with sensible defaults and validates it before the application starts.
//
// Environment variables:
//
// Application:
//   - PORT: HTTP server port (default: 8080)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//
// Listing service API:
//   - TOPGG_TOKEN: API token (required)
//   - BOT_ID: the bot the daemon posts stats for (required)
//   - REQUEST_TIMEOUT: per-request timeout (default: 30s)
//   - AUTOPOST_INTERVAL: stats posting cadence (default: 15m)
//
// Webhook:
//   - WEBHOOK_SECRET: shared secret for inbound vote webhooks (required)
//
// Storage:
//   - STORAGE_TYPE: "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite file path (default: ./botlist.db)
//   - POSTGRES_URL: PostgreSQL connection string (required for postgres)
//   - VOTE_RETENTION: how long vote rows are kept (default: 2160h, 90 days)
//   - RETENTION_SCHEDULE: cron expression for the purge job (default: "0 3 * * *")
//
// Redis:
//   - REDIS_ADDRESS: host:port; empty disables redis-backed features
//   - REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE
//
// Rate limiting:
//   - RATE_LIMIT_ENABLED (default: true, ignored without redis)
//   - RATE_LIMIT_DEFAULT: requests per window (default: 60)
//   - RATE_LIMIT_WINDOW: window duration (default: 1m)
//
// Publishing:
//   - PUBLISHER_TYPE: "none", "redis" or "amqp" (default: none)
//   - PUBLISH_CHANNEL: redis channel name (default: votes)
//   - AMQP_URL: RabbitMQ connection string (required for amqp)
//   - AMQP_QUEUE: queue name (default: votes)
package config

import (
	"os"
	"strconv"
	"time"

	"botlist/internal/common/errors"
)

type Config struct {
	Port     string
	LogLevel string

	APIToken         string
	BotID            string
	RequestTimeout   time.Duration
	AutopostInterval time.Duration

	WebhookSecret string

	StorageType       string
	DatabasePath      string
	PostgresURL       string
	VoteRetention     time.Duration
	RetentionSchedule string

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	RateLimitEnabled bool
	RateLimitDefault int
	RateLimitWindow  time.Duration

	PublisherType  string
	PublishChannel string
	AMQPURL        string
	AMQPQueue      string
}

// Load reads the configuration from the environment. It does not validate;
// call Validate on the result before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIToken:         getEnv("TOPGG_TOKEN", ""),
		BotID:            getEnv("BOT_ID", ""),
		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
		AutopostInterval: getDurationEnv("AUTOPOST_INTERVAL", 15*time.Minute),

		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		StorageType:       getEnv("STORAGE_TYPE", "sqlite"),
		DatabasePath:      getEnv("DATABASE_PATH", "./botlist.db"),
		PostgresURL:       getEnv("POSTGRES_URL", ""),
		VoteRetention:     getDurationEnv("VOTE_RETENTION", 90*24*time.Hour),
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "0 3 * * *"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: getIntEnv("RATE_LIMIT_DEFAULT", 60),
		RateLimitWindow:  getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		PublisherType:  getEnv("PUBLISHER_TYPE", "none"),
		PublishChannel: getEnv("PUBLISH_CHANNEL", "votes"),
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPQueue:      getEnv("AMQP_QUEUE", "votes"),
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return errors.ConfigError("TOPGG_TOKEN is required")
	}
	if c.BotID == "" {
		return errors.ConfigError("BOT_ID is required")
	}
	if c.WebhookSecret == "" {
		return errors.ConfigError("WEBHOOK_SECRET is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return errors.ConfigError("PORT must be a valid port number between 1 and 65535")
	}

	if c.RequestTimeout <= 0 {
		return errors.ConfigError("REQUEST_TIMEOUT must be positive")
	}
	if c.AutopostInterval <= 0 {
		return errors.ConfigError("AUTOPOST_INTERVAL must be positive")
	}

	switch c.StorageType {
	case "sqlite", "postgres":
	default:
		return errors.ConfigError("STORAGE_TYPE must be 'sqlite' or 'postgres'")
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return errors.ConfigError("POSTGRES_URL is required when using postgres storage")
	}
	if c.VoteRetention <= 0 {
		return errors.ConfigError("VOTE_RETENTION must be positive")
	}

	if c.RedisAddress != "" {
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return errors.ConfigError("REDIS_DB must be between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return errors.ConfigError("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.RateLimitEnabled && c.RedisAddress != "" {
		if c.RateLimitDefault < 1 {
			return errors.ConfigError("RATE_LIMIT_DEFAULT must be a positive number")
		}
		if c.RateLimitWindow <= 0 {
			return errors.ConfigError("RATE_LIMIT_WINDOW must be positive")
		}
	}

	switch c.PublisherType {
	case "", "none", "redis", "amqp":
	default:
		return errors.ConfigError("PUBLISHER_TYPE must be 'none', 'redis' or 'amqp'")
	}
	if c.PublisherType == "redis" && c.RedisAddress == "" {
		return errors.ConfigError("REDIS_ADDRESS is required when using the redis publisher")
	}
	if c.PublisherType == "amqp" && c.AMQPURL == "" {
		return errors.ConfigError("AMQP_URL is required when using the amqp publisher")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
