// Package publish fans authenticated votes out to downstream consumers.
// Votes can be published to a RabbitMQ queue, a Redis pub/sub channel, or
// dropped entirely when no downstream is configured.
package publish

import (
	"context"

	"botlist/internal/common/errors"
	"botlist/internal/redis"
	"botlist/internal/webhook"
)

// Publisher delivers one authenticated vote to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, vote *webhook.Vote) error
	Close() error
}

// Config selects and configures a publisher backend.
type Config struct {
	// Type is "none", "redis", or "amqp".
	Type string
	// Channel is the Redis pub/sub channel name.
	Channel string
	// URL is the AMQP connection string.
	URL string
	// Queue is the AMQP queue name.
	Queue string
}

// New creates the publisher named by the config. The Redis client is only
// required for the "redis" backend.
func New(config Config, redisClient *redis.Client) (Publisher, error) {
	switch config.Type {
	case "", "none":
		return NoopPublisher{}, nil
	case "redis":
		if redisClient == nil {
			return nil, errors.ConfigError("redis publisher requires a redis client")
		}
		channel := config.Channel
		if channel == "" {
			channel = "votes"
		}
		return &RedisPublisher{client: redisClient, channel: channel}, nil
	case "amqp":
		return NewAMQPPublisher(config.URL, config.Queue)
	default:
		return nil, errors.ConfigError("unknown publisher type: " + config.Type)
	}
}

// NoopPublisher discards every vote.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, vote *webhook.Vote) error { return nil }
func (NoopPublisher) Close() error                                          { return nil }

// RedisPublisher publishes votes as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func (p *RedisPublisher) Publish(ctx context.Context, vote *webhook.Vote) error {
	return p.client.Publish(ctx, p.channel, vote)
}

func (p *RedisPublisher) Close() error { return nil }
