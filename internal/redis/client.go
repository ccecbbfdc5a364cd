// Package redis wraps the go-redis client with the small set of operations
// the daemon needs: rate-limit accounting, recent-voter marks, and pub/sub
// fan-out of authenticated votes.
package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"botlist/internal/common/errors"
)

const voterKeyPrefix = "voter:"

type Config struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.ConfigError("redis config is required")
	}
	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.NetworkError("failed to connect to redis", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.NetworkError("redis ping failed", err)
	}
	return nil
}

// CheckRateLimit records one hit against key and reports whether the caller
// is still within limit over a sliding window. The returned count is the
// number of hits already in the window before this one.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	now := time.Now().UnixNano()
	windowStart := now - window.Nanoseconds()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.NetworkError("failed to check rate limit", err)
	}

	count := int(countCmd.Val())
	return count < limit, count, nil
}

// MarkVoter remembers that a voter was seen, expiring after ttl. The daemon
// uses this as a cheap dedup check before hitting persistent storage.
func (c *Client) MarkVoter(ctx context.Context, voterID string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, voterKeyPrefix+voterID, time.Now().Unix(), ttl).Err(); err != nil {
		return errors.NetworkError("failed to mark voter", err)
	}
	return nil
}

// SeenVoter reports whether the voter has an unexpired mark.
func (c *Client) SeenVoter(ctx context.Context, voterID string) (bool, error) {
	count, err := c.rdb.Exists(ctx, voterKeyPrefix+voterID).Result()
	if err != nil {
		return false, errors.NetworkError("failed to check voter", err)
	}
	return count > 0, nil
}

// Publish serialises message as JSON (strings and byte slices pass through)
// and publishes it on channel.
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	var data []byte
	switch v := message.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return errors.DeserializationError("failed to marshal message", err)
		}
		data = encoded
	}

	if err := c.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return errors.NetworkError("failed to publish message", err)
	}
	return nil
}

// Subscribe opens a subscription on the given channels. The caller owns the
// returned PubSub and must close it.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channels...)
}
