package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botlist/internal/common/errors"
)

// envKeys are every variable Load reads; cleared per test via t.Setenv so
// values from the host environment cannot leak in.
var envKeys = []string{
	"PORT", "LOG_LEVEL",
	"TOPGG_TOKEN", "BOT_ID", "REQUEST_TIMEOUT", "AUTOPOST_INTERVAL",
	"WEBHOOK_SECRET",
	"STORAGE_TYPE", "DATABASE_PATH", "POSTGRES_URL",
	"VOTE_RETENTION", "RETENTION_SCHEDULE",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_DEFAULT", "RATE_LIMIT_WINDOW",
	"PUBLISHER_TYPE", "PUBLISH_CHANNEL", "AMQP_URL", "AMQP_QUEUE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TOPGG_TOKEN", "token")
	t.Setenv("BOT_ID", "1026525568344264724")
	t.Setenv("WEBHOOK_SECRET", "hook-secret")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	config := Load()

	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.Equal(t, 15*time.Minute, config.AutopostInterval)
	assert.Equal(t, "sqlite", config.StorageType)
	assert.Equal(t, "./botlist.db", config.DatabasePath)
	assert.Equal(t, 90*24*time.Hour, config.VoteRetention)
	assert.Equal(t, "0 3 * * *", config.RetentionSchedule)
	assert.Equal(t, 10, config.RedisPoolSize)
	assert.True(t, config.RateLimitEnabled)
	assert.Equal(t, 60, config.RateLimitDefault)
	assert.Equal(t, time.Minute, config.RateLimitWindow)
	assert.Equal(t, "none", config.PublisherType)
	assert.Equal(t, "votes", config.PublishChannel)
	assert.Equal(t, "votes", config.AMQPQueue)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("AUTOPOST_INTERVAL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	config := Load()

	assert.Equal(t, "9090", config.Port)
	assert.Equal(t, 30*time.Minute, config.AutopostInterval)
	assert.Equal(t, 3, config.RedisDB)
	assert.False(t, config.RateLimitEnabled)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("AUTOPOST_INTERVAL", "soon")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	config := Load()

	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, 15*time.Minute, config.AutopostInterval)
	assert.True(t, config.RateLimitEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name:  "valid minimal config",
			setup: func(t *testing.T) {},
		},
		{
			name: "missing token",
			setup: func(t *testing.T) {
				t.Setenv("TOPGG_TOKEN", "")
			},
			wantErr: "TOPGG_TOKEN",
		},
		{
			name: "missing bot id",
			setup: func(t *testing.T) {
				t.Setenv("BOT_ID", "")
			},
			wantErr: "BOT_ID",
		},
		{
			name: "missing webhook secret",
			setup: func(t *testing.T) {
				t.Setenv("WEBHOOK_SECRET", "")
			},
			wantErr: "WEBHOOK_SECRET",
		},
		{
			name: "invalid port",
			setup: func(t *testing.T) {
				t.Setenv("PORT", "99999")
			},
			wantErr: "PORT",
		},
		{
			name: "unknown storage type",
			setup: func(t *testing.T) {
				t.Setenv("STORAGE_TYPE", "dynamo")
			},
			wantErr: "STORAGE_TYPE",
		},
		{
			name: "postgres without url",
			setup: func(t *testing.T) {
				t.Setenv("STORAGE_TYPE", "postgres")
			},
			wantErr: "POSTGRES_URL",
		},
		{
			name: "redis db out of range",
			setup: func(t *testing.T) {
				t.Setenv("REDIS_ADDRESS", "localhost:6379")
				t.Setenv("REDIS_DB", "16")
			},
			wantErr: "REDIS_DB",
		},
		{
			name: "unknown publisher type",
			setup: func(t *testing.T) {
				t.Setenv("PUBLISHER_TYPE", "kafka")
			},
			wantErr: "PUBLISHER_TYPE",
		},
		{
			name: "redis publisher without redis",
			setup: func(t *testing.T) {
				t.Setenv("PUBLISHER_TYPE", "redis")
			},
			wantErr: "REDIS_ADDRESS",
		},
		{
			name: "amqp publisher without url",
			setup: func(t *testing.T) {
				t.Setenv("PUBLISHER_TYPE", "amqp")
			},
			wantErr: "AMQP_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			tt.setup(t)

			err := Load().Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
