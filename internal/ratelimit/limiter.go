// Package ratelimit guards the webhook endpoint with a Redis-backed sliding
// window limiter.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"botlist/internal/common/logging"
	"botlist/internal/redis"
)

type Config struct {
	DefaultLimit  int
	DefaultWindow time.Duration
	Enabled       bool
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

type Limiter struct {
	redis  *redis.Client
	config *Config
	logger logging.Logger
}

func NewLimiter(redisClient *redis.Client, config *Config, logger logging.Logger) *Limiter {
	if config == nil {
		config = &Config{
			DefaultLimit:  60,
			DefaultWindow: time.Minute,
			Enabled:       true,
		}
	}
	return &Limiter{
		redis:  redisClient,
		config: config,
		logger: logger,
	}
}

// Check records one hit against key and reports whether it is allowed under
// the configured limit.
func (l *Limiter) Check(ctx context.Context, key string) (*Result, error) {
	limit := l.config.DefaultLimit
	window := l.config.DefaultWindow

	if !l.config.Enabled {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(window),
		}, nil
	}

	allowed, current, err := l.redis.CheckRateLimit(ctx, "rate_limit:"+key, limit, window)
	if err != nil {
		return nil, err
	}

	remaining := limit - current - 1
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(window),
	}, nil
}

// Middleware applies the limiter to an HTTP handler. Requests that cannot be
// checked (Redis unavailable) are allowed through rather than dropped.
func (l *Limiter) Middleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := l.Check(r.Context(), key)
			if err != nil {
				if l.logger != nil {
					l.logger.Warn("rate limit check failed, allowing request",
						logging.Err(err), logging.Field{Key: "key", Value: key})
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(l.config.DefaultWindow.Seconds())))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPBasedKey keys requests by client address, honouring proxy headers.
func IPBasedKey(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		if first, _, found := strings.Cut(ip, ","); found {
			ip = first
		}
		ip = strings.TrimSpace(ip)
	}
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
