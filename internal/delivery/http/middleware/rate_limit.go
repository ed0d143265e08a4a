package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Key prefix for Redis, e.g. "rl:auth:"
	KeyPrefix string
	// Whether to reject requests when Redis errors instead of falling back
	FailClosed bool
	// Custom key extractor (default: client IP)
	KeyFunc func(*gin.Context) string
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// AuthRateLimitConfig is the strict policy for sign-in and sign-up.
func AuthRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{Limit: limit, Window: window, KeyPrefix: "rl:auth:", FailClosed: true}
}

// GlobalRateLimitConfig applies to every route.
func GlobalRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{Limit: limit, Window: window, KeyPrefix: "rl:ip:"}
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter counts requests in Redis when a client is given, and in a
// per-key token bucket otherwise.
type RateLimiter struct {
	config RateLimitConfig
	redis  *goredis.Client

	mu    sync.Mutex
	local map[string]*localLimiter
}

func NewRateLimiter(config RateLimitConfig, redis *goredis.Client) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Limit <= 0 {
		config.Limit = 1
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &RateLimiter{config: config, redis: redis, local: make(map[string]*localLimiter)}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.config.KeyPrefix + l.config.KeyFunc(c)

		var (
			allowed   bool
			remaining int
			resetAt   time.Time
		)
		if l.redis != nil {
			count, reset, err := l.checkRedis(c.Request.Context(), key)
			if err != nil {
				logger.Log.Error("Rate limit backend error", "key", key, "error", err)
				if l.config.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					c.Abort()
					return
				}
				allowed, remaining, resetAt = l.checkLocal(key, time.Now())
			} else {
				allowed, remaining, resetAt = count <= l.config.Limit, max(l.config.Limit-count, 0), reset
			}
		} else {
			allowed, remaining, resetAt = l.checkLocal(key, time.Now())
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if !allowed {
			retryAfter := max(int(time.Until(resetAt).Seconds()), 1)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			requestID, _ := c.Get("RequestID")
			logger.Log.Warn("Rate limit triggered", "ip", c.ClientIP(), "path", c.FullPath(), "request_id", requestID)
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// checkRedis runs the fixed-window counter script.
func (l *RateLimiter) checkRedis(ctx context.Context, key string) (int, time.Time, error) {
	ttlSeconds := int(l.config.Window.Seconds())
	result, err := l.redis.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)
	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

// checkLocal refills Limit tokens per Window, allowing a burst of Limit.
func (l *RateLimiter) checkLocal(key string, now time.Time) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.local[key]
	if !ok {
		every := l.config.Window / time.Duration(l.config.Limit)
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Every(every), l.config.Limit)}
		l.local[key] = entry
	}
	entry.lastSeen = now
	l.sweep(now)

	allowed := entry.limiter.AllowN(now, 1)
	tokens := int(entry.limiter.TokensAt(now))
	resetAt := now
	if missing := float64(l.config.Limit) - entry.limiter.TokensAt(now); missing > 0 {
		resetAt = now.Add(time.Duration(missing / float64(entry.limiter.Limit()) * float64(time.Second)))
	}
	return allowed, max(tokens, 0), resetAt
}

// sweep drops idle buckets; must be called with mu held.
func (l *RateLimiter) sweep(now time.Time) {
	if len(l.local) < 1024 {
		return
	}
	for k, e := range l.local {
		if now.Sub(e.lastSeen) > l.config.Window {
			delete(l.local, k)
		}
	}
}
