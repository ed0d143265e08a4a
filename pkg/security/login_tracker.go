package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// LoginTrackerConfig holds configuration for sign-in lockout
type LoginTrackerConfig struct {
	MaxAttempts   int           // failed attempts before a block
	AttemptWindow time.Duration // how long failures are counted
	BlockDuration time.Duration // how long a block lasts
	UseIPTracking bool          // also block the client IP
}

func DefaultLoginTrackerConfig() LoginTrackerConfig {
	return LoginTrackerConfig{
		MaxAttempts:   5,
		AttemptWindow: 15 * time.Minute,
		BlockDuration: 15 * time.Minute,
		UseIPTracking: true,
	}
}

// Redis key patterns
const (
	failUserPrefix    = "fail:signin:user:"
	failIPPrefix      = "fail:signin:ip:"
	blockedUserPrefix = "blocked:signin:user:"
	blockedIPPrefix   = "blocked:signin:ip:"
)

// KEYS[1] = counter key, ARGV[1] = TTL in seconds
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// LoginTracker counts failed sign-ins in Redis and blocks an email (and
// optionally its IP) once MaxAttempts is reached. A nil client disables it.
type LoginTracker struct {
	config LoginTrackerConfig
	client *goredis.Client
	audit  *AuditLogger
}

func NewLoginTracker(config LoginTrackerConfig, client *goredis.Client, audit *AuditLogger) *LoginTracker {
	def := DefaultLoginTrackerConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.AttemptWindow <= 0 {
		config.AttemptWindow = def.AttemptWindow
	}
	if config.BlockDuration <= 0 {
		config.BlockDuration = def.BlockDuration
	}
	return &LoginTracker{config: config, client: client, audit: audit}
}

// Enabled reports whether attempts are being tracked.
func (lt *LoginTracker) Enabled() bool {
	return lt != nil && lt.client != nil
}

// IsBlocked fails open when tracking is disabled.
func (lt *LoginTracker) IsBlocked(ctx context.Context, email, ip string) (bool, error) {
	if !lt.Enabled() {
		return false, nil
	}
	keys := []string{blockedUserPrefix + normalize(email)}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, blockedIPPrefix+ip)
	}
	n, err := lt.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check sign-in block: %w", err)
	}
	return n > 0, nil
}

// RecordFailedAttempt returns whether the attempt triggered a block and the current count.
func (lt *LoginTracker) RecordFailedAttempt(ctx context.Context, email, ip, requestID string) (bool, int, error) {
	if !lt.Enabled() {
		return false, 0, nil
	}
	email = normalize(email)
	ttl := int(lt.config.AttemptWindow.Seconds())

	count, err := lt.increment(ctx, failUserPrefix+email, ttl)
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment sign-in counter: %w", err)
	}
	if lt.config.UseIPTracking && ip != "" {
		_, _ = lt.increment(ctx, failIPPrefix+ip, ttl)
	}

	lt.audit.Log(Event{
		Type:      EventSignInFailed,
		Email:     email,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]any{"attempts": count},
	})

	if count < lt.config.MaxAttempts {
		return false, count, nil
	}
	if err := lt.block(ctx, email, ip, requestID); err != nil {
		return true, count, err
	}
	return true, count, nil
}

// ClearAttempts resets the counters after a successful sign-in.
func (lt *LoginTracker) ClearAttempts(ctx context.Context, email, ip string) error {
	if !lt.Enabled() {
		return nil
	}
	keys := []string{failUserPrefix + normalize(email)}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, failIPPrefix+ip)
	}
	if err := lt.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear sign-in attempts: %w", err)
	}
	return nil
}

// RemainingAttempts returns how many failures are left before a block.
func (lt *LoginTracker) RemainingAttempts(ctx context.Context, email string) (int, error) {
	if !lt.Enabled() {
		return lt.config.MaxAttempts, nil
	}
	count, err := lt.client.Get(ctx, failUserPrefix+normalize(email)).Int()
	if errors.Is(err, goredis.Nil) {
		return lt.config.MaxAttempts, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempt count: %w", err)
	}
	return max(lt.config.MaxAttempts-count, 0), nil
}

// BlockTTL returns how long the email stays blocked; zero when it is not.
func (lt *LoginTracker) BlockTTL(ctx context.Context, email string) (time.Duration, error) {
	if !lt.Enabled() {
		return 0, nil
	}
	ttl, err := lt.client.TTL(ctx, blockedUserPrefix+normalize(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get block TTL: %w", err)
	}
	return max(ttl, 0), nil
}

func (lt *LoginTracker) increment(ctx context.Context, key string, ttlSeconds int) (int, error) {
	count, err := lt.client.Eval(ctx, incrWithTTLScript, []string{key}, ttlSeconds).Int()
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (lt *LoginTracker) block(ctx context.Context, email, ip, requestID string) error {
	if err := lt.client.Set(ctx, blockedUserPrefix+email, "1", lt.config.BlockDuration).Err(); err != nil {
		return fmt.Errorf("failed to set sign-in block: %w", err)
	}
	if lt.config.UseIPTracking && ip != "" {
		// The email is already blocked; an IP failure is not fatal.
		_ = lt.client.Set(ctx, blockedIPPrefix+ip, "1", lt.config.BlockDuration).Err()
	}
	lt.audit.Log(Event{
		Type:      EventBlockCreated,
		Email:     email,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]any{"duration_minutes": int(lt.config.BlockDuration.Minutes())},
	})
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
