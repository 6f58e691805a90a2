package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forecasthub/service-credentials/service/cache"
	"github.com/pitabwire/util"
)

// ErrInvalidBlockDuration rejects manual blocks with a non positive duration.
var ErrInvalidBlockDuration = errors.New("block duration must be greater than zero")

// RateLimitConfig holds configuration for login brute force protection
type RateLimitConfig struct {
	MaxFailedAttempts int           // Failed attempts tolerated inside the tracking window
	TrackingWindow    time.Duration // Sliding window the failure counter lives for
	BlockDuration     time.Duration // How long an ip stays blocked once the threshold is hit
}

// DefaultLoginRateLimitConfig returns the default rate limit config for login attempts
func DefaultLoginRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxFailedAttempts: 5,
		TrackingWindow:    30 * time.Minute,
		BlockDuration:     15 * time.Minute,
	}
}

// RateLimiter tracks failed attempt counters and ip blocks in an injected
// TTL store. With the in memory store it protects a single instance; point
// it at redis and the same logic covers a fleet.
type RateLimiter struct {
	config RateLimitConfig
	store  cache.Store
}

// NewRateLimiter creates a new rate limiter over the supplied store.
func NewRateLimiter(store cache.Store, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: config,
		store:  store,
	}
}

func failedAttemptKey(ip string) string {
	return fmt.Sprintf("login_fail:%s", ip)
}

func blockKey(ip string) string {
	return fmt.Sprintf("login_block:%s", ip)
}

func requestWindowKey(ip, endpoint string) string {
	return fmt.Sprintf("rl:%s:%s", endpoint, ip)
}

// IsRateLimitExceeded counts a request against a fixed window keyed by
// (ip, endpoint) and reports whether the caller went over maxRequests. The
// first request of a window starts the TTL; later requests ride it out.
func (rl *RateLimiter) IsRateLimitExceeded(ctx context.Context, ip, endpoint string, maxRequests int, window time.Duration) (bool, error) {
	count, err := rl.store.Increment(ctx, requestWindowKey(ip, endpoint), window)
	if err != nil {
		return false, err
	}
	return count > int64(maxRequests), nil
}

// RecordFailedLoginAttempt bumps the failure counter for the ip. Every
// failure restarts the tracking window, so the window keeps sliding while
// failures continue. At the threshold the ip is blocked for BlockDuration.
func (rl *RateLimiter) RecordFailedLoginAttempt(ctx context.Context, ip, contact string) error {
	log := util.Log(ctx)

	count, err := rl.store.Increment(ctx, failedAttemptKey(ip), rl.config.TrackingWindow)
	if err != nil {
		return err
	}
	err = rl.store.Expire(ctx, failedAttemptKey(ip), rl.config.TrackingWindow)
	if err != nil {
		return err
	}

	log.WithFields(map[string]any{
		"ip":             ip,
		"contact_prefix": maskContact(contact),
		"attempts":       count,
	}).Warn("failed login attempt recorded")

	if count >= int64(rl.config.MaxFailedAttempts) {
		blockedUntil := time.Now().Add(rl.config.BlockDuration)
		err = rl.store.Set(ctx, blockKey(ip), blockedUntil.Format(time.RFC3339Nano), rl.config.BlockDuration)
		if err != nil {
			return err
		}

		log.WithFields(map[string]any{
			"ip":            ip,
			"blocked_until": blockedUntil,
		}).Warn("ip blocked after repeated failed login attempts")
	}

	return nil
}

// IsIPBlocked reports whether the ip currently sits behind a block. A block
// record whose deadline already passed is cleared on the way out.
func (rl *RateLimiter) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	remaining, blocked, err := rl.GetBlockTimeRemaining(ctx, ip)
	if err != nil {
		return false, err
	}
	return blocked && remaining > 0, nil
}

// GetBlockTimeRemaining returns how much longer the ip stays blocked. The
// second return is false when no live block exists.
func (rl *RateLimiter) GetBlockTimeRemaining(ctx context.Context, ip string) (time.Duration, bool, error) {
	value, found, err := rl.store.Get(ctx, blockKey(ip))
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}

	blockedUntil, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		// Unreadable block records are dropped rather than trusted.
		_ = rl.store.Remove(ctx, blockKey(ip))
		return 0, false, nil
	}

	remaining := time.Until(blockedUntil)
	if remaining <= 0 {
		_ = rl.store.Remove(ctx, blockKey(ip))
		return 0, false, nil
	}
	return remaining, true, nil
}

// ResetFailedAttempts clears the failure counter after a successful login.
// An existing block is left standing; only UnblockIP lifts one early.
func (rl *RateLimiter) ResetFailedAttempts(ctx context.Context, ip string) error {
	return rl.store.Remove(ctx, failedAttemptKey(ip))
}

// BlockIP places a manual block on the ip, independent of the failure counter.
func (rl *RateLimiter) BlockIP(ctx context.Context, ip string, duration time.Duration, reason string) error {
	if duration <= 0 {
		return ErrInvalidBlockDuration
	}

	blockedUntil := time.Now().Add(duration)
	err := rl.store.Set(ctx, blockKey(ip), blockedUntil.Format(time.RFC3339Nano), duration)
	if err != nil {
		return err
	}

	util.Log(ctx).WithFields(map[string]any{
		"ip":            ip,
		"blocked_until": blockedUntil,
		"reason":        reason,
	}).Info("ip blocked manually")
	return nil
}

// UnblockIP lifts any block on the ip.
func (rl *RateLimiter) UnblockIP(ctx context.Context, ip string) error {
	return rl.store.Remove(ctx, blockKey(ip))
}

func maskContact(contact string) string {
	if contact == "" {
		return ""
	}
	return contact[:min(3, len(contact))] + "***"
}
