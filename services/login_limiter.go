package services

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
)

const (
	maxLoginAttempts = 5
	loginLockWindow  = 15 * time.Minute
)

// LoginLimiter throttles failed sign-in attempts per account identifier.
// It is injected into the auth API so tests can substitute their own policy.
type LoginLimiter interface {
	// Allowed reports whether another attempt may proceed for key.
	Allowed(ctx context.Context, key string) (bool, error)
	// RecordFailure counts one failed attempt against key.
	RecordFailure(ctx context.Context, key string) error
	// Reset clears the failure window for key after a successful sign-in.
	Reset(ctx context.Context, key string) error
}

// RedisLoginLimiter implements LoginLimiter on a redis_rate limiter: five
// failures per fifteen minutes, with eviction handled by redis key TTLs.
type RedisLoginLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRedisLoginLimiter(limiter *redis_rate.Limiter) *RedisLoginLimiter {
	if limiter == nil {
		panic("limiter cannot be nil")
	}
	return &RedisLoginLimiter{limiter: limiter}
}

func (rl *RedisLoginLimiter) limit() redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   maxLoginAttempts,
		Burst:  maxLoginAttempts,
		Period: loginLockWindow,
	}
}

func (rl *RedisLoginLimiter) key(identifier string) string {
	return "login_attempts:" + identifier
}

// Allowed peeks at the remaining budget without consuming any of it.
func (rl *RedisLoginLimiter) Allowed(ctx context.Context, identifier string) (bool, error) {
	result, err := rl.limiter.AllowN(ctx, rl.key(identifier), rl.limit(), 0)
	if err != nil {
		return false, err
	}
	return result.Remaining > 0, nil
}

func (rl *RedisLoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	_, err := rl.limiter.Allow(ctx, rl.key(identifier), rl.limit())
	return err
}

func (rl *RedisLoginLimiter) Reset(ctx context.Context, identifier string) error {
	return rl.limiter.Reset(ctx, rl.key(identifier))
}
