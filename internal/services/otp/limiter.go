package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimiterConfig bounds how often codes can be requested for one phone.
type LimiterConfig struct {
	Cooldown     time.Duration
	Window       time.Duration
	MaxPerWindow int
}

// RedisLimiter enforces a cooldown between requests and a cap per window.
// Exceeding the cap blocks the phone for one window.
type RedisLimiter struct {
	client *redis.Client
	config LimiterConfig
}

func NewRedisLimiter(client *redis.Client, cfg LimiterConfig) *RedisLimiter {
	return &RedisLimiter{client: client, config: cfg}
}

func (l *RedisLimiter) Allow(ctx context.Context, phone string) (time.Duration, error) {
	blockKey := fmt.Sprintf("otp:block:%s", phone)
	lastKey := fmt.Sprintf("otp:last:%s", phone)
	countKey := fmt.Sprintf("otp:count:%s", phone)

	if ttl, err := l.client.TTL(ctx, blockKey).Result(); err != nil {
		return 0, err
	} else if ttl > 0 {
		return ttl, nil
	}

	if l.config.Cooldown > 0 {
		if ttl, err := l.client.TTL(ctx, lastKey).Result(); err != nil {
			return 0, err
		} else if ttl > 0 {
			return ttl, nil
		}
	}

	if l.config.MaxPerWindow > 0 && l.config.Window > 0 {
		count, err := l.client.Incr(ctx, countKey).Result()
		if err != nil {
			return 0, err
		}
		if count == 1 {
			if err := l.client.Expire(ctx, countKey, l.config.Window).Err(); err != nil {
				return 0, err
			}
		}
		if count > int64(l.config.MaxPerWindow) {
			if err := l.client.Set(ctx, blockKey, "1", l.config.Window).Err(); err != nil {
				return 0, err
			}
			return l.config.Window, nil
		}
	}

	if l.config.Cooldown > 0 {
		if err := l.client.Set(ctx, lastKey, "1", l.config.Cooldown).Err(); err != nil {
			return 0, err
		}
	}
	return 0, nil
}
