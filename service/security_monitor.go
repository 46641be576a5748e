package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IReuseMonitor counts refresh-reuse events per user inside a rolling
// window, so repeated replay attempts can be escalated instead of drowning
// in ordinary 401 noise.
type IReuseMonitor interface {
	RecordRefreshReuse(ctx context.Context, userID uuid.UUID) (int64, error)
}

// RedisReuseMonitor implements IReuseMonitor on a Redis counter with a TTL
// window. The counter is best-effort telemetry: losing it on a Redis restart
// only resets the escalation window.
type RedisReuseMonitor struct {
	client redis.Cmdable
	window time.Duration
}

func NewRedisReuseMonitor(client redis.Cmdable, window time.Duration) *RedisReuseMonitor {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisReuseMonitor{client: client, window: window}
}

func reuseKey(userID uuid.UUID) string {
	return fmt.Sprintf("auth:reuse:%s", userID)
}

// RecordRefreshReuse increments the user's reuse counter and returns the
// count observed within the current window.
func (m *RedisReuseMonitor) RecordRefreshReuse(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := reuseKey(userID)

	count, err := m.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment reuse counter: %w", err)
	}
	if count == 1 {
		if err := m.client.Expire(ctx, key, m.window).Err(); err != nil {
			return count, fmt.Errorf("failed to set reuse counter window: %w", err)
		}
	}
	return count, nil
}
