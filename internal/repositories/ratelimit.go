package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mpetrashov/user-geo-service/internal/logger"
)

// RateLimitRepository counts requests per client in fixed windows using Redis.
type RateLimitRepository struct {
	client *redis.Client
	window time.Duration
}

// NewRateLimitRepository creates a counter repository with the given window.
func NewRateLimitRepository(client *redis.Client, window time.Duration) *RateLimitRepository {
	return &RateLimitRepository{
		client: client,
		window: window,
	}
}

// Hit records one request for clientID in the current window and returns the
// window's running count, this request included. Keys expire with the window,
// so counters clean themselves up.
func (r *RateLimitRepository) Hit(ctx context.Context, clientID string) (int64, error) {
	bucket := time.Now().Unix() / int64(r.window.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%d", clientID, bucket)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		logger.Log.Errorw("failed to increment rate limit counter", "key", key, "error", err)
		return 0, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			logger.Log.Errorw("failed to set rate limit key expiration", "key", key, "error", err)
		}
	}

	return count, nil
}
