package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gadgetghar/account-service/internal/core/domain"
)

// AttemptLimiter throttles abuse-prone unauthenticated operations with a
// fixed window per key. Key format: attempts:<op>:<ip>.
type AttemptLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewAttemptLimiter creates a limiter allowing max attempts per window.
func NewAttemptLimiter(client *redis.Client, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, max: int64(max), window: window}
}

// Allow counts one attempt for key and returns domain.ErrRateLimited once the
// window budget is exhausted. The first attempt in a window arms the expiry.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) error {
	full := "attempts:" + key
	count, err := l.client.Incr(ctx, full).Result()
	if err != nil {
		return fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, full, l.window).Err(); err != nil {
			return fmt.Errorf("rate limit expire: %w", err)
		}
	}
	if count > l.max {
		return domain.ErrRateLimited
	}
	return nil
}
