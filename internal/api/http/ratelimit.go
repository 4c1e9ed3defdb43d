package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const rateLimitPrefix = "ratelimit:"

// Limiter decides whether a client may issue another request in the current window.
type Limiter interface {
	// Allow counts one hit for key. When the limit is exceeded it returns false
	// and the time left until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RedisLimiter is a fixed-window counter stored in Redis.
type RedisLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

// NewRedisLimiter builds a limiter allowing requests hits per window.
func NewRedisLimiter(client *redis.Client, requests int, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, requests: requests, window: window}
}

// Allow implements Limiter. The window key is created with its TTL in the same
// MULTI block that counts the hit, so a counter can never outlive its window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = rateLimitPrefix + key
	var (
		hits *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		hits = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return true, 0, err
	}
	if hits.Val() <= int64(l.requests) {
		return true, 0, nil
	}
	retry := ttl.Val()
	if retry <= 0 {
		retry = l.window
	}
	return false, retry, nil
}

// RateLimitMiddleware rejects clients over their budget with 429. Limiter
// failures let the request through.
func RateLimitMiddleware(limiter Limiter, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		allowed, retry, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return apperrors.NewRateLimited("too many requests")
		}
		return c.Next()
	}
}
