package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
)

// HitCounter counts hits on key inside a fixed window that starts at the first hit.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisHitCounter struct {
	rdb *redis.Client
}

func NewRedisHitCounter(rdb *redis.Client) HitCounter {
	return &redisHitCounter{rdb: rdb}
}

// Hit sets the TTL in the same transaction as the increment, so a key can
// never outlive its window.
func (r *redisHitCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type RateLimiter struct {
	counter HitCounter
	prefix  string
	limit   int
	window  time.Duration
	logger  logger.Logger
}

func NewRateLimiter(counter HitCounter, prefix string, limit int, window time.Duration, log logger.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, prefix: prefix, limit: limit, window: window, logger: log}
}

// Middleware keys on the authenticated user when present, else on client IP.
// A counter failure lets the request through.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.limit <= 0 {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if userID, ok := GetUserIDFromGinContext(c); ok {
			subject = "user:" + userID.String()
		}
		key := fmt.Sprintf("%s:%s", r.prefix, subject)

		count, err := r.counter.Hit(c.Request.Context(), key, r.window)
		if err != nil {
			r.logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(r.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(r.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(r.limit) {
			c.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			c.Error(apperror.NewRateLimited(subject))
			c.Abort()
			return
		}
		c.Next()
	}
}
