package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitWindow = time.Minute

// RateLimit caps requests per client IP in fixed one-minute windows counted
// in Redis. A nil client or a non-positive limit disables it; Redis errors
// let the request through.
func RateLimit(rdb *redis.Client, scope string, perMinute int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || perMinute <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		window := now.Truncate(rateLimitWindow)
		key := fmt.Sprintf("dealdesk:rate_limit:%s:%s:%d", scope, ip, window.Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			if log != nil {
				log.Warn("rate limit check failed", zap.String("scope", scope), zap.Error(err))
			}
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > int64(perMinute) {
			retry := int(window.Add(rateLimitWindow).Sub(now).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
