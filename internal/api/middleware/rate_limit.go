package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

// RateLimit applies a per-IP GCRA limit of perMinute requests backed by Redis.
// rdb nil disables it; Redis errors fail open.
func RateLimit(rdb *goredis.Client, perMinute int, logger *zap.Logger) gin.HandlerFunc {
	if rdb == nil || perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := redis_rate.NewLimiter(rdb)
	limit := redis_rate.PerMinute(perMinute)

	return func(c *gin.Context) {
		key := "ratelimit:ip:" + c.ClientIP()
		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			logger.Warn("rate limiter error, failing open", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			response.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
