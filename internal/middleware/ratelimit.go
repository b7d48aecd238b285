package middleware

import (
	"fmt"
	"lms_backend/pkg/logger"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisRateLimiter 固定窗口计数，多实例部署时共享
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Limit Redis 不可用时放行
func (rl *RedisRateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, c.ClientIP())
		ctx := c.Request.Context()

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rl.client.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			ttl, _ := rl.client.TTL(ctx, key).Result()
			c.Header("Retry-After", fmt.Sprintf("%.0f", ttl.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
