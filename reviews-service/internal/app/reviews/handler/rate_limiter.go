package handler

import (
	"net/http"
	"strconv"
	"time"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "rate_limit:"

// RateLimiter - счетчик запросов в фиксированном окне на Redis (INCR + EXPIRE).
// Окно выставляется каждый раз, когда у ключа нет TTL, так что ключ не остается вечным.
// При недоступном Redis пропускает запросы
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Limit ограничивает маршрут route по IP клиента
func (l *RateLimiter) Limit(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rateLimitKeyPrefix + route + ":" + c.ClientIP()

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpIncr)
		_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		timer.ObserveDuration()
		if err != nil {
			metrics.RecordRedisError(serviceName, metrics.RedisOpIncr)
			logger.Warn().Err(err).Str("route", route).Msg("Rate limiter unavailable, request allowed")
			c.Next()
			return
		}
		count := incr.Val()

		// -1: ключ без срока жизни (первый запрос окна или прошлый EXPIRE не прошел)
		if ttl.Val() < 0 {
			if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
				metrics.RecordRedisError(serviceName, metrics.RedisOpExpire)
				logger.Warn().Err(err).Str("key", key).Msg("Failed to set rate limit window")
			}
		}

		remaining := int64(l.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(l.limit) {
			metrics.RateLimitRejections.WithLabelValues(route).Inc()
			respondError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
