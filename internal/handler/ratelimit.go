package handler

import (
	"net/http"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"songstory-server/internal/config"
)

const msgRateLimited = "Too many songs requested, please try again later"

// NewRateLimitStore хранит счетчики в Redis, если клиент есть, иначе в памяти процесса.
func NewRateLimitStore(cfg config.RateLimitConfig, redisClient *redis.Client) ratelimit.Store {
	if redisClient != nil {
		return ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        cfg.Window,
			Limit:       uint(cfg.Limit),
		})
	}
	return ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  cfg.Window,
		Limit: uint(cfg.Limit),
	})
}

// RateLimit ограничивает запросы по IP клиента. Превышение показывает форму с ошибкой и кодом 429.
func (h *StoryHandler) RateLimit(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			h.logger.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", retryAfter(info.ResetTime))
			c.HTML(http.StatusTooManyRequests, "index.html", h.formData(formRequest(c), msgRateLimited))
			c.Abort()
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

func retryAfter(reset time.Time) string {
	seconds := int(time.Until(reset).Seconds()) + 1
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
