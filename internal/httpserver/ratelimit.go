package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/cache"
)

// rateLimit counts requests per client IP, method and route.
func rateLimit(limiter *cache.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}
		key := c.ClientIP() + ":" + c.Request.Method + ":" + c.FullPath()
		allowed, remaining, reset, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Fail open when Redis is unreachable.
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(reset.Seconds())))
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorView{Message: "too many requests", Code: "RateLimited"})
			return
		}
		c.Next()
	}
}
