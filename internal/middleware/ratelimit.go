package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/logger"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/response"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimit limits requests per (client IP, route) within a fixed window.
// Store failures let the request through.
func RateLimit(store RateStore, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || requests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		key := rateLimitKeyPrefix + c.ClientIP() + "|" + c.Request.Method + " " + route

		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			logger.WithModule("ratelimit").Warn("rate limit store unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if ttl <= 0 {
			ttl = window
		}
		resetSeconds := strconv.Itoa(int(math.Ceil(ttl.Seconds())))

		c.Header("X-RateLimit-Limit", strconv.Itoa(requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, requests-count)))
		c.Header("X-RateLimit-Reset", resetSeconds)

		if count > requests {
			c.Header("Retry-After", resetSeconds)
			response.Abort(c, errors.ErrRateLimit)
			return
		}

		c.Next()
	}
}
