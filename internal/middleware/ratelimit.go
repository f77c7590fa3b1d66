package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/farmiq/farmiq/pkg/errors"
	"github.com/farmiq/farmiq/pkg/logger"
	"github.com/farmiq/farmiq/pkg/response"
)

// RateLimit returns a middleware that limits requests per client IP within a fixed window.
// A store failure lets the request through.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		count, ttl, err := store.Increment(c.Request.Context(), c.ClientIP(), window)
		if err != nil {
			logger.WithModule("http").Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		resetIn := int(math.Ceil(ttl.Seconds()))
		if resetIn < 0 {
			resetIn = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetIn))

		if count > maxRequests {
			response.Abort(c, appErrors.ErrRateLimit.WithRetryAfter(max(1, resetIn)))
			return
		}

		c.Next()
	}
}
