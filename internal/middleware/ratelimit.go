package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewMemoryLimiter builds an in-process limiter from a formatted rate such as "120-M".
// An empty rate disables limiting and returns nil.
func NewMemoryLimiter(formatted string) (*limiter.Limiter, error) {
	if formatted == "" {
		return nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// Allow consumes one unit for key and reports whether it is within the limit.
// A nil limiter always allows. Limiter failures are logged and fail open.
func Allow(ctx context.Context, limiterInstance *limiter.Limiter, key string) bool {
	if limiterInstance == nil {
		return true
	}
	lctx, err := limiterInstance.Get(ctx, key)
	if err != nil {
		GetLoggerFromCtx(ctx).Error("Failed to get rate limit context", slog.String("key", key), slog.String("error", err.Error()))
		return true
	}
	if lctx.Reached {
		GetLoggerFromCtx(ctx).Warn("Rate limit exceeded", slog.String("key", key), slog.Int64("limit", lctx.Limit), slog.Int64("remaining_requests", lctx.Remaining))
		return false
	}
	return true
}

// RateLimit creates a Gin middleware for rate limiting requests per client IP.
func RateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Allow(c.Request.Context(), limiterInstance, c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
