package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/prperemyshlev/pages-service/pkg/observability"
	"go.uber.org/zap"
)

// RateLimitRule is one route budget
type RateLimitRule struct {
	Scope    string
	Requests int
	Window   time.Duration
	// Message is returned with the 429 response
	Message string
}

// RateLimitMiddleware rejects a client once it exceeds the rule inside the window.
// Clients are keyed as "<scope>:<ip>". Limiter failures let the request through.
func RateLimitMiddleware(limiter service.RateLimiter, metrics *observability.Metrics, logger *zap.Logger, rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rule.Scope + ":" + c.ClientIP()

		allowed, err := limiter.Allow(c.Request.Context(), key, rule.Requests, rule.Window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("scope", rule.Scope), zap.Error(err))
			c.Next()
			return
		}

		remaining, err := limiter.Remaining(c.Request.Context(), key, rule.Requests, rule.Window)
		if err != nil {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			metrics.RateLimited(c.Request.Context(), rule.Scope)
			c.Header("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Failure(rule.Message))
			return
		}

		c.Next()
	}
}

// TrustProxies makes c.ClientIP honour X-Forwarded-For and X-Real-IP only
// when the peer is one of proxies. A nil list trusts no one.
func TrustProxies(engine *gin.Engine, proxies []string) error {
	engine.ForwardedByClientIP = true
	engine.RemoteIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}
	return engine.SetTrustedProxies(proxies)
}
