package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"order_chat/internal/metrics"
	"order_chat/internal/service"
	"order_chat/pkg/logger"
)

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	log              logger.Logger
}

// NewRateLimitMiddleware accepts a nil service, in which case Limit lets
// every request through.
func NewRateLimitMiddleware(rateLimitService service.RateLimitService, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		log:              log,
	}
}

// Limit counts requests per authenticated user, or per client IP otherwise.
func (m *RateLimitMiddleware) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.rateLimitService == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:ip:%s", scope, c.ClientIP())
		if identity := IdentityFromContext(c); identity.Authenticated() {
			key = fmt.Sprintf("%s:user:%d", scope, identity.UserID)
		}

		allowed, remaining := m.rateLimitService.Allow(c.Request.Context(), key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(m.rateLimitService.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			metrics.RateLimitExceeded.Inc()
			m.log.Warn("Rate limit exceeded", "key", key)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
