package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"email_identity/internal/api"
)

// Observer is notified about rejected requests.
type Observer interface {
	Limited(route string)
}

// Middleware rejects requests with 429 once the client IP exhausts its bucket.
// obs may be nil.
func Middleware(l *MapLimiter, obs Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.Allow(c.ClientIP(), time.Now()) {
			c.Next()
			return
		}
		slog.Warn("rate limit exceeded", "remote_addr", c.ClientIP(), "path", c.FullPath())
		if obs != nil {
			obs.Limited(c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "too many requests"})
	}
}
