// Package router builds the gin engine and its route table.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	emailhandler "email_identity/internal/feature/emailidentity/transport/handler"
	platformhandler "email_identity/internal/platform/http/handler"
	jwtmw "email_identity/internal/platform/jwt"
	"email_identity/internal/platform/metrics"
	"email_identity/internal/platform/ratelimit"
)

const requestIDHeader = "X-Request-ID"

// Deps holds what the route table needs.
type Deps struct {
	Email     *emailhandler.EmailHandler
	JWTSecret string
	Limiter   *ratelimit.MapLimiter
	Metrics   *metrics.Recorder
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// No authentication
	// Health check
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	if d.Metrics != nil {
		r.GET("/metrics", d.Metrics.Handler())
	}

	both := []string{http.MethodGet, http.MethodPost}
	email := r.Group("/email")
	{
		email.POST("/register", d.Email.Register)

		authorize := ratelimit.Middleware(d.Limiter, observer(d.Metrics))
		email.Match(both, "/authorize", authorize, d.Email.Authorize)
		email.GET("/authorize/:hashEmail/:hashPassword", authorize, d.Email.Authorize)

		email.Match(both, "/confirm", d.Email.Confirm)
		email.GET("/confirm/:hashEmail/:code", d.Email.Confirm)
	}

	// Routes requiring a bearer token
	auth := r.Group("/email")
	auth.Use(jwtmw.AuthRequired(d.JWTSecret))
	{
		auth.GET("/me", d.Email.Me)
	}

	return r
}

// observer avoids handing a typed nil *metrics.Recorder to the middleware.
func observer(m *metrics.Recorder) ratelimit.Observer {
	if m == nil {
		return nil
	}
	return m
}

// requestLogger tags every request with an id and logs it once it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		slog.Info("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.ClientIP(),
		)
	}
}
