package jwtmw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"email_identity/internal/api"
)

const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// AuthRequired returns a Gin middleware that validates bearer tokens signed with secret
// and stores the user id and email claims in the context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		if secret == "" {
			// Server misconfiguration (JWT_SECRET not set)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "server misconfigured"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			// Only HMAC is accepted
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(float64); ok { // JWT numbers are decoded as float64
				c.Set(ContextUserID, uint(sub))
			}
			if email, ok := claims["email"].(string); ok {
				c.Set(ContextEmail, email)
			}
		}
		c.Next()
	}
}
