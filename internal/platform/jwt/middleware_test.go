package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestAuthRequired_MissingBearerToken(t *testing.T) {

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"empty header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				c.Request.Header.Set("Authorization", tt.authHeader)
			}

			handler := AuthRequired("test-secret")
			handler(c)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
			if !c.IsAborted() {
				t.Error("expected request to be aborted")
			}
		})
	}
}

func TestAuthRequired_MissingJWTSecret(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer sometoken")

	handler := AuthRequired("")
	handler(c)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

// TestAuthRequired_InvalidToken covers tampered, foreign and expired tokens.
func TestAuthRequired_InvalidToken(t *testing.T) {
	const testSecret = "test-secret-key-for-invalid"

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", createTokenWithSecret("wrong-secret", 1, time.Hour)},
		{"expired token", createTokenWithSecret(testSecret, 1, -time.Hour)},
		{"wrong issuer", createToken(testSecret, jwt.MapClaims{"sub": float64(1), "iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix()})},
		{"no expiry", createToken(testSecret, jwt.MapClaims{"sub": float64(1), "iss": issuer})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.Header.Set("Authorization", "Bearer "+tt.token)

			handler := AuthRequired(testSecret)
			handler(c)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
		})
	}
}

// TestAuthRequired_ValidToken checks that valid tokens pass and expose their claims.
func TestAuthRequired_ValidToken(t *testing.T) {
	const testSecret = "test-secret-key-for-valid"

	tests := []struct {
		name           string
		userID         uint
		expectedUserID uint
	}{
		{"user id 1", 1, 1},
		{"user id 42", 42, 42},
		{"user id 999", 999, 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := createTokenWithSecret(testSecret, tt.userID, time.Hour)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.Header.Set("Authorization", "Bearer "+token)

			handler := AuthRequired(testSecret)
			handler(c)

			if c.IsAborted() {
				t.Errorf("expected request not to be aborted, response: %s", w.Body.String())
				return
			}

			userID, exists := c.Get(ContextUserID)
			if !exists {
				t.Error("expected userID to be set in context")
				return
			}
			if userID.(uint) != tt.expectedUserID {
				t.Errorf("expected userID %d, got %d", tt.expectedUserID, userID)
			}
			if email := c.GetString(ContextEmail); email != "test@example.com" {
				t.Errorf("expected email claim in context, got %q", email)
			}
		})
	}
}

// TestAuthRequired_InvalidSigningMethod rejects unsigned tokens.
func TestAuthRequired_InvalidSigningMethod(t *testing.T) {
	const testSecret = "test-secret-key-for-signing"

	// Create token with "none" algorithm (unsigned)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": float64(1),
		"iss": issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	tokenStr, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer "+tokenStr)

	handler := AuthRequired(testSecret)
	handler(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func createTokenWithSecret(secret string, userID uint, expiration time.Duration) string {
	return createToken(secret, jwt.MapClaims{
		"sub":   float64(userID),
		"iss":   issuer,
		"exp":   time.Now().Add(expiration).Unix(),
		"iat":   time.Now().Unix(),
		"email": "test@example.com",
	})
}

func createToken(secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(secret))
	return signed
}
