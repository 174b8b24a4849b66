// Package jwtmw issues access tokens for authorized users and verifies them on protected routes.
package jwtmw

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// EnvKeyJWTSecret names the environment variable holding the HMAC secret.
	EnvKeyJWTSecret = "JWT_SECRET"
	// EnvKeyJWTExpiration names the environment variable holding the token lifetime.
	EnvKeyJWTExpiration = "JWT_EXPIRATION"

	issuer            = "email-identity"
	defaultExpiration = time.Hour
)

// ErrNoSecret is returned when a generator is requested without a secret.
var ErrNoSecret = errors.New("jwt secret is not set")

// Config holds the token settings.
type Config struct {
	Secret     string
	Expiration time.Duration
}

// LoadConfigFromEnv reads JWT_SECRET and JWT_EXPIRATION (a Go duration, default 1h).
func LoadConfigFromEnv() Config {
	cfg := Config{
		Secret:     os.Getenv(EnvKeyJWTSecret),
		Expiration: defaultExpiration,
	}
	if raw := strings.TrimSpace(os.Getenv(EnvKeyJWTExpiration)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Expiration = d
		}
	}
	return cfg
}

// Generator signs HS256 tokens.
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *Generator {
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// NewGeneratorFromConfig creates a generator, refusing an empty secret.
func NewGeneratorFromConfig(cfg Config) (*Generator, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	return NewGenerator(cfg.Secret, cfg.Expiration), nil
}

// GenerateToken creates a signed JWT token with standard claims for the given user.
func (g *Generator) GenerateToken(userID uint, email string) (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"iss":   issuer,
		"exp":   now.Add(g.expiration).Unix(),
		"iat":   now.Unix(),
		"email": email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
