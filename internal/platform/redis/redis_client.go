// Package redis creates the Redis client shared by the lookup cache and the confirmation outbox.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned when REDIS_HOST is empty.
var ErrNotConfigured = errors.New("redis not configured")

// Config holds the Redis connection settings.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LoadConfigFromEnv reads REDIS_HOST, REDIS_PORT and REDIS_PASSWORD.
func LoadConfigFromEnv() Config {
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	return Config{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, ErrNotConfigured
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr(), "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Addr())
	return rdb, nil
}
