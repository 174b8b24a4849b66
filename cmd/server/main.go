package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"email_identity/internal/app/di"
	"email_identity/internal/app/router"
	"email_identity/internal/feature/emailidentity/adapters"
	"email_identity/internal/feature/emailidentity/hooks"
	emailhandler "email_identity/internal/feature/emailidentity/transport/handler"
	"email_identity/internal/feature/emailidentity/usecase"
	"email_identity/internal/platform/cache"
	infradb "email_identity/internal/platform/db"
	infrahttp "email_identity/internal/platform/http"
	jwtmw "email_identity/internal/platform/jwt"
	"email_identity/internal/platform/metrics"
	"email_identity/internal/platform/ratelimit"
	infraredis "email_identity/internal/platform/redis"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		// .env is optional; the process environment wins either way
		slog.Info(".env not found; using system environment variables")
	}
	slog.SetDefault(newLogger(os.Getenv("LOG_LEVEL")))

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	identityCfg, err := usecase.LoadConfig()
	if err != nil {
		return err
	}

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := adapters.PrepareSchema(ctx, db, identityCfg); err != nil {
			return err
		}
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfigFromEnv()); err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository, wrapped with the Redis lookup cache when available
	users := di.NewUserRepository(db, rdb, identityCfg, cache.TTLFromEnv("CACHE_TTL", 5*time.Minute))

	// Usecase
	outboxKey := os.Getenv("CONFIRM_OUTBOX_KEY")
	if outboxKey == "" {
		outboxKey = hooks.DefaultOutboxKey
	}
	identity, err := di.NewEmailUsecase(identityCfg, users, di.NewHooks(rdb, outboxKey, slog.Default()))
	if err != nil {
		return err
	}

	// Handler
	rec := metrics.NewRecorder()
	opts := []emailhandler.Option{emailhandler.WithRecorder(rec)}
	jwtCfg := jwtmw.LoadConfigFromEnv()
	if gen, err := jwtmw.NewGeneratorFromConfig(jwtCfg); err != nil {
		slog.Warn("JWT_SECRET is not set. Authorize returns no token and /email/me rejects every request.")
	} else {
		opts = append(opts, emailhandler.WithTokenIssuer(gen))
	}
	emailH := emailhandler.NewEmailHandler(identity, identityCfg.EmailField, identityCfg.HashPasswordField, opts...)

	// Router
	engine := router.NewRouter(router.Deps{
		Email:     emailH,
		JWTSecret: jwtCfg.Secret,
		Limiter:   ratelimit.New(ratelimit.LoadConfigFromEnv()),
		Metrics:   rec,
	})

	srv := infrahttp.NewServer(infrahttp.AddrFromEnv(), engine)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "table", identityCfg.Table)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// newLogger returns a JSON logger on stdout at the given level (debug, info, warn, error).
func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}
