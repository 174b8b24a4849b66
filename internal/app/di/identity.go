// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"email_identity/internal/feature/emailidentity/adapters"
	"email_identity/internal/feature/emailidentity/hooks"
	"email_identity/internal/feature/emailidentity/usecase"
	"email_identity/internal/platform/cache"
	"email_identity/internal/platform/hash"
)

// NewUserRepository creates the record store for cfg.
// If Redis is available, lookups are cached in Redis.
// Otherwise, every lookup goes to the database.
func NewUserRepository(db *gorm.DB, rdb *redis.Client, cfg usecase.Config, ttl time.Duration) usecase.UserRepository {
	store := adapters.NewUserGorm(db, cfg)
	if rdb == nil {
		return store
	}
	return cache.NewCachingUserRepository(rdb, ttl, store, "users:"+cfg.Table)
}

// Hooks groups the per-operation hooks.
type Hooks struct {
	Register  usecase.Hook
	Confirm   usecase.Hook
	Authorize usecase.Hook
}

// NewHooks logs every outcome and, when Redis is available, queues confirmation
// messages for new registrations on outboxKey.
func NewHooks(rdb *redis.Client, outboxKey string, logger *slog.Logger) Hooks {
	var outbox usecase.Hook
	if rdb != nil {
		outbox = hooks.NewConfirmOutbox(rdb, outboxKey).Hook()
	} else {
		slog.Warn("Redis unavailable. Confirmation outbox disabled.")
	}
	return Hooks{
		Register:  hooks.Chain(outbox, hooks.Log(logger, "register")),
		Confirm:   hooks.Log(logger, "confirm"),
		Authorize: hooks.Log(logger, "authorize"),
	}
}

// NewEmailUsecase assembles the identity service with the hasher selected by cfg.
func NewEmailUsecase(cfg usecase.Config, users usecase.UserRepository, h Hooks) (*usecase.EmailUsecase, error) {
	hasher, err := hash.New(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	if hasher.Length() != cfg.HashLength {
		return nil, fmt.Errorf("%w: %s produces %d characters, hash columns hold %d",
			usecase.ErrInvalidConfig, hasher.Algorithm(), hasher.Length(), cfg.HashLength)
	}
	return usecase.NewEmailUsecase(users, hasher, hash.NewPasswordGenerator(hasher),
		usecase.WithRegisterHook(h.Register),
		usecase.WithConfirmHook(h.Confirm),
		usecase.WithAuthorizeHook(h.Authorize),
		usecase.WithConfirmLookup(cfg.ConfirmLookup),
	), nil
}
