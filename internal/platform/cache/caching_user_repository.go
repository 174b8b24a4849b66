// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/usecase"
)

// CachingUserRepository decorates a UserRepository with Redis caching of lookups.
// Every cached lookup key is tracked in a per-user index set so that Save can drop all
// entries of a record, including those keyed by values that Save just overwrote.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
// A nil rdb disables caching.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// fillScript stores a lookup only if no Save bumped the write counter since the
// caller read it. KEYS: counter, lookup key, index set. ARGV: counter value seen, payload, ttl ms.
var fillScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or ''
if cur ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
redis.call('SADD', KEYS[3], KEYS[2])
redis.call('PEXPIRE', KEYS[3], ARGV[3])
return 1
`)

// FindOne returns the cached record when present, otherwise reads through to the inner repository.
// Misses are not cached.
func (c *CachingUserRepository) FindOne(ctx context.Context, field entity.Field, value string) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindOne(ctx, field, value)
	}

	key := c.lookupKey(field, value)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var u entity.User
		// safe() is lossy, so the stored record must really match the lookup.
		if err := json.Unmarshal(b, &u); err == nil && u.Value(field) == value {
			return &u, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Remember the write counter before reading the database
	seen, err := c.rdb.Get(ctx, c.versionKey()).Result()
	canFill := err == nil || errors.Is(err, redis.Nil)

	// 3) Fallback to database
	u, err := c.inner.FindOne(ctx, field, value)
	if err != nil {
		return nil, err
	}

	// 4) Store in cache unless a Save happened meanwhile (best effort)
	if canFill {
		if b, err := json.Marshal(u); err == nil {
			keys := []string{c.versionKey(), key, c.indexKey(u.ID)}
			if err := fillScript.Run(ctx, c.rdb, keys, seen, string(b), c.ttl.Milliseconds()).Err(); err != nil {
				slog.Debug("user cache fill failed", "key", key, "error", err)
			}
		}
	}

	return u, nil
}

// Save writes through to the inner repository and then invalidates every cached lookup of the record.
// A failed invalidation is logged; the write itself has already succeeded.
func (c *CachingUserRepository) Save(ctx context.Context, u *entity.User) error {
	if err := c.inner.Save(ctx, u); err != nil {
		return err
	}
	if c.rdb == nil || u.ID == 0 {
		return nil
	}
	if err := c.invalidate(ctx, u.ID); err != nil {
		slog.Warn("user cache invalidation failed", "user_id", u.ID, "error", err)
	}
	return nil
}

// invalidate bumps the write counter, so in-flight fills are discarded, then drops the cached lookups.
func (c *CachingUserRepository) invalidate(ctx context.Context, id uint) error {
	bumpErr := c.rdb.Incr(ctx, c.versionKey()).Err()

	idx := c.indexKey(id)
	keys, err := c.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return errors.Join(bumpErr, fmt.Errorf("failed to read cache index: %w", err))
	}
	if err := c.rdb.Del(ctx, append(keys, idx)...).Err(); err != nil {
		return errors.Join(bumpErr, fmt.Errorf("failed to invalidate cache: %w", err))
	}
	if bumpErr != nil {
		return fmt.Errorf("failed to bump cache version: %w", bumpErr)
	}
	return nil
}

// lookupKey generates the cache key for a lookup.
func (c *CachingUserRepository) lookupKey(field entity.Field, value string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, field, safe(value))
}

// versionKey is the counter every Save increments.
func (c *CachingUserRepository) versionKey() string {
	return c.namespace + ":writes"
}

// indexKey generates the key of the set tracking cached lookups of a user.
func (c *CachingUserRepository) indexKey(id uint) string {
	return fmt.Sprintf("%s:id:%d", c.namespace, id)
}
