// Package ratelimit limits request frequency per client key.
package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	EnvKeyRPS   = "AUTHORIZE_RATE_RPS"
	EnvKeyBurst = "AUTHORIZE_RATE_BURST"

	defaultRPS     = 5
	defaultBurst   = 10
	defaultIdleTTL = 10 * time.Minute
	// sweepEvery is how many Allow calls pass between idle-entry sweeps.
	sweepEvery = 512
)

// Config holds the token bucket parameters. A non-positive RPS disables limiting.
type Config struct {
	RPS   float64
	Burst int
}

// LoadConfigFromEnv reads AUTHORIZE_RATE_RPS and AUTHORIZE_RATE_BURST.
// Unparseable values keep the defaults; AUTHORIZE_RATE_RPS=0 disables the limiter.
func LoadConfigFromEnv() Config {
	cfg := Config{RPS: defaultRPS, Burst: defaultBurst}
	if raw := strings.TrimSpace(os.Getenv(EnvKeyRPS)); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			cfg.RPS = v
		}
	}
	if raw := strings.TrimSpace(os.Getenv(EnvKeyBurst)); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.Burst = v
		}
	}
	return cfg
}

// MapLimiter keeps one token bucket per key and evicts idle buckets.
type MapLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*entry
	hits  uint64
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns a limiter for cfg, or nil when cfg disables limiting.
// A nil *MapLimiter allows everything.
func New(cfg Config) *MapLimiter {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil
	}
	return &MapLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		idleTTL: defaultIdleTTL,
		byKey:   make(map[string]*entry),
	}
}

// Allow reports whether one request for key may proceed at now.
func (l *MapLimiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%sweepEvery == 0 {
		l.sweep(now)
	}
	return allowed
}

func (l *MapLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}

// Len returns the number of tracked keys.
func (l *MapLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
