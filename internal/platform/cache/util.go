package cache

import (
	"os"
	"strings"
	"time"
)

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// TTLFromEnv parses a duration from the named environment variable, returning def when
// the variable is empty, malformed or not positive.
func TTLFromEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return def
	}
	return ttl
}
