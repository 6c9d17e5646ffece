package config

import (
	"strings"
	"time"
)

// CacheConfig drives the response cache middleware. Caching is only
// applied to the listed methods; TTL bounds entry lifetime and
// MaxBodyBytes caps how large a response may be before it is skipped.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig,
// falling back to defaults when unset. Catalog endpoints (movies,
// theaters, showtime listings) are the intended cache targets, so the
// default TTL is short: seat availability must not go stale for long.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenvDefault("CACHE_ENABLED", "true") == "true",
		Methods:      parseMethods(getenvDefault("CACHE_METHODS", "GET")),
		TTL:          durDefault("CACHE_TTL", 30*time.Second),
		KeyStrategy:  getenvDefault("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       getenvDefault("CACHE_PREFIX", "cache"),
		MaxBodyBytes: intDefault("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

func durDefault(key string, def time.Duration) time.Duration {
	v := getenvDefault(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
