package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig drives the Redis token-bucket middleware. The
// booking endpoints are the ones worth protecting (a seat-grab rush is
// exactly when the limiter earns its keep), so the defaults are tuned
// for authenticated per-user keys.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig builds a RateLimitConfig from the environment,
// clamping nonsensical values to safe minimums.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       intDefault("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   intDefault("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: durDefault("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            durDefault("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenvDefault("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         getenvDefault("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}
