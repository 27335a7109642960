package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig configures the Redis token bucket applied to the hold and
// claim endpoints, the ones a script would hammer to grab seats.
type RateLimitConfig struct {
	Enabled        bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Capacity       int           `envconfig:"RATE_LIMIT_CAPACITY" default:"30"`
	RefillTokens   int           `envconfig:"RATE_LIMIT_REFILL_TOKENS" default:"1"`
	RefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	TTL            time.Duration `envconfig:"RATE_LIMIT_TTL" default:"10m"`
	KeyStrategy    string        `envconfig:"RATE_LIMIT_KEY_STRATEGY" default:"ip_route"`
	Prefix         string        `envconfig:"RATE_LIMIT_PREFIX" default:"rl"`
	Debug          bool          `envconfig:"RATE_LIMIT_DEBUG" default:"false"`
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables and clamps nonsensical
// values.  A malformed variable falls back to the defaults.
func LoadRateLimitConfig() RateLimitConfig {
	var def RateLimitConfig
	if err := envconfig.Process("", &def); err != nil {
		def = RateLimitConfig{
			Enabled: true, Capacity: 30, RefillTokens: 1, RefillInterval: time.Second,
			TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
		}
	}
	return def.normalize()
}

func (c RateLimitConfig) normalize() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
