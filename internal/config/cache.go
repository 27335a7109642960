package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CacheConfig defines settings for the response cache middleware.  It is
// only mounted on the trip list; seat maps change on every hold and are
// never cached.
type CacheConfig struct {
	Enabled      bool          `envconfig:"CACHE_ENABLED" default:"true"`
	MethodList   string        `envconfig:"CACHE_METHODS" default:"GET"`
	TTL          time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	KeyStrategy  string        `envconfig:"CACHE_KEY_STRATEGY" default:"route_query"`
	Prefix       string        `envconfig:"CACHE_PREFIX" default:"cache"`
	MaxBodyBytes int           `envconfig:"CACHE_MAX_BODY_BYTES" default:"1048576"`
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	var c CacheConfig
	if err := envconfig.Process("", &c); err != nil {
		return CacheConfig{Enabled: false}
	}
	return c
}

// Methods returns the upper-cased set of cacheable HTTP methods.
func (c CacheConfig) Methods() map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(c.MethodList, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
