package config

// Redis backs the rate limiter and the response cache.  Both degrade to
// pass-through when no client is available, so a Redis outage never blocks
// seat holds.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds REDIS_* variables.  REDIS_HOST and REDIS_PORT take
// precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT"`
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	TLS      bool   `envconfig:"REDIS_TLS" default:"false"`
}

func (c RedisConfig) address() string {
	if c.Host != "" && c.Port != "" {
		return c.Host + ":" + c.Port
	}
	return c.Addr
}

// NewRedisClient builds a client from the environment and pings it.  It
// returns nil when the configuration is invalid or the server does not
// answer within two seconds; callers must treat nil as "no Redis".
func NewRedisClient() *redis.Client {
	var c RedisConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil
	}
	var tlsConf *tls.Config
	if c.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      c.address(),
		Password:  c.Password,
		DB:        c.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
