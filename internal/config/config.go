// Package config loads application configuration from environment variables
// (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable named in its envconfig tag.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`
	Port string `envconfig:"APP_PORT" default:"8080"`

	DBUser        string `envconfig:"DB_USER" required:"true"`
	DBPass        string `envconfig:"DB_PASS"`
	DBHost        string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort        string `envconfig:"DB_PORT" default:"3306"`
	DBName        string `envconfig:"DB_NAME" required:"true"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	// JWTSecret verifies staff access tokens.  Staff login lives outside
	// this service; tokens are minted by cmd/stafftoken or an external IdP.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// AdminAPIKey and AdminAPIKeyHash are alternatives for the X-Admin-Key
	// header: plain value or bcrypt hash.  Both empty disables key access.
	AdminAPIKey     string `envconfig:"ADMIN_API_KEY"`
	AdminAPIKeyHash string `envconfig:"ADMIN_API_KEY_HASH"`

	HoldTTL       time.Duration `envconfig:"HOLD_TTL" default:"15m"`
	ClaimExtend   time.Duration `envconfig:"CLAIM_EXTEND" default:"15m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"0"`

	RabbitMQURL        string `envconfig:"RABBITMQ_URL"`
	BookingQueue       string `envconfig:"BOOKING_QUEUE" default:"booking.confirmed"`
	BookingLogConsumer bool   `envconfig:"BOOKING_LOG_CONSUMER" default:"false"`
	BookingLogDir      string `envconfig:"BOOKING_LOG_DIR" default:"logs"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	CookieSecure bool `envconfig:"COOKIE_SECURE" default:"false"`
}

// Load reads a .env file when one is present and then processes the
// environment into a Config.  Variables already set in the environment win
// over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if c.HoldTTL <= 0 {
		return Config{}, fmt.Errorf("HOLD_TTL must be positive, got %s", c.HoldTTL)
	}
	return c, nil
}
