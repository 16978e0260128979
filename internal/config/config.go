package config // package config loads application configuration from environment variables

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each section is embedded
// so that envconfig reads every field under its own full variable name.
type Config struct {
	AppConfig
	DBConfig
	RedisConfig
	AMQPConfig
	CacheConfig
	RateLimitConfig
	RatingConfig
}

// AppConfig holds HTTP, auth and clock settings.
type AppConfig struct {
	Env          string `envconfig:"APP_ENV" default:"dev"`             // application environment (e.g. "dev", "prod")
	Port         string `envconfig:"APP_PORT" default:"8080"`           // HTTP port to listen on
	Timezone     string `envconfig:"APP_TIMEZONE" default:"UTC"`        // where calendar days begin for reports
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`        // secret used to sign JWTs
	AccessTTLMin int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"60"` // access token time-to-live in minutes
	BcryptCost   int    `envconfig:"BCRYPT_COST" default:"12"`          // bcrypt cost for password hashing
}

// DBConfig holds the MySQL connection settings.
type DBConfig struct {
	User string `envconfig:"DB_USER" required:"true"`
	Pass string `envconfig:"DB_PASS"` // empty allowed
	Host string `envconfig:"DB_HOST" required:"true"`
	Port string `envconfig:"DB_PORT" default:"3306"`
	Name string `envconfig:"DB_NAME" required:"true"`
}

// AMQPConfig points at the broker carrying rating repair events.  An
// empty URL disables both the publisher and the consumer.
type AMQPConfig struct {
	URL string `envconfig:"AMQP_URL"`
}

// RatingConfig tunes the rating maintainer.
type RatingConfig struct {
	BackfillInterval time.Duration `envconfig:"RATING_BACKFILL_INTERVAL" default:"1h"` // 0 disables the job
	LockTTL          time.Duration `envconfig:"RATING_LOCK_TTL" default:"10s"`
}

// IsProd reports whether the service runs in production.
func (c AppConfig) IsProd() bool { return c.Env == "prod" }

// Location resolves Timezone.
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	for key, v := range map[string]string{
		"JWT_SECRET": cfg.JWTSecret,
		"DB_USER":    cfg.DBConfig.User,
		"DB_HOST":    cfg.DBConfig.Host,
		"DB_NAME":    cfg.DBConfig.Name,
	} {
		if v == "" {
			return Config{}, fmt.Errorf("missing required env var: %s", key)
		}
	}
	cfg.RateLimitConfig = cfg.RateLimitConfig.normalized()
	return cfg, nil
}
