// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
//
// DatabaseURL has no default on purpose: the Neon DSN carries credentials and
// must come from the environment. Consumers that cannot work without it fail
// at the point of use.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	DatabaseURL string `env:"NEON_DATABASE_URL"`
	// Pool sizing mirrors the bounded pool contract: at least one warm
	// connection, at most twenty.
	PoolMinConns   int32         `env:"DB_POOL_MIN_CONNS" envDefault:"1"`
	PoolMaxConns   int32         `env:"DB_POOL_MAX_CONNS" envDefault:"20"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
	PingTimeout    time.Duration `env:"DB_PING_TIMEOUT" envDefault:"5s"`
	// SeedProfile optionally points at a YAML seed profile; empty means the
	// built-in example profile.
	SeedProfile     string `env:"SEED_PROFILE"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"fusiondb"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

var dsnPassword = regexp.MustCompile(`:([^:@/]+)@`)

// RedactedDSN returns the database URL with the password replaced, safe for
// logs and diagnostics output.
func (c Config) RedactedDSN() string {
	return dsnPassword.ReplaceAllString(c.DatabaseURL, ":****@")
}
