package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9091"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DatabaseURL    string `env:"APP_DATABASE_URL,required,notEmpty"`
	DBAutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	Keycloak KeycloakConfig

	RedisURL           string `env:"REDIS_URL"` // empty disables realm events
	EventsStream       string `env:"REALM_EVENTS_STREAM" envDefault:"realm_events"`
	EventsStreamMaxLen int64  `env:"REALM_EVENTS_MAXLEN" envDefault:"100000"`

	// smtp_server keys masked in published realm snapshots
	RedactFields []string `env:"EVENT_REDACT_FIELDS" envDefault:"password" envSeparator:","`
}

// KeycloakConfig holds the identity provider admin connection settings.
type KeycloakConfig struct {
	URL                string        `env:"KEYCLOAK_URL,required,notEmpty"`
	AdminUser          string        `env:"KEYCLOAK_ADMIN,required,notEmpty"`
	AdminPassword      string        `env:"KEYCLOAK_ADMIN_PASSWORD,required,notEmpty"`
	AdminRealm         string        `env:"KEYCLOAK_ADMIN_REALM" envDefault:"master"`
	ClientID           string        `env:"KEYCLOAK_CLIENT_ID" envDefault:"admin-cli"`
	InsecureSkipVerify bool          `env:"KEYCLOAK_INSECURE_SKIP_VERIFY" envDefault:"false"`
	RateLimit          float64       `env:"KEYCLOAK_RATE_LIMIT" envDefault:"0"` // requests per second, 0 = unlimited
	Timeout            time.Duration `env:"KEYCLOAK_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
	}
	if c.Keycloak.RateLimit < 0 {
		return fmt.Errorf("KEYCLOAK_RATE_LIMIT must not be negative, got %v", c.Keycloak.RateLimit)
	}
	return nil
}
