package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/arteza/studio/pkg/config"
	"github.com/arteza/studio/pkg/database"
)

// Remote backends.
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
)

// Config holds all configuration for the studio backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Per-IP limit on bookings and subscriptions (0 disables)
	WriteRateLimitRPS   float64 `env:"WRITE_RATE_LIMIT_RPS" envDefault:"1"`
	WriteRateLimitBurst int     `env:"WRITE_RATE_LIMIT_BURST" envDefault:"5"`
	// Cache-Control max-age of artwork reads in seconds (0 disables)
	CatalogCacheSeconds int `env:"CATALOG_CACHE_SECONDS" envDefault:"60"`

	// Redis slot storage
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart slots: key prefix and TTL in hours (0 keeps slots forever).
	CartStorageKey string `env:"CART_STORAGE_KEY" envDefault:"arteza-cart:"`
	CartTTLHours   int    `env:"CART_TTL_HOURS" envDefault:"720"`
	// Live carts unused for this many minutes are dropped from memory.
	CartIdleMinutes int `env:"CART_IDLE_MINUTES" envDefault:"30"`

	// Kafka notice events
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Remote data service
	RemoteBackend string `env:"REMOTE_BACKEND" envDefault:"postgrest"`
	RemoteURL     string `env:"REMOTE_URL" envDefault:"http://localhost:3000"`
	RemoteAPIKey  string `env:"REMOTE_API_KEY" envDefault:""`

	// PostgreSQL, used when REMOTE_BACKEND=postgres
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"arteza"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"arteza_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"studio"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load studio config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.WriteRateLimitRPS < 0 {
		return fmt.Errorf("WRITE_RATE_LIMIT_RPS must be >= 0, got %f", c.WriteRateLimitRPS)
	}
	if c.WriteRateLimitRPS > 0 && c.WriteRateLimitBurst < 1 {
		return fmt.Errorf("WRITE_RATE_LIMIT_BURST must be >= 1, got %d", c.WriteRateLimitBurst)
	}
	if c.CatalogCacheSeconds < 0 {
		return fmt.Errorf("CATALOG_CACHE_SECONDS must be >= 0, got %d", c.CatalogCacheSeconds)
	}
	if c.CartStorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY is required")
	}
	if c.CartTTLHours < 0 {
		return fmt.Errorf("CART_TTL_HOURS must be >= 0, got %d", c.CartTTLHours)
	}
	if c.CartIdleMinutes <= 0 {
		return fmt.Errorf("CART_IDLE_MINUTES must be > 0, got %d", c.CartIdleMinutes)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	switch c.RemoteBackend {
	case BackendPostgREST:
		u, err := url.Parse(c.RemoteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("REMOTE_URL must be an absolute URL, got %q", c.RemoteURL)
		}
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	default:
		return fmt.Errorf("REMOTE_BACKEND must be %q or %q, got %q", BackendPostgREST, BackendPostgres, c.RemoteBackend)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// CartTTL returns the slot expiry. Zero means slots never expire.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// CartIdle returns how long a live cart may stay unused in memory.
func (c *Config) CartIdle() time.Duration {
	return time.Duration(c.CartIdleMinutes) * time.Minute
}

// Postgres returns the pool configuration for the postgres backend.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}
