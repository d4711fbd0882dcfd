// Package config loads leadbook settings from the environment.
//
// Every field is bound to a variable through struct tags:
//
//	env       primary variable name
//	envAlt    fallback variable name
//	default   value used when neither variable is set
//	required  "true" fails the load when the value is missing
//
// Load applies defaults and then Validate, which reports every problem in one
// error so a misconfigured deployment fails on the first start.
package config

import (
	"net"
	"strconv"
	"time"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Rate limiter backends.
const (
	RateBackendMemory = "memory"
	RateBackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	// Store selects the persistence backend: postgres or memory.
	Store string `env:"STORE" default:"postgres"`

	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the drain of in-flight imports and requests.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is applied by middleware to non-streaming routes.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds Postgres pool settings. URL is required when
// Store is postgres.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies the embedded schema at startup.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// ImportConfig bounds batch imports.
type ImportConfig struct {
	// MaxRows is the largest accepted batch.
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"200"`

	// MaxFileSize caps the request body of an upload, in bytes (1 MiB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"1048576"`

	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`
}

// RateLimitConfig is the per-user mutation budget.
type RateLimitConfig struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED" default:"true"`
	Limit   int           `env:"RATE_LIMIT_LIMIT" default:"10"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" default:"60s"`

	// SweepInterval is how often the memory backend drops expired windows.
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" default:"5m"`

	// Backend is memory or redis.
	Backend string `env:"RATE_LIMIT_BACKEND" default:"memory"`
}

// RedisConfig is used when the rate limit backend is redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" default:"0"`
}

// AuthConfig controls how the acting user is identified.
type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens. Empty disables tokens.
	JWTSecret string `env:"AUTH_JWT_SECRET" envAlt:"JWT_SECRET"`

	// TrustHeaders accepts X-User-* headers from an auth proxy.
	TrustHeaders bool `env:"AUTH_TRUST_HEADERS" default:"false"`

	// DevUser, as "id:email[:name]", is used when no credentials are sent.
	// For local development only.
	DevUser string `env:"AUTH_DEV_USER"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
