package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"production"` // "development" or "production"
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":9091"`
	PathBase   string `env:"PATH_BASE" envDefault:"/gateway"`

	PostgresURL string `env:"POSTGRES_URL,required"`

	RedisURL       string        `env:"REDIS_URL,required"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"gateway:"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	AuthIssuer        string        `env:"AUTH_ISSUER,required"`
	AuthAudience      string        `env:"AUTH_AUDIENCE,required"`
	AuthSecret        string        `env:"AUTH_SECRET"` // HS256 shared secret; empty means keys are discovered from the issuer
	AuthRequiredScope string        `env:"AUTH_REQUIRED_SCOPE" envDefault:"gateway.all"`
	AuthClockSkew     time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"60s"`
	SigningKeyTTL     time.Duration `env:"SIGNING_KEY_TTL" envDefault:"15m"`

	MultitenancyEnabled bool   `env:"MULTITENANCY_ENABLED" envDefault:"true"`
	TenantHeader        string `env:"TENANT_HEADER" envDefault:"X-Tenant-Id"`

	// Comma-separated origin allow-list; wildcard subdomains supported,
	// e.g. "https://*.example.com".
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
	Languages          string `env:"LANGUAGES" envDefault:"en,zh-Hans"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"100"`

	AuditSpoolPath string `env:"AUDIT_SPOOL_PATH" envDefault:"./data/audit.spool"`
}

// IsDevelopment reports whether the host runs in development mode.
// Environment-dependent behavior is decided at runtime; there is no
// build-time gating.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
