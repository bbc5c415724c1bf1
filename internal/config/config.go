package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeDevelopment = "development"
	AuthModeJWT         = "jwt"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	AuthMode       string        `mapstructure:"AUTH_MODE"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	StoreBackend   string        `mapstructure:"STORE_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"AUTH_MODE", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"STORE_BACKEND", "SESSION_TTL", "REDIS_URL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
}

// Load reads the environment and an optional .env file in the working
// directory. It applies defaults but does not validate; call Validate.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_MODE", "") // inferred from ENV
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)

	// Unmarshal only sees env vars that are bound.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns AUTH_MODE when set. Otherwise development
// environments use the dev stub and everything else requires JWTs.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return AuthModeDevelopment
	}
	return AuthModeJWT
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case AuthModeDevelopment:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=development is not allowed when ENV=production")
		}
	case AuthModeJWT:
		if c.AuthJWKSURL == "" && c.AuthSigningKey == "" {
			return fmt.Errorf("AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when AUTH_MODE is %q", AuthModeJWT)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeDevelopment, AuthModeJWT, mode)
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND is %q", StoreRedis)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", StorePostgres)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, redis or postgres, got %q", c.StoreBackend)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst == 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
