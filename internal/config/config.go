package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/daap14/blueprints/internal/filter"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port               int      `envconfig:"PORT" default:"8080"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	Version            string   `envconfig:"VERSION" default:"dev"`
	StoreBackend       string   `envconfig:"STORE_BACKEND" default:"memory"`
	DatabaseURL        string   `envconfig:"DATABASE_URL" default:""`
	RedisURL           string   `envconfig:"REDIS_URL" default:""`
	Filter             string   `envconfig:"BLUEPRINT_FILTER" default:"identity"`
	SeedSampleData     bool     `envconfig:"SEED_SAMPLE_DATA" default:"true"`
	SeedFile           string   `envconfig:"SEED_FILE" default:""`
	RateLimitRPS       int      `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst     int      `envconfig:"RATE_LIMIT_BURST" default:"100"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MonitorInterval    int      `envconfig:"STORE_MONITOR_INTERVAL" default:"30"`
	AuthEnabled        bool     `envconfig:"AUTH_ENABLED" default:"false"`
	APIKeysFile        string   `envconfig:"API_KEYS_FILE" default:""`
	BcryptCost         int      `envconfig:"BCRYPT_COST" default:"12"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FilterKind resolves the configured filter name.
func (c *Config) FilterKind() (filter.Kind, error) {
	return filter.Parse(c.Filter)
}

func (c *Config) validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	if _, err := c.FilterKind(); err != nil {
		return fmt.Errorf("invalid BLUEPRINT_FILTER: %w", err)
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.MonitorInterval < 0 {
		return errors.New("STORE_MONITOR_INTERVAL must not be negative")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
