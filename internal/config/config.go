package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Registry  RegistryConfig
	Bootstrap BootstrapConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	APIPrefix    string        `envconfig:"API_PREFIX" default:"/api/v1"`
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL" required:"true"`
	MaxConns        int32         `envconfig:"DATABASE_MAX_CONNS" default:"25"`
	MinConns        int32         `envconfig:"DATABASE_MIN_CONNS" default:"5"`
	MaxConnLifetime time.Duration `envconfig:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"DATABASE_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RegistryConfig holds the Health Engine's tuning knobs.
type RegistryConfig struct {
	HealthCheckInterval time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"30s"`
	HealthCheckTimeout  time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`
	UnhealthyThreshold  int           `envconfig:"UNHEALTHY_THRESHOLD" default:"3"`
	HeartbeatTimeout    time.Duration `envconfig:"HEARTBEAT_TIMEOUT" default:"60s"`
}

// BootstrapConfig controls the preload document and self-registration.
type BootstrapConfig struct {
	DocumentPath string `envconfig:"BOOTSTRAP_DOCUMENT" default:"services.yaml"`
	SelfRegister bool   `envconfig:"SELF_REGISTER" default:"false"`
	ServiceID    string `envconfig:"SERVICE_ID" default:"registry"`
	BasePath     string `envconfig:"BASE_PATH" default:"/registry"`
}

// Load loads an optional .env file (ignored if absent) then reads
// configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks configuration constraints.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be in range 1..65535")
	}
	if c.Registry.UnhealthyThreshold < 1 {
		return fmt.Errorf("UNHEALTHY_THRESHOLD must be at least 1")
	}
	if c.Registry.HealthCheckInterval <= 0 || c.Registry.HealthCheckTimeout <= 0 || c.Registry.HeartbeatTimeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL, HEALTH_CHECK_TIMEOUT and HEARTBEAT_TIMEOUT must be positive")
	}
	return nil
}
