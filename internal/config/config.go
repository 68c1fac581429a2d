// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig holds the Postgres connection string. An empty DSN selects
// the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret   string        `yaml:"secret" env:"AUTH_SECRET"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL"`
}

// AdminConfig seeds the initial admin account. Leaving username or password
// empty disables seeding.
type AdminConfig struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME"`
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if it
// exists, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !stderrors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return stderrors.New("auth secret is required (AUTH_SECRET)")
	}
	if c.Server.Addr == "" {
		return stderrors.New("server addr is required")
	}
	return nil
}
