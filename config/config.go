// Package config loads console settings from the environment with an
// optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all console configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	ViewsDir string `mapstructure:"views_dir"`
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig points at the remote REST API the console fronts.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds session store settings
type SessionConfig struct {
	StorageKey   string `mapstructure:"storage_key"`
	RequiredRole string `mapstructure:"required_role"`
}

// StorageConfig holds the local persistence settings
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory or sqlite
	DSN    string `mapstructure:"dsn"`
}

// Load loads configuration from environment variables and an optional .env
// file in the working directory.
func Load() (*Config, error) {
	return LoadWithPath(".env")
}

// LoadWithPath loads configuration from a specific env file path.
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	// The .env file is optional; environment variables alone are enough.
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "douremember-console")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", false)

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 4000)
	v.SetDefault("SERVER_VIEWS_DIR", "./views")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("BACKEND_TIMEOUT", "30s")

	v.SetDefault("SESSION_STORAGE_KEY", "adminSession")
	v.SetDefault("SESSION_REQUIRED_ROLE", "administrador")

	v.SetDefault("STORAGE_DRIVER", "sqlite")
	v.SetDefault("STORAGE_DSN", "file:console.db?cache=shared")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")

	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ViewsDir = v.GetString("SERVER_VIEWS_DIR")

	cfg.Backend.BaseURL = v.GetString("BACKEND_BASE_URL")
	cfg.Backend.Timeout = v.GetDuration("BACKEND_TIMEOUT")

	cfg.Session.StorageKey = v.GetString("SESSION_STORAGE_KEY")
	cfg.Session.RequiredRole = v.GetString("SESSION_REQUIRED_ROLE")

	cfg.Storage.Driver = v.GetString("STORAGE_DRIVER")
	cfg.Storage.DSN = v.GetString("STORAGE_DSN")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}

	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		return fmt.Errorf("STORAGE_DSN is required for the sqlite driver")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
