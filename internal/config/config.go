// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arvergara/Hualpen-sub001/pkg/logger"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `json:"app"`
	Database DatabaseConfig `json:"database"`
	Engine   EngineConfig   `json:"engine"`
	Metrics  MetricsConfig  `json:"metrics"`
	Logging  logger.Config  `json:"logging"`
}

// AppConfig is the service-level configuration.
type AppConfig struct {
	Name string `json:"name"`
	Env  string `json:"env"`
	Port int    `json:"port"`
}

// DatabaseConfig is the PostgreSQL connection configuration.
type DatabaseConfig struct {
	Enabled         bool          `json:"enabled"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DSN returns the connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// EngineConfig tunes the roster engine.
type EngineConfig struct {
	AttemptBudget   time.Duration `json:"attempt_budget"`
	Workers         int           `json:"workers"`
	Seed            int64         `json:"seed"`
	CeilingFactor   float64       `json:"ceiling_factor"`
	MultiShiftBonus int           `json:"multi_shift_bonus"`
	HourlyRate      float64       `json:"hourly_rate"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name: "hualpen-roster",
			Env:  "development",
			Port: 7040,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "hualpen",
			User:            "hualpen",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Engine: EngineConfig{
			AttemptBudget:   30 * time.Second,
			Workers:         4,
			CeilingFactor:   2.0,
			MultiShiftBonus: 0,
			HourlyRate:      0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load reads configuration from an optional file with environment overrides
// (HUALPEN_ prefix, __ as the path separator).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("HUALPEN_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hualpen_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port out of range: %d", c.App.Port)
	}
	if c.Engine.AttemptBudget <= 0 {
		return fmt.Errorf("engine.attempt_budget must be positive")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1")
	}
	if c.Engine.CeilingFactor < 1 {
		return fmt.Errorf("engine.ceiling_factor must be at least 1")
	}
	if c.Engine.MultiShiftBonus < 0 {
		return fmt.Errorf("engine.multi_shift_bonus must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
