// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres | pgx | sqlite
		URL    string `yaml:"url"`
	} `yaml:"database"`

	Store struct {
		Timeout     time.Duration `yaml:"timeout"`
		ReadRetries uint64        `yaml:"read_retries"`
	} `yaml:"store"`

	Feed struct {
		Driver  string        `yaml:"driver"` // memory | rabbitmq
		Buffer  int           `yaml:"buffer"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"feed"`

	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for any field the file omits.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Database.Driver = "postgres"
	cfg.Store.Timeout = 5 * time.Second
	cfg.Store.ReadRetries = 3
	cfg.Feed.Driver = "memory"
	cfg.Feed.Buffer = 16
	cfg.Feed.Timeout = 5 * time.Second
	cfg.Log.Level = "info"
	return cfg
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	switch c.Feed.Driver {
	case "memory":
	case "rabbitmq":
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq.url is required when feed.driver is rabbitmq")
		}
	default:
		return fmt.Errorf("unsupported feed driver %q", c.Feed.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive")
	}
	return nil
}
