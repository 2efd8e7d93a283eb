// Package config provides configuration management for techo.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	techoerrors "github.com/mkoseki/techo/internal/errors"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"
	// TechoDir is the techo configuration directory under $HOME
	TechoDir = ".techo"
	// DBFileName is the default database file name
	DBFileName = "techo.db"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Host to bind, empty means all interfaces
	Host string `yaml:"host,omitempty"`
	// Port to listen on
	Port int `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the storage settings. Dialect selects the driver;
// Path is used for sqlite, DSN for postgres.
type DatabaseConfig struct {
	Dialect string `yaml:"dialect"`
	Path    string `yaml:"path,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn, or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// Config represents the techo configuration.
type Config struct {
	// Version is the config file version
	Version int `yaml:"version"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the default configuration: sqlite under ~/.techo, text
// logs at info level.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Port: 8390,
		},
		Database: DatabaseConfig{
			Dialect: "sqlite",
			Path:    filepath.Join(home, TechoDir, DBFileName),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, TechoDir, ConfigFileName)
}

// Load loads the config from the default location.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads the config from a specific path. A missing file yields
// the defaults, not an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a specific path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks settings that would only fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &techoerrors.TechoError{
			Code: techoerrors.CodeConfigInvalid,
			What: fmt.Sprintf("invalid server port %d", c.Server.Port),
			Why:  "Port must be between 1 and 65535",
		}
	}

	switch c.Database.Dialect {
	case "sqlite":
		if c.Database.Path == "" {
			return &techoerrors.TechoError{
				Code: techoerrors.CodeConfigInvalid,
				What: "database path is required for the sqlite dialect",
			}
		}
	case "postgres":
		if c.Database.DSN == "" {
			return &techoerrors.TechoError{
				Code: techoerrors.CodeConfigInvalid,
				What: "database dsn is required for the postgres dialect",
			}
		}
	default:
		return &techoerrors.TechoError{
			Code: techoerrors.CodeConfigInvalid,
			What: fmt.Sprintf("unknown database dialect %q", c.Database.Dialect),
			Why:  "Supported dialects are sqlite and postgres",
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &techoerrors.TechoError{
			Code: techoerrors.CodeConfigInvalid,
			What: fmt.Sprintf("unknown log level %q", c.Log.Level),
		}
	}

	return nil
}
