// Package config loads cardvault settings from a YAML file and CARDVAULT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Guard   GuardConfig   `yaml:"guard" mapstructure:"guard"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	// Tiered puts an in-memory cache in front of the sqlite or redis backend.
	Tiered bool `yaml:"tiered" mapstructure:"tiered"`
}

type GuardConfig struct {
	MaxRequests   int           `yaml:"max_requests" mapstructure:"max_requests"`
	Window        time.Duration `yaml:"window" mapstructure:"window"`
	MaxEntries    int           `yaml:"max_entries" mapstructure:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join(dataDir(), "cardvault.db"),
			RedisAddr:  "localhost:6379",
		},
		Guard: GuardConfig{
			MaxRequests:   10,
			Window:        time.Minute,
			MaxEntries:    10_000,
			SweepInterval: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func dataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cardvault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cardvault")
}

// Load reads configuration from path, or when path is empty from
// cardvault.yaml in the working directory or $XDG_CONFIG_HOME/cardvault.
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cardvault")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "cardvault"))
		}
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "cardvault"))
	}

	v.SetEnvPrefix("CARDVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cardvault/config: read: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("cardvault/config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables can override
// keys that the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.redis_addr", cfg.Storage.RedisAddr)
	v.SetDefault("storage.redis_password", cfg.Storage.RedisPassword)
	v.SetDefault("storage.redis_db", cfg.Storage.RedisDB)
	v.SetDefault("storage.tiered", cfg.Storage.Tiered)
	v.SetDefault("guard.max_requests", cfg.Guard.MaxRequests)
	v.SetDefault("guard.window", cfg.Guard.Window)
	v.SetDefault("guard.max_entries", cfg.Guard.MaxEntries)
	v.SetDefault("guard.sweep_interval", cfg.Guard.SweepInterval)
	v.SetDefault("log.level", cfg.Log.Level)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("cardvault/config: storage.sqlite_path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("cardvault/config: storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cardvault/config: unknown storage.backend %q", c.Storage.Backend)
	}

	if c.Guard.MaxRequests <= 0 {
		return fmt.Errorf("cardvault/config: guard.max_requests must be positive, got %d", c.Guard.MaxRequests)
	}
	if c.Guard.Window <= 0 {
		return fmt.Errorf("cardvault/config: guard.window must be positive, got %s", c.Guard.Window)
	}
	if c.Guard.MaxEntries <= 0 {
		return fmt.Errorf("cardvault/config: guard.max_entries must be positive, got %d", c.Guard.MaxEntries)
	}
	if c.Guard.SweepInterval <= 0 {
		return fmt.Errorf("cardvault/config: guard.sweep_interval must be positive, got %s", c.Guard.SweepInterval)
	}
	return nil
}
