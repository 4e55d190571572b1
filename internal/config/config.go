// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".trailmind/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
)

// Load reads configuration from ~/.trailmind/configs/config.json
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configPath)

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return unmarshalAndValidate(v)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshalAndValidate(v)
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshalAndValidate(v)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)

	// Store defaults
	v.SetDefault("store.path", filepath.Join(homeDir, ".trailmind/data/trailmind-log.json"))

	// AI defaults
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.base_url", "https://api.openai.com")
	v.SetDefault("ai.timeout_seconds", 25)

	// Limit defaults
	v.SetDefault("limits.cooldown_ms", 2500)
	v.SetDefault("limits.max_daily_calls", 30)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "sqlite")
	v.SetDefault("cache.sqlite_path", filepath.Join(homeDir, ".trailmind/db/trailmind.db"))

	// Backup defaults
	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.interval_minutes", 10)
}

// bindEnv lets the upstream credential and model come from the environment,
// matching the names the hosted deployment used.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.model", "OPENAI_MODEL")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if cfg.AI.TimeoutSeconds < 1 {
		return fmt.Errorf("ai.timeout_seconds must be at least 1, got %d", cfg.AI.TimeoutSeconds)
	}

	if cfg.Limits.CooldownMS < 0 {
		return fmt.Errorf("limits.cooldown_ms must not be negative, got %d", cfg.Limits.CooldownMS)
	}
	if cfg.Limits.MaxDailyCalls < 1 {
		return fmt.Errorf("limits.max_daily_calls must be at least 1, got %d", cfg.Limits.MaxDailyCalls)
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.Type != "sqlite" && cfg.Cache.Type != "postgres" {
			return fmt.Errorf("cache.type must be 'sqlite' or 'postgres', got '%s'", cfg.Cache.Type)
		}
		if cfg.Cache.Type == "sqlite" && cfg.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required when type is 'sqlite'")
		}
		if cfg.Cache.Type == "postgres" && cfg.Cache.PostgresDSN == "" {
			return fmt.Errorf("cache.postgres_dsn is required when type is 'postgres'")
		}
	}

	if cfg.Backup.IntervalMinutes < 0 {
		return fmt.Errorf("backup.interval_minutes must not be negative, got %d", cfg.Backup.IntervalMinutes)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Store: StoreConfig{
			Path: filepath.Join(homeDir, ".trailmind/data/trailmind-log.json"),
		},
		AI: AIConfig{
			Model:          "gpt-4o-mini",
			BaseURL:        "https://api.openai.com",
			TimeoutSeconds: 25,
		},
		Limits: LimitsConfig{
			CooldownMS:    2500,
			MaxDailyCalls: 30,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Type:       "sqlite",
			SQLitePath: filepath.Join(homeDir, ".trailmind/db/trailmind.db"),
		},
		Backup: BackupConfig{
			Enabled:         true,
			IntervalMinutes: 10,
		},
	}
}
