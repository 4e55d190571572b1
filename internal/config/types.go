// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config is the top-level application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	AI     AIConfig     `mapstructure:"ai"`
	Limits LimitsConfig `mapstructure:"limits"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Backup BackupConfig `mapstructure:"backup"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StoreConfig holds journal store settings
type StoreConfig struct {
	// Path is the JSON file holding every daily log.
	Path string `mapstructure:"path"`
}

// AIConfig holds upstream AI settings. The API key can also come from the
// OPENAI_API_KEY environment variable, which takes precedence over the file.
type AIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LimitsConfig holds abuse-control settings for the generation endpoint
type LimitsConfig struct {
	CooldownMS    int `mapstructure:"cooldown_ms"`
	MaxDailyCalls int `mapstructure:"max_daily_calls"`
}

// CacheConfig holds analysis cache database settings
type CacheConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Type        string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// BackupConfig holds git backup settings for the store file
type BackupConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// IntervalMinutes schedules a periodic snapshot commit that picks up
	// edits made to the store file outside the server. 0 disables it.
	IntervalMinutes int `mapstructure:"interval_minutes"`
}
