package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/storage/models"
)

// DefaultGameMode is used when no world type qualifies the activity.
const DefaultGameMode = "STANDARD"

const (
	configDirName  = ".delve-companion"
	configFileName = "config.toml"
	dbFileName     = "delve.db"
)

// Config represents the application configuration.
type Config struct {
	// Chat log configuration
	Log LogConfig `toml:"log"`

	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// HTTP API configuration
	API APIConfig `toml:"api"`

	// Duplicate line cache configuration
	Cache CacheConfig `toml:"cache"`

	// Per-item display mode: SHOW, GREY or HIDE, keyed by item key or name.
	Rewards map[string]string `toml:"rewards"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// LogConfig contains chat log monitoring settings.
type LogConfig struct {
	FilePath     string `toml:"file_path"`     // Path to the client chat log
	PollInterval string `toml:"poll_interval"` // Polling interval (e.g., "1s")
	UseFsnotify  bool   `toml:"use_fsnotify"`  // Use file system events
	GameMode     string `toml:"game_mode"`     // Game mode recorded for log events
	PetWindow    string `toml:"pet_window"`    // How long after a floor a pet message still counts ("0s" disables the check)
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path             string `toml:"path"`              // Empty means ~/.delve-companion/delve.db
	HistoryRetention string `toml:"history_retention"` // Events older than this are pruned at startup; empty keeps everything

	BackupDir      string `toml:"backup_dir"`      // Empty means a "backups" directory next to the database
	BackupInterval string `toml:"backup_interval"` // Scheduled backups while serving; empty disables
	BackupKeep     int    `toml:"backup_keep"`     // Newest backups kept; 0 keeps all

	// BackupPassword encrypts backups. Only read from DELVE_BACKUP_PASSWORD.
	BackupPassword string `toml:"-"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Enabled        bool     `toml:"enabled"`
	Port           int      `toml:"port"`
	RateLimit      float64  `toml:"rate_limit"` // Requests per second per client
	Burst          int      `toml:"burst"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// CacheConfig sizes the cache used to drop replayed log lines.
type CacheConfig struct {
	TTL     string `toml:"ttl"`      // How long a seen line is remembered (e.g., "10m")
	MaxSize int    `toml:"max_size"` // Max remembered lines
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool   `toml:"debug_mode"` // Enable debug logging
	LogLevel  string `toml:"log_level"`  // debug, info, warn, error
	LogFormat string `toml:"log_format"` // text or json
	DropTable string `toml:"drop_table"` // Optional YAML drop table override
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			PollInterval: "1s",
			UseFsnotify:  true,
			GameMode:     DefaultGameMode,
			PetWindow:    "15m",
		},
		API: APIConfig{
			Enabled:        true,
			Port:           8765,
			RateLimit:      20,
			Burst:          40,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Cache: CacheConfig{
			TTL:     "10m",
			MaxSize: 1024,
		},
		Rewards: map[string]string{},
		App: AppConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, configDirName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return configDir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the default config file, then applies .env and environment
// overrides. Returns the default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads the TOML file at path on top of the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Rewards == nil {
		cfg.Rewards = map[string]string{}
	}
	return cfg, nil
}

// ApplyEnv overrides values from DELVE_* environment variables.
func (c *Config) ApplyEnv() error {
	c.Database.Path = getEnv("DELVE_DB_PATH", c.Database.Path)
	c.Log.FilePath = getEnv("DELVE_LOG_PATH", c.Log.FilePath)
	c.Log.GameMode = getEnv("DELVE_GAME_MODE", c.Log.GameMode)
	c.App.LogLevel = getEnv("DELVE_LOG_LEVEL", c.App.LogLevel)
	c.Database.BackupPassword = getEnv("DELVE_BACKUP_PASSWORD", c.Database.BackupPassword)

	if v, ok := os.LookupEnv("DELVE_API_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DELVE_API_PORT value: %w", err)
		}
		c.API.Port = port
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration as TOML to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Log.PollInterval); err != nil {
		return fmt.Errorf("invalid poll interval %q: %w", c.Log.PollInterval, err)
	}

	if _, err := time.ParseDuration(c.Log.PetWindow); err != nil {
		return fmt.Errorf("invalid pet window %q: %w", c.Log.PetWindow, err)
	}
	if _, err := c.GetHistoryRetention(); err != nil {
		return err
	}
	if _, err := c.GetBackupInterval(); err != nil {
		return err
	}
	if c.Database.BackupKeep < 0 {
		return fmt.Errorf("backup keep cannot be negative: %d", c.Database.BackupKeep)
	}

	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
	}
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache max size cannot be negative: %d", c.Cache.MaxSize)
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}
	if c.API.RateLimit < 0 || c.API.Burst < 0 {
		return fmt.Errorf("rate limit and burst cannot be negative")
	}

	if _, err := c.DisplayModes(); err != nil {
		return err
	}
	return nil
}

// GetLogPollInterval returns the log poll interval as a duration.
func (c *Config) GetLogPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Log.PollInterval)
}

// GetCacheTTL returns the duplicate-line cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetPetWindow returns the pet message window as a duration.
func (c *Config) GetPetWindow() (time.Duration, error) {
	return time.ParseDuration(c.Log.PetWindow)
}

// GetHistoryRetention returns the history retention, zero when unset.
func (c *Config) GetHistoryRetention() (time.Duration, error) {
	if c.Database.HistoryRetention == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Database.HistoryRetention)
	if err != nil {
		return 0, fmt.Errorf("invalid history retention %q: %w", c.Database.HistoryRetention, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("history retention cannot be negative: %s", d)
	}
	return d, nil
}

// GetBackupInterval returns the scheduled backup interval, zero when unset.
func (c *Config) GetBackupInterval() (time.Duration, error) {
	if c.Database.BackupInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Database.BackupInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid backup interval %q: %w", c.Database.BackupInterval, err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("backup interval must be at least 1m, got %s", d)
	}
	return d, nil
}

// GameMode returns the configured game mode, DefaultGameMode when unset.
func (c *Config) GameMode() string {
	if c.Log.GameMode == "" {
		return DefaultGameMode
	}
	return c.Log.GameMode
}

// DatabasePath returns the configured SQLite path or the default under the
// config directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFileName), nil
}

// DisplayModes resolves the [rewards] table. Items without an entry are SHOW.
func (c *Config) DisplayModes() (map[droprates.ItemID]models.DisplayMode, error) {
	modes := make(map[droprates.ItemID]models.DisplayMode, len(droprates.TrackedItems()))
	for _, it := range droprates.TrackedItems() {
		modes[it.ID] = models.DisplayShow
	}
	for name, value := range c.Rewards {
		item, ok := droprates.ItemByName(name)
		if !ok {
			return nil, fmt.Errorf("rewards: unknown item %q", name)
		}
		mode, err := models.ParseDisplayMode(value)
		if err != nil {
			return nil, fmt.Errorf("rewards.%s: %w", name, err)
		}
		modes[item.ID] = mode
	}
	return modes, nil
}

// Counted returns the "any unique" predicate for the configured display
// modes. Invalid entries fall back to SHOW.
func (c *Config) Counted() func(droprates.ItemID) bool {
	modes, err := c.DisplayModes()
	if err != nil {
		modes = nil
	}
	return func(id droprates.ItemID) bool {
		mode, ok := modes[id]
		return !ok || mode.IncludedInAggregate()
	}
}
