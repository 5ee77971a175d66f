package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "CHATKEEPER"

// Viper keys. Flag names are the same keys with dashes.
const (
	KeyConfigFile        = "config"
	KeyDBPath            = "db_path"
	KeyMaxOpenConns      = "max_open_conns"
	KeyKeyringService    = "keyring_service"
	KeyKeyringAccount    = "keyring_account"
	KeyUseMemoryKeyring  = "memory_keyring"
	KeyServerURL         = "server_url"
	KeyRequestTimeout    = "request_timeout"
	KeyRequestsPerSecond = "requests_per_second"
	KeySyncInterval      = "sync_interval"
	KeyLogLevel          = "log_level"
	KeyUserID            = "user_id"
)

// ErrInvalidConfig reports a value that cannot be used at runtime.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for the chatkeeper client.
//
// RequestsPerSecond of zero disables client-side rate limiting. An empty
// ServerURL means the client works offline only.
type Config struct {
	DBPath            string
	MaxOpenConns      int
	KeyringService    string
	KeyringAccount    string
	UseMemoryKeyring  bool
	ServerURL         string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	SyncInterval      time.Duration
	LogLevel          string
	UserID            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = DefaultDBPath()
	c.MaxOpenConns = 4
	c.KeyringService = common.KeyringService
	c.KeyringAccount = common.KeyringAccount
	c.UseMemoryKeyring = false
	c.ServerURL = ""
	c.RequestTimeout = 30 * time.Second
	c.RequestsPerSecond = 5
	c.SyncInterval = time.Minute
	c.LogLevel = "info"
	c.UserID = "local"
}

// DefaultDBPath places the database in the per-user config directory,
// falling back to the working directory when none is known.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "chatkeeper.db"
	}
	return filepath.Join(dir, "chatkeeper", "chatkeeper.db")
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeyDBPath)
	case c.MaxOpenConns <= 0:
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, KeyMaxOpenConns, c.MaxOpenConns)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, KeyRequestTimeout, c.RequestTimeout)
	case c.RequestsPerSecond < 0:
		return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidConfig, KeyRequestsPerSecond, c.RequestsPerSecond)
	case c.SyncInterval <= 0:
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, KeySyncInterval, c.SyncInterval)
	case c.KeyringService == "" || c.KeyringAccount == "":
		return fmt.Errorf("%w: keyring service and account are required", ErrInvalidConfig)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	var d Config
	d.LoadDefaults()

	v.SetDefault(KeyDBPath, d.DBPath)
	v.SetDefault(KeyMaxOpenConns, d.MaxOpenConns)
	v.SetDefault(KeyKeyringService, d.KeyringService)
	v.SetDefault(KeyKeyringAccount, d.KeyringAccount)
	v.SetDefault(KeyUseMemoryKeyring, d.UseMemoryKeyring)
	v.SetDefault(KeyServerURL, d.ServerURL)
	v.SetDefault(KeyRequestTimeout, d.RequestTimeout)
	v.SetDefault(KeyRequestsPerSecond, d.RequestsPerSecond)
	v.SetDefault(KeySyncInterval, d.SyncInterval)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyUserID, d.UserID)
}

// Load resolves a Config from v: defaults, then the JSON file named by the
// "config" key (if any), then CHATKEEPER_* variables, then bound flags.
// Later sources take precedence over earlier ones.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		DBPath:            v.GetString(KeyDBPath),
		MaxOpenConns:      v.GetInt(KeyMaxOpenConns),
		KeyringService:    v.GetString(KeyKeyringService),
		KeyringAccount:    v.GetString(KeyKeyringAccount),
		UseMemoryKeyring:  v.GetBool(KeyUseMemoryKeyring),
		ServerURL:         v.GetString(KeyServerURL),
		RequestTimeout:    v.GetDuration(KeyRequestTimeout),
		RequestsPerSecond: v.GetFloat64(KeyRequestsPerSecond),
		SyncInterval:      v.GetDuration(KeySyncInterval),
		LogLevel:          v.GetString(KeyLogLevel),
		UserID:            v.GetString(KeyUserID),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
