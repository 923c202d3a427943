package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	DataHome      string `mapstructure:"mddata_home"`
	RegistryFile  string `mapstructure:"registry_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`

	HTTPTimeoutSeconds  int64         `mapstructure:"http_timeout_seconds"`
	DownloadRetries     int           `mapstructure:"download_retries"`
	RetryBackoffSeconds int64         `mapstructure:"retry_backoff_seconds"`
	HTTPTimeout         time.Duration `mapstructure:"-"`
	RetryBackoff        time.Duration `mapstructure:"-"`

	LedgerFilename        string        `mapstructure:"ledger_filename"`
	VerifyTTLSeconds      int64         `mapstructure:"verify_ttl_seconds"`
	LedgerCleanupSeconds  int64         `mapstructure:"ledger_cleanup_interval_seconds"`
	VerifyTTL             time.Duration `mapstructure:"-"`
	LedgerCleanupInterval time.Duration `mapstructure:"-"`
}

// DefaultDataHome is used when neither MDDATA_HOME nor an explicit path is set.
const DefaultDataHome = "~/mddata"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "mddata")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("mddata_home", DefaultDataHome)
	v.SetDefault("registry_file", "")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("http_timeout_seconds", 300)
	v.SetDefault("download_retries", 3)
	v.SetDefault("retry_backoff_seconds", 2)
	v.SetDefault("ledger_filename", "ledger.db")
	v.SetDefault("verify_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("ledger_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	home, err := ExpandDataHome(cfg.DataHome)
	if err != nil {
		return nil, err
	}
	cfg.DataHome = home

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.DownloadRetries < 0 {
		return nil, fmt.Errorf("invalid download_retries (must not be negative)")
	}
	if cfg.RetryBackoffSeconds <= 0 {
		return nil, fmt.Errorf("invalid retry_backoff_seconds (must be positive seconds)")
	}
	cfg.RetryBackoff = time.Duration(cfg.RetryBackoffSeconds) * time.Second

	if strings.TrimSpace(cfg.LedgerFilename) == "" {
		return nil, fmt.Errorf("ledger_filename must not be empty")
	}
	if cfg.VerifyTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid verify_ttl_seconds (must be positive seconds)")
	}
	if cfg.LedgerCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid ledger_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.VerifyTTL = time.Duration(cfg.VerifyTTLSeconds) * time.Second
	cfg.LedgerCleanupInterval = time.Duration(cfg.LedgerCleanupSeconds) * time.Second

	return &cfg, nil
}

// LedgerPath returns the bbolt ledger location inside the data home.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataHome, c.LedgerFilename)
}

// ExpandDataHome resolves a data home path, expanding a leading "~" to the
// user home directory. An empty path falls back to DefaultDataHome.
func ExpandDataHome(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultDataHome
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve user home: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Clean(path), nil
}
