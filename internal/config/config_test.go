package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}
	if cfg.DataHome != filepath.Join(home, "mddata") {
		t.Fatalf("default data home = %q", cfg.DataHome)
	}
	if cfg.HTTPTimeout != 300*time.Second {
		t.Fatalf("default http timeout = %s", cfg.HTTPTimeout)
	}
	if cfg.DownloadRetries != 3 {
		t.Fatalf("default retries = %d", cfg.DownloadRetries)
	}
	if cfg.LedgerPath() != filepath.Join(cfg.DataHome, "ledger.db") {
		t.Fatalf("ledger path = %q", cfg.LedgerPath())
	}
	if cfg.VerifyTTL <= 0 || cfg.LedgerCleanupInterval <= 0 {
		t.Fatalf("durations not derived: %s %s", cfg.VerifyTTL, cfg.LedgerCleanupInterval)
	}
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MDDATA_HOME", dir)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataHome != filepath.Clean(dir) {
		t.Fatalf("data home override ignored: %q", cfg.DataHome)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level override ignored: %q", cfg.LogLevel)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("http timeout override ignored: %s", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero http timeout")
	}
}

func TestExpandDataHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}

	cases := []struct {
		in   string
		want string
	}{
		{"", filepath.Join(home, "mddata")},
		{"~/custom_data", filepath.Join(home, "custom_data")},
		{"/var/lib/mddata", "/var/lib/mddata"},
	}
	for _, tc := range cases {
		got, err := ExpandDataHome(tc.in)
		if err != nil {
			t.Fatalf("ExpandDataHome(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ExpandDataHome(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
