package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"coffer/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to report exists=false")
	}
	if path != missing {
		t.Fatalf("resolved path = %q, want %q", path, missing)
	}
	if cfg.Daemon.ReadyTimeout != 5 || cfg.Daemon.DispatchTimeout != 30 {
		t.Fatalf("unexpected timeout defaults: %+v", cfg.Daemon)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Paths.DataDir == "" || !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not normalized: %q", cfg.Paths.DataDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(base, "data") + `"
wallet_path = "` + filepath.Join(base, "wallets", "main") + `"

[wallet]
password = "hunter2"

[daemon]
ready_timeout = 2
dispatch_timeout = 7

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Wallet.Password != "hunter2" {
		t.Fatalf("password = %q", cfg.Wallet.Password)
	}
	if cfg.ReadyTimeout() != 2*time.Second {
		t.Fatalf("ready timeout = %s", cfg.ReadyTimeout())
	}
	if cfg.DispatchTimeout() != 7*time.Second {
		t.Fatalf("dispatch timeout = %s", cfg.DispatchTimeout())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[logging]
format = "yaml"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(cfgPath); err == nil {
		t.Fatal("expected validation error for bad logging format")
	}
}

func TestArtifactPathsLiveUnderDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/coffer"

	if got := cfg.SocketPath(); got != "/var/lib/coffer/cofferd.sock" {
		t.Fatalf("socket path = %q", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/coffer/cofferd.lock" {
		t.Fatalf("lock path = %q", got)
	}
	if got := cfg.HandlePath(); got != "/var/lib/coffer/cofferd.json" {
		t.Fatalf("handle path = %q", got)
	}
	if got := cfg.DefaultWalletPath(); got != "/var/lib/coffer/wallets/default_wallet" {
		t.Fatalf("default wallet path = %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(target); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(target); err == nil {
		t.Fatal("expected second WriteSample to refuse overwrite")
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
