// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"coffer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.WalletPath = filepath.Join(base, "wallets", "test_wallet")
	cfg.Daemon.ReadyTimeout = 2
	cfg.Daemon.DispatchTimeout = 5

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithPassword sets the configured wallet password on the test config.
func WithPassword(password string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Wallet.Password = password
	}
}

// WithWalletPath overrides the wallet store path on the test config.
func WithWalletPath(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.WalletPath = path
	}
}
