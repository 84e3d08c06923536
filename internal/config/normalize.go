package config

import (
	"path/filepath"
	"strings"
)

// normalize expands paths and fills derived defaults so the rest of the
// repository only ever sees absolute locations.
func (c *Config) normalize() error {
	var err error

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}

	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	} else if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	if strings.TrimSpace(c.Paths.WalletPath) != "" {
		if c.Paths.WalletPath, err = expandPath(c.Paths.WalletPath); err != nil {
			return err
		}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Daemon.ReadyTimeout <= 0 {
		c.Daemon.ReadyTimeout = defaultReadyTimeout
	}
	if c.Daemon.DispatchTimeout <= 0 {
		c.Daemon.DispatchTimeout = defaultDispatchTimeout
	}

	return nil
}

// DefaultWalletPath returns the wallet location used when none is configured.
func (c *Config) DefaultWalletPath() string {
	return filepath.Join(c.Paths.DataDir, "wallets", defaultWalletName)
}
