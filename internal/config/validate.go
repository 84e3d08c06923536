package config

import (
	"fmt"
	"path/filepath"
)

// Validate rejects configurations the daemon cannot operate with.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.Paths.DataDir) {
		return fmt.Errorf("data_dir must be an absolute path, got %q", c.Paths.DataDir)
	}
	if c.Paths.WalletPath != "" && !filepath.IsAbs(c.Paths.WalletPath) {
		return fmt.Errorf("wallet_path must be an absolute path, got %q", c.Paths.WalletPath)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
