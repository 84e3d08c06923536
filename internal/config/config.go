package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. DataDir is the configuration root:
// the lock artifact, daemon socket, and default wallet directory all live
// underneath it.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	WalletPath string `toml:"wallet_path"`
	LogDir     string `toml:"log_dir"`
}

// Wallet contains wallet access configuration.
type Wallet struct {
	// Password is the configured wallet password. Empty means no password
	// was configured; the resolver falls back to prompting.
	Password string `toml:"password"`
}

// Daemon contains daemon lifecycle timing configuration, in seconds.
type Daemon struct {
	ReadyTimeout    int `toml:"ready_timeout"`
	DispatchTimeout int `toml:"dispatch_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for coffer.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Wallet  Wallet  `toml:"wallet"`
	Daemon  Daemon  `toml:"daemon"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/coffer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Paths.WalletPath)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon IPC socket path under the data directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "cofferd.sock")
}

// LockPath returns the flock target file under the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "cofferd.lock")
}

// HandlePath returns the daemon handle marker file under the data directory.
func (c *Config) HandlePath() string {
	return filepath.Join(c.Paths.DataDir, "cofferd.json")
}

// ReadyTimeout returns the readiness poll timeout as a duration.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Daemon.ReadyTimeout) * time.Second
}

// DispatchTimeout returns the per-command dispatch timeout as a duration.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.Daemon.DispatchTimeout) * time.Second
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
