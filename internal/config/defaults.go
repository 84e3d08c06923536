package config

const (
	defaultDataDir         = "~/.local/share/coffer"
	defaultWalletName      = "default_wallet"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultReadyTimeout    = 5
	defaultDispatchTimeout = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Daemon: Daemon{
			ReadyTimeout:    defaultReadyTimeout,
			DispatchTimeout: defaultDispatchTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
