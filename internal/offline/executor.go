// Package offline executes commands directly in the foreground process when
// offline execution is requested. It mirrors daemon execution but may prompt
// the user for credentials.
package offline

import (
	"context"
	"log/slog"
	"strings"

	"coffer/internal/command"
	"coffer/internal/config"
	"coffer/internal/credentials"
	"coffer/internal/devices"
	"coffer/internal/faults"
	"coffer/internal/logging"
	"coffer/internal/wallet"
)

// Executor runs commands without a daemon.
type Executor struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *command.Registry
	resolver *credentials.Resolver
}

// Option customizes executor construction.
type Option func(*Executor)

// WithResolver overrides the credential resolver, mainly for tests.
func WithResolver(resolver *credentials.Resolver) Option {
	return func(e *Executor) { e.resolver = resolver }
}

// New constructs an offline executor for one configuration root.
func New(cfg *config.Config, logger *slog.Logger, registry *command.Registry, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Executor{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "offline"),
		registry: registry,
		resolver: credentials.NewResolver(
			devices.NewRegistry(logger, devices.UdevPlugin{}), nil, logger),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one command in-process. Commands that reach the network refuse
// to run here; everything else behaves exactly as it would under the daemon,
// except that missing credentials are prompted for.
func (e *Executor) Execute(ctx context.Context, req *command.Request, walletPath, password string) (any, error) {
	reg, err := e.registry.Lookup(req.Command)
	if err != nil {
		return nil, err
	}
	if err := reg.ValidateArity(req.Args); err != nil {
		return nil, err
	}
	if reg.RequiresNetwork {
		return nil, faults.OfflineNetworkRequired(req.Command)
	}

	env := &command.Env{
		Control:    &control{executor: e},
		WalletPath: e.resolveWalletPath(walletPath),
	}

	if !reg.RequiresStore {
		if env.WalletPath == "" {
			// Store creation may bootstrap the default wallet location.
			env.WalletPath = e.cfg.DefaultWalletPath()
		}
		if reg.RequiresPassword {
			// Only store creation takes a password without an existing store;
			// a brand new password is typed twice.
			secret, err := e.resolver.Resolve(ctx, nil, credentials.Options{
				Interactive:        credentials.Interactive(),
				ConfiguredPassword: e.configuredPassword(password),
				Confirm:            true,
			})
			if err != nil {
				return nil, err
			}
			defer secret.Destroy()
			env.Secret = secret.Bytes()
		}
		return reg.Handler(ctx, env, req)
	}

	if env.WalletPath == "" {
		return nil, faults.NoStorePath()
	}

	w, err := wallet.Open(ctx, env.WalletPath)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	env.Wallet = w

	secret, err := e.resolver.Resolve(ctx, w, credentials.Options{
		Interactive:        credentials.Interactive(),
		ConfiguredPassword: e.configuredPassword(password),
	})
	if err != nil {
		return nil, err
	}
	defer secret.Destroy()
	env.Secret = secret.Bytes()

	if err := w.CheckPassword(env.Secret); err != nil {
		return nil, err
	}

	result, err := reg.Handler(ctx, env, req)
	if err != nil {
		return nil, err
	}
	if err := w.Save(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveWalletPath prefers the per-request path over the configured one.
// It returns "" when neither names a store; store-bound commands turn that
// into NoStorePath before any store I/O happens.
func (e *Executor) resolveWalletPath(requested string) string {
	path := strings.TrimSpace(requested)
	if path == "" {
		path = strings.TrimSpace(e.cfg.Paths.WalletPath)
	}
	return path
}

func (e *Executor) configuredPassword(flag string) string {
	if flag != "" {
		return flag
	}
	return e.cfg.Wallet.Password
}

type control struct {
	executor *Executor
}

func (c *control) Info(context.Context) map[string]any {
	walletPath := c.executor.resolveWalletPath("")
	if walletPath == "" {
		walletPath = c.executor.cfg.DefaultWalletPath()
	}
	return map[string]any{
		"version":       command.Version,
		"data_dir":      c.executor.cfg.Paths.DataDir,
		"wallet_path":   walletPath,
		"wallet_exists": wallet.Exists(walletPath),
		"connected":     false,
		"offline":       true,
	}
}

func (c *control) Stop() error {
	return faults.DaemonNotRunning()
}
