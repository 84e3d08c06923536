package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"coffer/internal/command"
	"coffer/internal/config"
	"coffer/internal/credentials"
	"coffer/internal/devices"
	"coffer/internal/faults"
	"coffer/internal/lockfile"
	"coffer/internal/logging"
	"coffer/internal/wallet"
)

// Daemon executes dispatched commands for one configuration root.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *command.Registry
	resolver *credentials.Resolver
	network  command.Network

	claim *lockfile.Claim
	token string

	startedAt time.Time
	running   atomic.Bool
	stopOnce  sync.Once
	stop      context.CancelFunc

	mu          sync.Mutex
	walletLocks map[string]*sync.Mutex
}

// Option customizes daemon construction.
type Option func(*Daemon)

// WithNetwork attaches the network collaborator used by broadcast-style
// commands. Without it those commands fail with a user-facing error.
func WithNetwork(network command.Network) Option {
	return func(d *Daemon) { d.network = network }
}

// WithDeviceRegistry overrides the hardware device registry.
func WithDeviceRegistry(registry *devices.Registry) Option {
	return func(d *Daemon) {
		d.resolver = credentials.NewResolver(registry, nil, d.logger)
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, registry *command.Registry, opts ...Option) (*Daemon, error) {
	if cfg == nil || registry == nil {
		return nil, errors.New("daemon requires config and command registry")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		registry: registry,
		resolver: credentials.NewResolver(
			devices.NewRegistry(logger, devices.UdevPlugin{}), nil, logger),
		walletLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start claims the configuration root. A live owner elsewhere yields the
// AlreadyRunning control signal; a stale owner is reclaimed silently.
func (d *Daemon) Start(ctx context.Context, stop context.CancelFunc, token string) error {
	if d.running.Load() {
		return errors.New("daemon already started in this process")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("daemon requires an access token")
	}

	manager := lockfile.New(d.cfg.Paths.DataDir)
	claim, owner, err := manager.TryClaim()
	if err != nil {
		return err
	}
	if claim == nil {
		endpoint := ""
		if owner != nil {
			endpoint = owner.Endpoint
		}
		return faults.AlreadyRunning(endpoint)
	}

	d.claim = claim
	d.token = token
	d.stop = stop
	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("data_dir", d.cfg.Paths.DataDir))
	return nil
}

// Publish records the daemon handle once the IPC endpoint is listening. The
// readiness poll on the parent side waits for exactly this marker.
func (d *Daemon) Publish(endpoint string) error {
	if d.claim == nil {
		return errors.New("daemon has no claim to publish")
	}
	return d.claim.Publish(lockfile.Handle{
		PID:      os.Getpid(),
		Endpoint: endpoint,
		Token:    d.token,
	})
}

// Token returns the access token clients must present.
func (d *Daemon) Token() string { return d.token }

// Running reports whether the daemon holds its claim.
func (d *Daemon) Running() bool { return d.running.Load() }

// Close releases the claim and removes the handle marker.
func (d *Daemon) Close() error {
	if !d.running.Swap(false) {
		return nil
	}
	err := d.claim.Release()
	d.claim = nil
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return err
}

// Execute runs one dispatched request. Faults become the returned error;
// panics inside command bodies are recovered and classified as internal.
func (d *Daemon) Execute(ctx context.Context, req *command.Request, walletPath, password string) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = faults.Internal(fmt.Errorf("command %s panicked: %v", req.Command, recovered))
			d.logger.Error("command panicked",
				logging.String(logging.FieldCommand, req.Command),
				logging.Error(err))
		}
	}()

	reg, err := d.registry.Lookup(req.Command)
	if err != nil {
		return nil, err
	}
	if err := reg.ValidateArity(req.Args); err != nil {
		return nil, err
	}
	if reg.RequiresNetwork && d.network == nil {
		return nil, faults.New(faults.CodeOfflineNetworkRequired, faults.KindUserFacing,
			"command %q requires the network but the daemon has no network session", req.Command)
	}

	env := &command.Env{
		Network:    d.network,
		Control:    &control{daemon: d},
		WalletPath: d.resolveWalletPath(walletPath),
	}

	if !reg.RequiresStore {
		if env.WalletPath == "" {
			// Store creation may bootstrap the default wallet location.
			env.WalletPath = d.cfg.DefaultWalletPath()
		}
		if reg.RequiresPassword {
			if password == "" {
				password = d.cfg.Wallet.Password
			}
			secret := credentials.NewSecretFromString(password)
			defer secret.Destroy()
			env.Secret = secret.Bytes()
		}
		return reg.Handler(ctx, env, req)
	}

	if env.WalletPath == "" {
		return nil, faults.NoStorePath()
	}
	unlock := d.lockWallet(env.WalletPath)
	defer unlock()

	w, err := wallet.Open(ctx, env.WalletPath)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	env.Wallet = w

	secret, err := d.resolveSecret(ctx, w, password)
	if err != nil {
		return nil, err
	}
	defer secret.Destroy()
	env.Secret = secret.Bytes()

	if err := w.CheckPassword(env.Secret); err != nil {
		return nil, err
	}

	result, err = reg.Handler(ctx, env, req)
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
func (d *Daemon) resolveWalletPath(requested string) string {
	path := strings.TrimSpace(requested)
	if path == "" {
		path = strings.TrimSpace(d.cfg.Paths.WalletPath)
	}
	return path
}

func (d *Daemon) resolveSecret(ctx context.Context, w *wallet.Wallet, password string) (*credentials.Secret, error) {
	if password == "" {
		password = d.cfg.Wallet.Password
	}
	// The daemon never prompts; interactive resolution happens in the
	// foreground process before dispatch.
	return d.resolver.Resolve(ctx, w, credentials.Options{
		Interactive:        false,
		ConfiguredPassword: password,
	})
}

// lockWallet serializes commands touching the same wallet path. Unrelated
// daemon activity keeps running.
func (d *Daemon) lockWallet(path string) func() {
	d.mu.Lock()
	lock, ok := d.walletLocks[path]
	if !ok {
		lock = &sync.Mutex{}
		d.walletLocks[path] = lock
	}
	d.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// RequestStop asks the daemon process to shut down after the current RPC
// response is written.
func (d *Daemon) RequestStop() {
	d.stopOnce.Do(func() {
		if d.stop != nil {
			go func() {
				// Let the stop acknowledgment reach the client first.
				time.Sleep(100 * time.Millisecond)
				d.stop()
			}()
		}
	})
}

// Info reports daemon status for getinfo and the status CLI command.
func (d *Daemon) Info(ctx context.Context) map[string]any {
	walletPath := d.resolveWalletPath("")
	if walletPath == "" {
		walletPath = d.cfg.DefaultWalletPath()
	}
	return map[string]any{
		"version":        command.Version,
		"pid":            os.Getpid(),
		"data_dir":       d.cfg.Paths.DataDir,
		"wallet_path":    walletPath,
		"wallet_exists":  wallet.Exists(walletPath),
		"uptime_seconds": int64(time.Since(d.startedAt).Seconds()),
		"connected":      d.network != nil,
	}
}

type control struct {
	daemon *Daemon
}

func (c *control) Info(ctx context.Context) map[string]any {
	return c.daemon.Info(ctx)
}

func (c *control) Stop() error {
	c.daemon.RequestStop()
	return nil
}
